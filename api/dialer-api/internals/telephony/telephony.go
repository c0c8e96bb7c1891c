// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_telephony

import (
	"context"
	"fmt"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/configs"
)

// Dialer places and tears down calls on the telephony backend. Both calls are
// fire-and-forget from the session controller's point of view: the controller
// never awaits call progress, and a provider failure must never block a state
// transition. Progress comes back, if at all, through the gateway's webhook.
type Dialer interface {
	// PlaceCall instructs the backend to originate a call to the lead.
	// callID is this dialer's correlation id for the call.
	PlaceCall(ctx context.Context, callID string, lead *internal_leads.Lead, campaign string) error

	// Hangup tears down a previously placed call. Best effort; hanging up a
	// call the backend no longer knows is not an error.
	Hangup(ctx context.Context, callID string) error
}

// NewDialer builds the provider selected by cfg.
func NewDialer(cfg configs.TelephonyConfig, logger commons.Logger) (Dialer, error) {
	switch cfg.Provider {
	case "gateway":
		return NewGatewayDialer(logger, cfg.GatewayUrl, cfg.GatewayToken), nil
	case "twilio":
		return NewTwilioDialer(logger, cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioVoiceUrl), nil
	case "noop":
		return NewNoopDialer(logger), nil
	}
	return nil, fmt.Errorf("unknown telephony provider %q", cfg.Provider)
}
