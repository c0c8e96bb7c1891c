// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_telephony

import (
	"context"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	"github.com/callwiseai/pkg/commons"
)

// noopDialer logs instead of calling anyone. Default for development and
// tests.
type noopDialer struct {
	logger commons.Logger
}

func NewNoopDialer(logger commons.Logger) Dialer {
	return &noopDialer{logger: logger}
}

func (n *noopDialer) PlaceCall(ctx context.Context, callID string, lead *internal_leads.Lead, campaign string) error {
	n.logger.Infof("noop dialer: place call %s to %s campaign=%s", callID, lead.Phone, campaign)
	return nil
}

func (n *noopDialer) Hangup(ctx context.Context, callID string) error {
	n.logger.Debugf("noop dialer: hangup call %s", callID)
	return nil
}
