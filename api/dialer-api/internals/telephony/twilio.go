// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_telephony

import (
	"context"
	"fmt"
	"sync"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	"github.com/callwiseai/pkg/commons"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioDialer places calls through the Twilio REST API. Twilio assigns its
// own call SID, so the dialer remembers callID→SID for the hangup path; the
// mapping is process-local, matching the session's own lifetime.
type twilioDialer struct {
	logger   commons.Logger
	client   *twilio.RestClient
	from     string
	voiceUrl string
	sids     sync.Map
}

// NewTwilioDialer creates a dialer bound to one Twilio account.
func NewTwilioDialer(logger commons.Logger, accountSid, authToken, from, voiceUrl string) Dialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &twilioDialer{
		logger:   logger,
		client:   client,
		from:     from,
		voiceUrl: voiceUrl,
	}
}

func (t *twilioDialer) PlaceCall(ctx context.Context, callID string, lead *internal_leads.Lead, campaign string) error {
	params := &twilioApi.CreateCallParams{}
	params.SetTo(lead.Phone)
	params.SetFrom(t.from)
	params.SetUrl(t.voiceUrl)

	resp, err := t.client.Api.CreateCall(params)
	if err != nil {
		return fmt.Errorf("twilio create call failed for call %s: %w", callID, err)
	}
	if resp.Sid != nil {
		t.sids.Store(callID, *resp.Sid)
		t.logger.Infof("originated call %s to %s via twilio sid=%s", callID, lead.Phone, *resp.Sid)
	}
	return nil
}

func (t *twilioDialer) Hangup(ctx context.Context, callID string) error {
	v, ok := t.sids.LoadAndDelete(callID)
	if !ok {
		// Never placed, or already reaped; nothing to tear down.
		return nil
	}
	sid := v.(string)

	params := &twilioApi.UpdateCallParams{}
	params.SetStatus("completed")
	if _, err := t.client.Api.UpdateCall(sid, params); err != nil {
		return fmt.Errorf("twilio hangup failed for call %s sid=%s: %w", callID, sid, err)
	}
	return nil
}
