// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_telephony

import (
	"context"
	"fmt"
	"time"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	"github.com/callwiseai/pkg/commons"
	"github.com/go-resty/resty/v2"
)

// gatewayDialer talks to an Asterisk/Telxio style HTTP gateway: a POST to
// /originate places the call, /hangup tears it down. The gateway reports
// progress asynchronously through the dialer's webhook, keyed by call_id.
type gatewayDialer struct {
	logger commons.Logger
	client *resty.Client
}

type originateRequest struct {
	CallID     string `json:"call_id"`
	Number     string `json:"number"`
	CallerName string `json:"caller_name"`
	Campaign   string `json:"campaign,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

type hangupRequest struct {
	CallID string `json:"call_id"`
}

// NewGatewayDialer creates a dialer against the gateway at baseUrl.
func NewGatewayDialer(logger commons.Logger, baseUrl, token string) Dialer {
	client := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &gatewayDialer{logger: logger, client: client}
}

func (g *gatewayDialer) PlaceCall(ctx context.Context, callID string, lead *internal_leads.Lead, campaign string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(originateRequest{
			CallID:     callID,
			Number:     lead.Phone,
			CallerName: lead.ProspectName,
			Campaign:   campaign,
			Timezone:   lead.Timezone,
		}).
		Post("/originate")
	if err != nil {
		return fmt.Errorf("gateway originate failed for call %s: %w", callID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway originate failed for call %s: status %d: %s", callID, resp.StatusCode(), resp.String())
	}
	g.logger.Infof("originated call %s to %s via gateway", callID, lead.Phone)
	return nil
}

func (g *gatewayDialer) Hangup(ctx context.Context, callID string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(hangupRequest{CallID: callID}).
		Post("/hangup")
	if err != nil {
		return fmt.Errorf("gateway hangup failed for call %s: %w", callID, err)
	}
	if resp.IsError() && resp.StatusCode() != 404 {
		return fmt.Errorf("gateway hangup failed for call %s: status %d", callID, resp.StatusCode())
	}
	return nil
}
