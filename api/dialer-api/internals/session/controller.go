// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_session

import (
	"context"
	"fmt"
	"time"

	internal_history "github.com/callwiseai/api/dialer-api/internals/history"
	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	internal_telephony "github.com/callwiseai/api/dialer-api/internals/telephony"
	"github.com/callwiseai/pkg/commons"
	"github.com/google/uuid"
)

const sideEffectTimeout = 15 * time.Second

// Controller enforces the call lifecycle over the Store. Every operation is a
// single Store.Update: validation, lead lookup and the transition commit all
// happen inside one critical section, so two racing StartCall requests can
// never both observe an idle session (only one wins, the other gets
// ErrCallActive).
//
// Telephony and history writes are dispatched after the commit and never
// awaited: state transitions are control-plane only, decoupled from physical
// call setup and teardown.
type Controller struct {
	logger             commons.Logger
	store              *Store
	leads              internal_leads.Source
	dialer             internal_telephony.Dialer
	history            internal_history.Store
	connectImmediately bool
}

// ControllerOption tweaks controller policy.
type ControllerOption func(*Controller)

// WithConnectImmediately makes StartCall commit straight to running, for
// gateways that only confirm answered calls and report no dial progress.
func WithConnectImmediately(enabled bool) ControllerOption {
	return func(c *Controller) { c.connectImmediately = enabled }
}

// WithHistory enables call record persistence.
func WithHistory(history internal_history.Store) ControllerOption {
	return func(c *Controller) { c.history = history }
}

// NewController wires the session controller.
func NewController(
	logger commons.Logger,
	store *Store,
	leads internal_leads.Source,
	dialer internal_telephony.Dialer,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		logger: logger,
		store:  store,
		leads:  leads,
		dialer: dialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectCampaign sets (or clears, with nil) the selected campaign. Allowed in
// any state; an active call keeps the campaign it started with in its record.
func (c *Controller) SelectCampaign(campaign *string) Session {
	return c.store.Update(func(s Session) Session {
		s.Campaign = campaign
		return s
	})
}

// SetAutoNext sets the persistent auto-advance flag.
func (c *Controller) SetAutoNext(enabled bool) Session {
	return c.store.Update(func(s Session) Session {
		s.AutoNext = enabled
		return s
	})
}

// StartCall starts a call to the 1-based leadIndex. An optional campaign
// overrides the session's selected one. Returns ErrCallActive while a call is
// in flight and ErrLeadNotFound when the index does not resolve.
func (c *Controller) StartCall(ctx context.Context, leadIndex int, campaign *string) (Session, error) {
	var opErr error
	var started *startedCall

	next := c.store.Update(func(s Session) Session {
		if s.Status.Active() {
			opErr = ErrCallActive
			return s
		}
		ns, sc, err := c.beginCall(s, leadIndex, campaign)
		if err != nil {
			opErr = err
			return s
		}
		started = sc
		return ns
	})
	if opErr != nil {
		return Session{}, opErr
	}

	c.dispatch(nil, started)
	return next, nil
}

// EndCall ends the current call. Ending an idle or already-ended session is a
// success no-op: the dashboard calls it speculatively.
//
// With autoNext (passed or set on the session) the advance to leadIndex+1 is
// part of the same Update, so no observer ever sees the intermediate ended
// state; when the list is exhausted the session lands on idle with no lead.
func (c *Controller) EndCall(ctx context.Context, autoNext bool) (Session, error) {
	var ended *endedCall
	var started *startedCall

	next := c.store.Update(func(s Session) Session {
		if !s.Status.Active() {
			return s
		}

		ended = &endedCall{callID: s.CallID, outcome: internal_history.OutcomeCompleted}

		if !(autoNext || s.AutoNext) {
			s.Status = StatusEnded
			s.ActiveLeadIndex = nil
			s.Lead = nil
			s.CallID = ""
			return s
		}

		nextIndex := *s.ActiveLeadIndex + 1
		ns, sc, err := c.beginCall(s, nextIndex, nil)
		if err != nil {
			// List exhausted: back to idle, no wraparound.
			s.Status = StatusIdle
			s.ActiveLeadIndex = nil
			s.Lead = nil
			s.CallID = ""
			return s
		}
		ended.outcome = internal_history.OutcomeAdvanced
		started = sc
		return ns
	})

	c.dispatch(ended, started)
	return next, nil
}

// StopAll force-resets the dialer: idle, no lead, auto-advance off. The
// selected campaign is kept. Always succeeds and is idempotent.
func (c *Controller) StopAll(ctx context.Context) Session {
	var ended *endedCall

	next := c.store.Update(func(s Session) Session {
		if s.Status.Active() {
			ended = &endedCall{callID: s.CallID, outcome: internal_history.OutcomeStopped}
		}
		s.Status = StatusIdle
		s.ActiveLeadIndex = nil
		s.Lead = nil
		s.CallID = ""
		s.AutoNext = false
		return s
	})

	c.dispatch(ended, nil)
	return next
}

// Progress applies a dial-progress callback from the telephony gateway.
// Callbacks for a call that is no longer current are ignored; progress only
// moves forward (dialing → ringing → running).
func (c *Controller) Progress(callID string, to Status) Session {
	return c.store.Update(func(s Session) Session {
		if s.CallID == "" || s.CallID != callID {
			return s
		}
		switch to {
		case StatusRinging:
			if s.Status == StatusDialing {
				s.Status = StatusRinging
			}
		case StatusRunning:
			if s.Status == StatusDialing || s.Status == StatusRinging {
				s.Status = StatusRunning
			}
		}
		return s
	})
}

type startedCall struct {
	callID   string
	lead     *internal_leads.Lead
	index    int
	campaign string
}

type endedCall struct {
	callID  string
	outcome string
}

// beginCall builds the session for a new call. Runs inside the store's
// critical section; the lead lookup is part of the transaction.
func (c *Controller) beginCall(s Session, leadIndex int, campaign *string) (Session, *startedCall, error) {
	lead, err := c.leads.Get(leadIndex)
	if err != nil {
		return s, nil, fmt.Errorf("lead %d: %w", leadIndex, ErrLeadNotFound)
	}

	if campaign != nil {
		s.Campaign = campaign
	}
	s.Status = StatusDialing
	if c.connectImmediately {
		s.Status = StatusRunning
	}
	s.ActiveLeadIndex = &leadIndex
	s.Lead = lead
	s.CallID = uuid.New().String()

	sc := &startedCall{callID: s.CallID, lead: lead, index: leadIndex}
	if s.Campaign != nil {
		sc.campaign = *s.Campaign
	}
	return s, sc, nil
}

// dispatch runs the post-commit side effects in order on one goroutine:
// hang up the ended call, close its record, then originate the new one.
// Failures are logged, never propagated — the committed state stands.
func (c *Controller) dispatch(ended *endedCall, started *startedCall) {
	if ended == nil && started == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if ended != nil {
			if err := c.dialer.Hangup(ctx, ended.callID); err != nil {
				c.logger.Errorf("hangup for call %s failed: %v", ended.callID, err)
			}
			if c.history != nil {
				if err := c.history.Finish(ctx, ended.callID, ended.outcome); err != nil {
					c.logger.Errorf("closing call record %s failed: %v", ended.callID, err)
				}
			}
		}
		if started != nil {
			if c.history != nil {
				record := &internal_history.CallRecord{
					CallID:    started.callID,
					LeadIndex: started.index,
					LeadName:  started.lead.ProspectName,
					LeadPhone: started.lead.Phone,
					Campaign:  started.campaign,
				}
				if err := c.history.Begin(ctx, record); err != nil {
					c.logger.Errorf("saving call record %s failed: %v", started.callID, err)
				}
			}
			if err := c.dialer.PlaceCall(ctx, started.callID, started.lead, started.campaign); err != nil {
				c.logger.Errorf("originate for call %s failed: %v", started.callID, err)
			}
		}
	}()
}
