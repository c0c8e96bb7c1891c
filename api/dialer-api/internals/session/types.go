// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_session

import (
	"errors"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
)

// Status is the lifecycle of the current call.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusDialing Status = "dialing"
	StatusRinging Status = "ringing"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
)

// Active reports whether a call is in flight. Starting another call while
// active is rejected, never queued.
func (s Status) Active() bool {
	return s == StatusDialing || s == StatusRinging || s == StatusRunning
}

var (
	// ErrCallActive is returned by StartCall while another call is in flight.
	ErrCallActive = errors.New("another call is already active")

	// ErrLeadNotFound is returned when the requested lead index does not
	// resolve against the lead source.
	ErrLeadNotFound = errors.New("lead not found")
)

// Session is the control-plane record for the dialer instance: the currently
// active (or most recently active) call. It is transient by design — call
// history has its own permanent records — and lives only in the Store.
//
// Lead is a snapshot taken when the call starts, so edits to the source list
// never alter what an in-flight call displays.
type Session struct {
	Status          Status
	ActiveLeadIndex *int
	Campaign        *string
	AutoNext        bool
	Lead            *internal_leads.Lead
	CallID          string
}

// NewSession returns the boot state.
func NewSession() Session {
	return Session{Status: StatusIdle}
}

func (s Session) equalState(o Session) bool {
	if s.Status != o.Status || s.AutoNext != o.AutoNext || s.CallID != o.CallID {
		return false
	}
	if !equalPtr(s.ActiveLeadIndex, o.ActiveLeadIndex) {
		return false
	}
	if !equalPtr(s.Campaign, o.Campaign) {
		return false
	}
	return (s.Lead == nil) == (o.Lead == nil)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
