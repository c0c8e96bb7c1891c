// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_session

import "sync"

// Store holds the dialer's Session singleton with read-modify-write
// exclusivity: an Update's transform runs alone, so two near-simultaneous
// StartCall requests can never both observe an idle session. The store does
// no business validation; that is the Controller's job.
//
// The store is an injectable object, not a package global, so tests can run
// independent sessions side by side.
type Store struct {
	mu       sync.Mutex
	session  Session
	onCommit func(Session)
}

// NewStore creates a store in the idle boot state.
func NewStore() *Store {
	return &Store{session: NewSession()}
}

// OnCommit registers a hook invoked after every committed Update that changed
// the session, while the store lock is still held — commits are therefore
// observed strictly in the order they happened. The hook must not call back
// into the store.
func (s *Store) OnCommit(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = fn
}

// Get returns a snapshot of the current session.
func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Update applies fn exclusively and returns the resulting snapshot. The whole
// of fn — validation, lead lookups, the decision — executes inside the
// critical section.
func (s *Store) Update(fn func(Session) Session) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.session
	s.session = fn(prev)
	if s.onCommit != nil && !s.session.equalState(prev) {
		s.onCommit(s.session)
	}
	return s.session
}
