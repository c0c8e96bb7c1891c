// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_history

import (
	"context"
	"fmt"
	"time"

	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/connectors"
)

// Store persists call records to Postgres.
//
// Records outlive the in-memory session on purpose: the session is transient
// control-plane state, while call_records is what reporting reads. Closing a
// record is keyed by call_id because by the time a call ends the session may
// already point at the next lead.
type Store interface {
	// Begin writes the record for a freshly started call.
	Begin(ctx context.Context, record *CallRecord) error

	// Finish closes the open record for callID with the given outcome.
	// Finishing an unknown or already-closed record is not an error — end
	// and stop are idempotent upstream, so the second close must be too.
	Finish(ctx context.Context, callID, outcome string) error

	// Recent returns the newest records, most recent first.
	Recent(ctx context.Context, limit int) ([]CallRecord, error)
}

type postgresStore struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
}

// NewStore creates a call record store backed by Postgres.
func NewStore(postgres connectors.PostgresConnector, logger commons.Logger) Store {
	return &postgresStore{
		postgres: postgres,
		logger:   logger,
	}
}

func (s *postgresStore) Begin(ctx context.Context, record *CallRecord) error {
	db := s.postgres.DB(ctx)
	if err := db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save call record %s: %w", record.CallID, err)
	}
	s.logger.Debugf("saved call record: callId=%s, lead=%d, campaign=%s",
		record.CallID, record.LeadIndex, record.Campaign)
	return nil
}

func (s *postgresStore) Finish(ctx context.Context, callID, outcome string) error {
	db := s.postgres.DB(ctx)

	// Only closes a still-open record; a second Finish is a no-op.
	result := db.Model(&CallRecord{}).
		Where("call_id = ? AND ended_date IS NULL", callID).
		Updates(map[string]interface{}{
			"outcome":    outcome,
			"ended_date": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close call record %s: %w", callID, result.Error)
	}
	if result.RowsAffected == 0 {
		s.logger.Debugf("call record %s already closed or unknown", callID)
		return nil
	}

	s.logger.Debugf("closed call record: callId=%s, outcome=%s", callID, outcome)
	return nil
}

func (s *postgresStore) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	db := s.postgres.DB(ctx)
	var records []CallRecord
	if err := db.Order("started_date DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	return records, nil
}

// Migrate creates the call_records table if missing.
func Migrate(ctx context.Context, postgres connectors.PostgresConnector) error {
	return postgres.DB(ctx).AutoMigrate(&CallRecord{})
}
