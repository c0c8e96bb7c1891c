// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_history

import (
	"time"

	"gorm.io/gorm"
)

// Call outcome constants.
const (
	OutcomeCompleted = "completed" // operator ended the call
	OutcomeAdvanced  = "advanced"  // ended by auto-advance, next lead started
	OutcomeStopped   = "stopped"   // ended by stop-all
)

// CallRecord is the permanent trace of one placed call. Records are written
// when a call starts and closed when it ends; they are never read on the
// dialer's control path, only by reporting.
type CallRecord struct {
	Id          uint64     `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	CallID      string     `json:"callId" gorm:"column:call_id;type:varchar(36);not null;uniqueIndex"`
	LeadIndex   int        `json:"leadIndex" gorm:"column:lead_index;type:int;not null"`
	LeadName    string     `json:"leadName" gorm:"column:lead_name;type:varchar(200);not null;default:''"`
	LeadPhone   string     `json:"leadPhone" gorm:"column:lead_phone;type:varchar(50);not null;default:''"`
	Campaign    string     `json:"campaign" gorm:"column:campaign;type:varchar(100);not null;default:''"`
	Outcome     string     `json:"outcome" gorm:"column:outcome;type:varchar(20);not null;default:''"`
	StartedDate time.Time  `json:"startedDate" gorm:"column:started_date;type:timestamp;not null"`
	EndedDate   *time.Time `json:"endedDate" gorm:"column:ended_date;type:timestamp;default:null"`
}

func (CallRecord) TableName() string {
	return "call_records"
}

func (cr *CallRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if cr.StartedDate.IsZero() {
		cr.StartedDate = time.Now()
	}
	return nil
}

// Open reports whether the record has not been closed yet.
func (cr *CallRecord) Open() bool {
	return cr.EndedDate == nil
}
