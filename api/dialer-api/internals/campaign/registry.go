// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/connectors"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a campaign key is unknown.
var ErrNotFound = errors.New("campaign not found")

// Campaign is a named calling script selected by key. The dialer session only
// stores the key; definitions live here.
type Campaign struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	Key         string    `json:"key" gorm:"column:key;type:varchar(100);not null;uniqueIndex"`
	Label       string    `json:"label" gorm:"column:label;type:varchar(200);not null"`
	CreatedDate time.Time `json:"createdDate" gorm:"column:created_date;type:timestamp;not null;<-:create"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) (err error) {
	if c.CreatedDate.IsZero() {
		c.CreatedDate = time.Now()
	}
	return nil
}

// Registry reads campaign definitions. Label answers from an in-memory cache
// so status projections never block on the database.
type Registry interface {
	List(ctx context.Context) ([]Campaign, error)
	Get(ctx context.Context, key string) (*Campaign, error)
	Label(key string) string
	EnsureDefaults(ctx context.Context, defaults []Campaign) error
}

type postgresRegistry struct {
	postgres connectors.PostgresConnector
	logger   commons.Logger
	labels   sync.Map
}

// NewRegistry creates a campaign registry backed by Postgres.
func NewRegistry(postgres connectors.PostgresConnector, logger commons.Logger) Registry {
	return &postgresRegistry{
		postgres: postgres,
		logger:   logger,
	}
}

func (r *postgresRegistry) List(ctx context.Context) ([]Campaign, error) {
	db := r.postgres.DB(ctx)
	var campaigns []Campaign
	if err := db.Order("key ASC").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	for _, c := range campaigns {
		r.labels.Store(c.Key, c.Label)
	}
	return campaigns, nil
}

func (r *postgresRegistry) Get(ctx context.Context, key string) (*Campaign, error) {
	db := r.postgres.DB(ctx)
	var campaign Campaign
	if err := db.Where("key = ?", key).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("campaign %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign %s: %w", key, err)
	}
	r.labels.Store(campaign.Key, campaign.Label)
	return &campaign, nil
}

// Label returns the cached label for key, or "" when unknown. Never hits the
// database; the cache is warmed by EnsureDefaults and List.
func (r *postgresRegistry) Label(key string) string {
	if v, ok := r.labels.Load(key); ok {
		return v.(string)
	}
	return ""
}

// EnsureDefaults migrates the campaigns table and inserts any missing
// defaults, then warms the label cache.
func (r *postgresRegistry) EnsureDefaults(ctx context.Context, defaults []Campaign) error {
	db := r.postgres.DB(ctx)
	if err := db.AutoMigrate(&Campaign{}); err != nil {
		return fmt.Errorf("failed to migrate campaigns: %w", err)
	}
	for _, c := range defaults {
		var existing Campaign
		err := db.Where("key = ?", c.Key).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&c).Error; err != nil {
				return fmt.Errorf("failed to seed campaign %s: %w", c.Key, err)
			}
			r.logger.Infof("seeded campaign %s (%s)", c.Key, c.Label)
		} else if err != nil {
			return err
		}
	}
	_, err := r.List(ctx)
	return err
}
