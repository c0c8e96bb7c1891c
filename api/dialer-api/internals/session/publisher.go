// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package internal_session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	"github.com/callwiseai/pkg/commons"
	"github.com/redis/go-redis/v9"
)

// StatusView is the client-facing projection of the session, polled by the
// dashboard about once a second.
type StatusView struct {
	Status        string               `json:"status"`
	Running       bool                 `json:"running"`
	LeadIndex     *int                 `json:"lead_index"`
	Campaign      *string              `json:"campaign"`
	CampaignLabel string               `json:"campaign_label,omitempty"`
	AutoNext      bool                 `json:"auto_next"`
	Lead          *internal_leads.Lead `json:"lead"`
}

// Labeler resolves a campaign key to its display label. Must answer from
// memory: status projections never block on upstream systems.
type Labeler interface {
	Label(key string) string
}

type subscriber struct {
	id int
	fn func(StatusView)
}

// Publisher answers "what is the state of the world right now" and notifies
// subscribers once per committed transition, in commit order. Subscribers run
// inside the store's commit hook and must not block or call back into the
// session.
type Publisher struct {
	logger  commons.Logger
	store   *Store
	labeler Labeler

	mu     sync.Mutex
	subs   []subscriber
	nextID int

	redisCh chan StatusView
	done    chan struct{}
}

// NewPublisher attaches a publisher to the store's commit stream.
func NewPublisher(logger commons.Logger, store *Store, labeler Labeler) *Publisher {
	p := &Publisher{
		logger:  logger,
		store:   store,
		labeler: labeler,
	}
	store.OnCommit(p.dispatch)
	return p
}

// Status projects the current session. Always succeeds.
func (p *Publisher) Status() StatusView {
	return p.View(p.store.Get())
}

// View projects an arbitrary session snapshot.
func (p *Publisher) View(s Session) StatusView {
	view := StatusView{
		Status:    string(s.Status),
		Running:   s.Status == StatusRunning,
		LeadIndex: s.ActiveLeadIndex,
		Campaign:  s.Campaign,
		AutoNext:  s.AutoNext,
		Lead:      s.Lead,
	}
	if s.Campaign != nil && p.labeler != nil {
		view.CampaignLabel = p.labeler.Label(*s.Campaign)
	}
	return view
}

// Subscribe registers fn for every future transition and returns its cancel.
// Delivery is in-memory only; nothing survives a restart.
func (p *Publisher) Subscribe(fn func(StatusView)) (cancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscriber{id: id, fn: fn})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub.id == id {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// PublishToRedis additionally fans every transition out on a redis channel,
// for dashboards hosted on other instances. The publish happens off the
// commit path; a slow redis drops snapshots rather than stalling the dialer.
func (p *Publisher) PublishToRedis(client *redis.Client, channel string) {
	p.redisCh = make(chan StatusView, 64)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		for view := range p.redisCh {
			payload, err := json.Marshal(view)
			if err != nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := client.Publish(ctx, channel, string(payload)).Err(); err != nil {
				p.logger.Warnf("redis status publish failed: %v", err)
			}
			cancel()
		}
	}()
}

// Close stops the redis pump, if one was started.
func (p *Publisher) Close() {
	if p.redisCh != nil {
		close(p.redisCh)
		<-p.done
	}
}

func (p *Publisher) dispatch(s Session) {
	view := p.View(s)

	p.mu.Lock()
	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.fn(view)
	}

	if p.redisCh != nil {
		select {
		case p.redisCh <- view:
		default:
			p.logger.Warnf("redis status publish backlog full, dropping snapshot")
		}
	}
}
