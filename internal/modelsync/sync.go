// Package modelsync broadcasts model activations so every replica serves the
// same version.
package modelsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

// Activation is the message sent on the sync channel. Subscribers ignore
// versions older than the one they serve unless Rollback is set.
type Activation struct {
	Version     int       `json:"version"`
	Origin      string    `json:"origin"`
	ActivatedAt time.Time `json:"activatedAt"`
	Rollback    bool      `json:"rollback,omitempty"`
}

type Publisher struct {
	redis   *redis.Client
	channel string
	origin  string
}

// NewPublisher tags messages with origin so a replica can ignore its own.
func NewPublisher(rdb *redis.Client, channel, origin string) *Publisher {
	return &Publisher{redis: rdb, channel: channel, origin: origin}
}

func (p *Publisher) PublishActivated(ctx context.Context, version int) error {
	return p.publish(ctx, Activation{Version: version, Origin: p.origin, ActivatedAt: time.Now().UTC()})
}

// PublishRollback announces a deliberate move to an older version.
func (p *Publisher) PublishRollback(ctx context.Context, version int) error {
	return p.publish(ctx, Activation{Version: version, Origin: p.origin, ActivatedAt: time.Now().UTC(), Rollback: true})
}

func (p *Publisher) publish(ctx context.Context, a Activation) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := p.redis.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish model activation: %w", err)
	}
	return nil
}

// ModelLoader reads a stored model version.
type ModelLoader interface {
	Get(ctx context.Context, version int) (*models.Model, error)
}

// ModelActivator is the serving store.
type ModelActivator interface {
	Activate(m *models.Model) (*models.Model, error)
	Version() int
}

type Subscriber struct {
	redis   *redis.Client
	channel string
	origin  string
	loader  ModelLoader
	store   ModelActivator
	logger  logger.Logger
}

func NewSubscriber(rdb *redis.Client, channel, origin string, loader ModelLoader, store ModelActivator, log logger.Logger) *Subscriber {
	return &Subscriber{
		redis:   rdb,
		channel: channel,
		origin:  origin,
		loader:  loader,
		store:   store,
		logger:  log.WithFields(map[string]interface{}{"component": "modelsync", "channel": channel}),
	}
}

// Run listens until ctx is done. Failed loads are logged and skipped; the
// replica keeps serving its current model.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("listening for model activations", nil)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	var a Activation
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		s.logger.Warn("ignoring malformed activation", map[string]interface{}{"payload": payload, "error": err.Error()})
		return
	}
	current := s.store.Version()
	if a.Origin == s.origin || a.Version == current {
		return
	}
	// Pub/sub gives no ordering across publishers; a late announcement must
	// not move this replica back to a superseded model.
	if a.Version < current && !a.Rollback {
		s.logger.Warn("ignoring stale activation", map[string]interface{}{
			"version": a.Version, "current": current, "origin": a.Origin,
		})
		return
	}

	m, err := s.loader.Get(ctx, a.Version)
	if err != nil {
		s.logger.Error("failed to load announced model", map[string]interface{}{"version": a.Version, "error": err.Error()})
		return
	}
	if _, err := s.store.Activate(m); err != nil {
		s.logger.Error("announced model rejected", map[string]interface{}{"version": a.Version, "error": err.Error()})
		return
	}
	s.logger.Info("model activated from peer", map[string]interface{}{"version": a.Version, "origin": a.Origin})
}
