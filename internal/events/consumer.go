// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/jellydator/ttlcache/v3"

	"github.com/tomtom215/vitrine/internal/metrics"
	"github.com/tomtom215/vitrine/internal/models"
)

// Observer receives the item ID of every consumed click.
type Observer interface {
	Observe(itemID string)
}

// Invalidator drops cached per-user state.
type Invalidator interface {
	Invalidate(userID string)
}

// ConsumerConfig holds consumer router settings.
type ConsumerConfig struct {
	// CloseTimeout is how long in-flight handlers get when the router stops.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	// DedupTTL is how long an event ID is remembered.
	DedupTTL      time.Duration
	DedupCapacity uint64
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		DedupTTL:             10 * time.Minute,
		DedupCapacity:        100_000,
	}
}

// Consumer applies interaction events to the popularity tracker and the
// profile cache. It satisfies suture.Service; each Serve call runs a fresh
// Watermill router.
type Consumer struct {
	bus      *Bus
	observer Observer
	profiles Invalidator
	cfg      ConsumerConfig
	logger   watermill.LoggerAdapter
	seen     *ttlcache.Cache[string, struct{}]

	ready     chan struct{}
	readyOnce sync.Once
}

// NewConsumer creates a consumer. profiles may be nil.
func NewConsumer(bus *Bus, observer Observer, profiles Invalidator, cfg ConsumerConfig) (*Consumer, error) {
	if bus == nil || observer == nil {
		return nil, errors.New("consumer requires a bus and an observer")
	}
	d := DefaultConsumerConfig()
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = d.CloseTimeout
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = d.DedupTTL
	}

	opts := []ttlcache.Option[string, struct{}]{
		ttlcache.WithTTL[string, struct{}](cfg.DedupTTL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	}
	if cfg.DedupCapacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, struct{}](cfg.DedupCapacity))
	}

	return &Consumer{
		bus:      bus,
		observer: observer,
		profiles: profiles,
		cfg:      cfg,
		logger:   bus.logger,
		seen:     ttlcache.New(opts...),
		ready:    make(chan struct{}),
	}, nil
}

// IsDuplicate implements middleware.ExpiringKeyRepository.
func (c *Consumer) IsDuplicate(_ context.Context, key string) (bool, error) {
	_, found := c.seen.GetOrSet(key, struct{}{})
	return found, nil
}

// Handle applies one interaction message. Malformed payloads are acked
// and counted; redelivery cannot fix them.
func (c *Consumer) Handle(msg *message.Message) error {
	ev, err := DecodeInteraction(msg)
	if err != nil {
		metrics.RecordEventConsumed(TopicInteractions, false)
		c.logger.Error("dropping malformed interaction", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil
	}

	if c.profiles != nil {
		c.profiles.Invalidate(ev.UserID)
	}
	if ev.Kind == models.EventClick {
		c.observer.Observe(ev.ItemID)
	}
	metrics.RecordEventConsumed(TopicInteractions, true)
	return nil
}

func (c *Consumer) newRouter() (*message.Router, error) {
	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r.AddMiddleware(middleware.Recoverer)
	if c.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      c.cfg.RetryMaxRetries,
			InitialInterval: c.cfg.RetryInitialInterval,
			MaxInterval:     c.cfg.RetryMaxInterval,
			Multiplier:      2,
			Logger:          c.logger,
		}
		r.AddMiddleware(retry.Middleware)
	}
	dedup := middleware.Deduplicator{
		KeyFactory: func(msg *message.Message) (string, error) {
			return msg.UUID, nil
		},
		Repository: c,
	}
	r.AddMiddleware(dedup.Middleware)

	r.AddConsumerHandler("interactions-consumer", TopicInteractions, c.bus.Subscriber(), c.Handle)
	return r, nil
}

// Serve runs the consumer until ctx is cancelled.
func (c *Consumer) Serve(ctx context.Context) error {
	r, err := c.newRouter()
	if err != nil {
		return err
	}

	go c.seen.Start()
	defer c.seen.Stop()

	go func() {
		select {
		case <-r.Running():
			c.readyOnce.Do(func() { close(c.ready) })
		case <-ctx.Done():
		}
	}()

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("interactions consumer: %w", err)
	}
	return ctx.Err()
}

// Running returns a channel closed once the first router started by Serve
// has subscribed.
func (c *Consumer) Running() <-chan struct{} {
	return c.ready
}

func (c *Consumer) String() string {
	return "interactions-consumer"
}
