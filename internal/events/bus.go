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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vitrine/internal/metrics"
	"github.com/tomtom215/vitrine/internal/models"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Bus pairs a Watermill publisher and subscriber for the interactions
// topic. It is safe for concurrent use.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	logger     watermill.LoggerAdapter
	transport  string

	mu     sync.RWMutex
	closed bool
}

// NewBus wraps an existing publisher and subscriber. breaker may be nil.
func NewBus(pub message.Publisher, sub message.Subscriber, breaker *gobreaker.CircuitBreaker[any], logger watermill.LoggerAdapter, transport string) *Bus {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    breaker,
		logger:     logger,
		transport:  transport,
	}
}

// NewChannelBus returns an in-process bus backed by a Watermill gochannel.
// Publish returns once every subscriber has acked.
func NewChannelBus(breaker *gobreaker.CircuitBreaker[any], logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	// Blocking until ack keeps events in publish order and applies them
	// before the recording request returns.
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            1024,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
	return NewBus(ch, ch, breaker, logger, "channel")
}

// Transport names the underlying transport: "channel" or "nats".
func (b *Bus) Transport() string { return b.transport }

// Subscriber returns the subscriber side of the bus.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Publish sends msg on topic through the circuit breaker.
func (b *Bus) Publish(topic string, msg *message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	var err error
	if b.breaker != nil {
		_, err = b.breaker.Execute(func() (any, error) {
			return nil, b.publisher.Publish(topic, msg)
		})
	} else {
		err = b.publisher.Publish(topic, msg)
	}
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

// PublishInteraction publishes a stored interaction event. The message does
// not inherit ctx; consumers outlive the request that recorded the event.
func (b *Bus) PublishInteraction(_ context.Context, ev models.InteractionEvent) error {
	msg, err := NewInteractionMessage(&ev)
	if err != nil {
		return err
	}
	return b.Publish(TopicInteractions, msg)
}

// Close shuts down the publisher and subscriber. It is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	errs := []error{b.publisher.Close()}
	// gochannel is both sides; closing it twice is harmless but noisy
	if any(b.subscriber) != any(b.publisher) {
		errs = append(errs, b.subscriber.Close())
	}
	return errors.Join(errs...)
}
