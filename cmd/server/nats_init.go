// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/events"
	"github.com/tomtom215/vitrine/internal/logging"
)

// newEventBus returns the NATS JetStream bus when enabled, starting an
// embedded server first if configured, and the in-process bus otherwise.
// The returned stop function shuts the embedded server down.
func newEventBus(ctx context.Context, cfg *config.Config) (*events.Bus, func(context.Context), error) {
	breaker := events.NewCircuitBreaker(events.DefaultBreakerConfig("event-bus"))
	logger := events.NewLoggerAdapter()
	noop := func(context.Context) {}

	if !cfg.NATS.Enabled {
		logging.Info().Msg("Event bus: in-process channel")
		return events.NewChannelBus(breaker, logger), noop, nil
	}

	url, stop := cfg.NATS.URL, noop
	if cfg.NATS.EmbeddedServer {
		srv, err := events.StartEmbeddedServer(cfg.NATS)
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		url = srv.ClientURL()
		stop = func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS server did not stop cleanly")
			}
		}
		logging.Info().Str("url", url).Str("store_dir", cfg.NATS.StoreDir).Msg("Embedded NATS server started")
	}

	if err := events.EnsureStream(ctx, url, cfg.NATS); err != nil {
		stop(context.Background())
		return nil, nil, err
	}

	bus, err := events.NewNATSBus(url, cfg.NATS, breaker, logger)
	if err != nil {
		stop(context.Background())
		return nil, nil, err
	}

	logging.Info().
		Str("url", url).
		Str("stream", cfg.NATS.StreamName).
		Str("queue_group", cfg.NATS.QueueGroup).
		Msg("Event bus: NATS JetStream")
	return bus, stop, nil
}
