// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

//go:build !nats

package main

import (
	"context"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/events"
	"github.com/tomtom215/vitrine/internal/logging"
)

// newEventBus returns the in-process bus. NATS needs -tags nats.
func newEventBus(_ context.Context, cfg *config.Config) (*events.Bus, func(context.Context), error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	breaker := events.NewCircuitBreaker(events.DefaultBreakerConfig("event-bus"))
	return events.NewChannelBus(breaker, events.NewLoggerAdapter()), func(context.Context) {}, nil
}
