// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

//go:build !nats

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vitrine/internal/config"
)

// NATSAvailable reports whether this binary was built with NATS support.
const NATSAvailable = false

// ErrNATSUnavailable is returned by the NATS constructors in builds without
// the nats tag.
var ErrNATSUnavailable = errors.New("NATS support not compiled: build with -tags nats")

// EmbeddedServer is a stub for non-NATS builds.
type EmbeddedServer struct{}

// StartEmbeddedServer returns ErrNATSUnavailable.
func StartEmbeddedServer(config.NATSConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSUnavailable
}

// ClientURL returns "".
func (s *EmbeddedServer) ClientURL() string { return "" }

// Running returns false.
func (s *EmbeddedServer) Running() bool { return false }

// Shutdown is a no-op.
func (s *EmbeddedServer) Shutdown(context.Context) error { return nil }

// EnsureStream returns ErrNATSUnavailable.
func EnsureStream(context.Context, string, config.NATSConfig) error {
	return ErrNATSUnavailable
}

// NewNATSBus returns ErrNATSUnavailable.
func NewNATSBus(string, config.NATSConfig, *gobreaker.CircuitBreaker[any], watermill.LoggerAdapter) (*Bus, error) {
	return nil, ErrNATSUnavailable
}
