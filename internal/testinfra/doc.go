// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package testinfra provides container fixtures for integration tests.
//
// Everything here is behind the integration build tag and uses
// testcontainers-go, so a plain `go test ./...` never touches Docker:
//
//	go test -tags "integration nats" ./internal/events/...
//
// # NATS Container
//
// NATSContainer runs a JetStream-enabled NATS server:
//
//	func TestBusOverNATS(t *testing.T) {
//	    nc := testinfra.StartNATS(t)
//	    cfg := config.NATSConfig{URL: nc.URL, StreamName: "TEST", RetentionDays: 1}
//	    if err := events.EnsureStream(ctx, nc.URL, cfg); err != nil {
//	        t.Fatal(err)
//	    }
//	    bus, err := events.NewNATSBus(nc.URL, cfg, nil, nil)
//	    ...
//	}
//
// Tests are skipped when the container provider is unhealthy or
// VITRINE_SKIP_CONTAINERS is set.
package testinfra
