// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

//go:build integration && nats

package events

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/testinfra"
)

func natsTestConfig(url string) config.NATSConfig {
	return config.NATSConfig{
		Enabled:       true,
		URL:           url,
		StreamName:    "VITRINE_TEST",
		RetentionDays: 1,
		DurableName:   "vitrine-test",
		QueueGroup:    "vitrine-test",
		Subscribers:   1,
	}
}

func TestNATSBus_DeliversInteractions(t *testing.T) {
	nc := testinfra.StartNATS(t)
	cfg := natsTestConfig(nc.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := EnsureStream(ctx, nc.URL, cfg); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	// Idempotent.
	if err := EnsureStream(ctx, nc.URL, cfg); err != nil {
		t.Fatalf("EnsureStream() second call error = %v", err)
	}

	bus, err := NewNATSBus(nc.URL, cfg, NewCircuitBreaker(DefaultBreakerConfig("nats-test")), nil)
	if err != nil {
		t.Fatalf("NewNATSBus() error = %v", err)
	}
	t.Cleanup(func() { bus.Close() })
	if bus.Transport() != "nats" {
		t.Errorf("Transport() = %q, want nats", bus.Transport())
	}

	obs := newRecordingObserver()
	inv := &recordingInvalidator{}
	startConsumer(t, bus, obs, inv)

	ev := click("ev-nats-1", "alice", "B07XYZ1234")
	// JetStream deduplicates by Nats-Msg-Id, the consumer by event ID.
	for range 2 {
		if err := bus.PublishInteraction(ctx, ev); err != nil {
			t.Fatalf("PublishInteraction() error = %v", err)
		}
	}
	if err := bus.PublishInteraction(ctx, click("ev-nats-2", "bob", "B000000002")); err != nil {
		t.Fatalf("PublishInteraction() error = %v", err)
	}

	waitFor(t, obs.seen, "B000000002")
	if n := obs.count("B07XYZ1234"); n != 1 {
		t.Errorf("observed B07XYZ1234 %d times, want 1", n)
	}
}

func TestEmbeddedServer_StartAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	cfg := natsTestConfig(fmt.Sprintf("nats://127.0.0.1:%d", port))
	cfg.StoreDir = t.TempDir()

	srv, err := StartEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("StartEmbeddedServer() error = %v", err)
	}
	if !srv.Running() {
		t.Fatal("embedded server not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := EnsureStream(ctx, srv.ClientURL(), cfg); err != nil {
		t.Errorf("EnsureStream() on embedded server error = %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
