// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/metrics"
)

func TestChiMiddlewareConfigFrom(t *testing.T) {
	got := ChiMiddlewareConfigFrom(
		config.SecurityConfig{
			RateLimitReqs:   50,
			RateLimitWindow: 10 * time.Second,
			CORSOrigins:     []string{"https://shop.example"},
		},
		config.StoreConfig{WriteRatePerUser: 2, WriteBurstPerUser: 4},
	)

	if got.RateLimitRequests != 50 || got.RateLimitWindow != 10*time.Second {
		t.Errorf("rate limit = %d/%v, want 50/10s", got.RateLimitRequests, got.RateLimitWindow)
	}
	if len(got.CORSAllowedOrigins) != 1 || got.CORSAllowedOrigins[0] != "https://shop.example" {
		t.Errorf("CORS origins = %v", got.CORSAllowedOrigins)
	}
	if got.UserWriteRate != 2 || got.UserWriteBurst != 4 {
		t.Errorf("user limit = %v/%d, want 2/4", got.UserWriteRate, got.UserWriteBurst)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	cfg.RateLimitRequests = 1

	handler := NewChiMiddleware(cfg).RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestUserLimiter(t *testing.T) {
	l := NewUserLimiter(0.001, 1, time.Minute)
	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("user"))

	if !l.Allow("alice") {
		t.Fatal("first write denied")
	}
	if l.Allow("alice") {
		t.Error("second write allowed past burst")
	}
	if !l.Allow("bob") {
		t.Error("bob shares alice's bucket")
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if got := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("user")) - before; got != 1 {
		t.Errorf("user rate limit hits = %v, want 1", got)
	}
}

func TestUserLimiter_Serve(t *testing.T) {
	l := NewUserLimiter(1, 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if l.String() != "user-write-limiter" {
		t.Errorf("String() = %q", l.String())
	}
}
