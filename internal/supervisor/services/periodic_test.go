// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vitrine/internal/events"
	"github.com/tomtom215/vitrine/internal/metrics"
)

func countingJob(name string, fail func(n int32) bool) (Job, *atomic.Int32) {
	var calls atomic.Int32
	return Job{
		Name: name,
		Run: func(context.Context) (Result, error) {
			n := calls.Add(1)
			if fail != nil && fail(n) {
				return Result{}, errors.New("source unavailable")
			}
			return Result{Version: uint64(n), Size: 10 * int(n)}, nil
		},
	}, &calls
}

func TestPeriodicService_RunOnceRecordsMetrics(t *testing.T) {
	job, _ := countingJob("test_run_once", func(n int32) bool { return n == 2 })
	svc := NewPeriodicService(job, PeriodicConfig{Interval: time.Hour})

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.SnapshotVersion.WithLabelValues("test_run_once")); got != 1 {
		t.Errorf("snapshot version = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SnapshotSize.WithLabelValues("test_run_once")); got != 10 {
		t.Errorf("snapshot size = %v, want 10", got)
	}

	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("second RunOnce() error = nil, want failure")
	}
	if got := testutil.ToFloat64(metrics.RebuildFailures.WithLabelValues("test_run_once")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SnapshotVersion.WithLabelValues("test_run_once")); got != 1 {
		t.Errorf("snapshot version after failure = %v, want 1", got)
	}
	if svc.Runs() != 2 || svc.Failures() != 1 {
		t.Errorf("Runs() = %d, Failures() = %d, want 2, 1", svc.Runs(), svc.Failures())
	}
}

func TestPeriodicService_Timeout(t *testing.T) {
	job := Job{
		Name: "test_timeout",
		Run: func(ctx context.Context) (Result, error) {
			<-ctx.Done()
			return Result{}, ctx.Err()
		},
	}
	svc := NewPeriodicService(job, PeriodicConfig{Timeout: 20 * time.Millisecond})

	if err := svc.RunOnce(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunOnce() error = %v, want deadline exceeded", err)
	}
}

func TestPeriodicService_BreakerStopsCalls(t *testing.T) {
	job, calls := countingJob("test_breaker", func(int32) bool { return true })
	cfg := events.DefaultBreakerConfig("test_breaker")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Minute
	svc := NewPeriodicService(job, PeriodicConfig{Breaker: events.NewCircuitBreaker(cfg)})

	for range 4 {
		_ = svc.RunOnce(context.Background())
	}
	if calls.Load() != 2 {
		t.Errorf("job called %d times, want 2", calls.Load())
	}
	if err := svc.RunOnce(context.Background()); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("RunOnce() error = %v, want %v", err, gobreaker.ErrOpenState)
	}
}

func TestPeriodicService_Serve(t *testing.T) {
	job, calls := countingJob("test_serve", nil)
	svc := NewPeriodicService(job, PeriodicConfig{Interval: 10 * time.Millisecond, RunOnStart: true})
	if svc.String() != "test_serve" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if calls.Load() < 3 {
		t.Errorf("job ran %d times, want at least 3", calls.Load())
	}
}
