// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/metrics"
)

// Result describes the snapshot a job produced.
type Result struct {
	Version uint64
	Size    int
}

// Job is one unit of periodic work. Name labels the job's metrics and logs.
type Job struct {
	Name string
	Run  func(ctx context.Context) (Result, error)
}

// PeriodicConfig holds scheduling settings for a PeriodicService.
type PeriodicConfig struct {
	Interval time.Duration

	// RunOnStart runs the job once before the first tick.
	RunOnStart bool

	// Timeout bounds a single run. Zero means no bound beyond ctx.
	Timeout time.Duration

	// Breaker, when set, stops calling a job that keeps failing.
	Breaker *gobreaker.CircuitBreaker[any]
}

// PeriodicService runs a Job on a ticker under suture. A failed run is
// logged and counted; the job's previous snapshot stays in place and the
// service keeps ticking.
type PeriodicService struct {
	job    Job
	cfg    PeriodicConfig
	logger zerolog.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

// NewPeriodicService creates the service. A non-positive interval means 1h.
func NewPeriodicService(job Job, cfg PeriodicConfig) *PeriodicService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &PeriodicService{
		job:    job,
		cfg:    cfg,
		logger: logging.WithComponent("jobs").With().Str("job", job.Name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	s.logger.Debug().
		Dur("interval", s.cfg.Interval).
		Bool("run_on_start", s.cfg.RunOnStart).
		Msg("job scheduled")

	if s.cfg.RunOnStart {
		_ = s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job once and records the outcome.
func (s *PeriodicService) RunOnce(ctx context.Context) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.execute(ctx)
	duration := time.Since(start)
	s.runs.Add(1)

	metrics.RecordRebuild(s.job.Name, duration, err, res.Version, res.Size)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.failures.Add(1)
		s.logger.Warn().Err(err).Msg("job skipped, circuit open")
	case err != nil:
		s.failures.Add(1)
		s.logger.Error().Err(err).Dur("duration", duration).Msg("job failed, keeping previous snapshot")
	default:
		s.logger.Info().
			Uint64("version", res.Version).
			Int("size", res.Size).
			Dur("duration", duration).
			Msg("job complete")
	}
	return err
}

func (s *PeriodicService) execute(ctx context.Context) (Result, error) {
	if s.cfg.Breaker == nil {
		return s.job.Run(ctx)
	}
	out, err := s.cfg.Breaker.Execute(func() (any, error) {
		return s.job.Run(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	res, ok := out.(Result)
	if !ok {
		return Result{}, fmt.Errorf("job %s returned %T", s.job.Name, out)
	}
	return res, nil
}

// Runs returns the number of completed runs, successful or not.
func (s *PeriodicService) Runs() int64 { return s.runs.Load() }

// Failures returns the number of failed runs.
func (s *PeriodicService) Failures() int64 { return s.failures.Load() }

func (s *PeriodicService) String() string {
	return s.job.Name
}
