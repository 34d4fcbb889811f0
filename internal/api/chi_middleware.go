// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/metrics"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// IP rate limiting for every /api/v1 route.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// Per-user token bucket for interaction writes.
	UserWriteRate  float64
	UserWriteBurst int

	// UserLimiterIdle evicts a user's bucket after this long without writes.
	UserLimiterIdle time.Duration
}

// DefaultChiMiddlewareConfig returns the development defaults: the local
// frontend origin, 600 requests per minute per IP and 10 writes per second
// per user with a burst of 20.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 600,
		RateLimitWindow:   time.Minute,

		UserWriteRate:   10,
		UserWriteBurst:  20,
		UserLimiterIdle: 10 * time.Minute,
	}
}

// ChiMiddlewareConfigFrom builds the middleware config from the security
// and store sections.
func ChiMiddlewareConfigFrom(sec config.SecurityConfig, store config.StoreConfig) *ChiMiddlewareConfig {
	c := DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = sec.CORSOrigins
	c.RateLimitRequests = sec.RateLimitReqs
	c.RateLimitWindow = sec.RateLimitWindow
	c.RateLimitDisabled = sec.RateLimitDisabled
	if store.WriteRatePerUser > 0 {
		c.UserWriteRate = store.WriteRatePerUser
	}
	if store.WriteBurstPerUser > 0 {
		c.UserWriteBurst = store.WriteBurstPerUser
	}
	return c
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
	users  *UserLimiter
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: config.CORSAllowedMethods,
		AllowedHeaders: config.CORSAllowedHeaders,
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
		users:  NewUserLimiter(config.UserWriteRate, config.UserWriteBurst, config.UserLimiterIdle),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits requests per client IP with go-chi/httprate. It is a
// no-op when rate limiting is disabled.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit("ip")
			respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", nil)
		}),
	)
}

// Users returns the per-user write limiter.
func (m *ChiMiddleware) Users() *UserLimiter {
	return m.users
}

// UserLimiter keeps one token bucket per user. Idle buckets expire so the
// map stays bounded by the number of recently active writers.
type UserLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *ttlcache.Cache[string, *rate.Limiter]
}

// NewUserLimiter creates a limiter allowing perSecond sustained writes and
// burst immediate writes per user.
func NewUserLimiter(perSecond float64, burst int, idle time.Duration) *UserLimiter {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &UserLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		buckets: ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](idle),
		),
	}
}

// Allow reports whether userID may write now, consuming a token if so.
func (l *UserLimiter) Allow(userID string) bool {
	item := l.buckets.Get(userID)
	if item == nil {
		item, _ = l.buckets.GetOrSet(userID, rate.NewLimiter(l.limit, l.burst))
	}
	if item.Value().Allow() {
		return true
	}
	metrics.RecordRateLimitHit("user")
	return false
}

// Len returns the number of tracked users.
func (l *UserLimiter) Len() int {
	return l.buckets.Len()
}

// Serve runs the idle-bucket expiry loop until ctx is cancelled. It
// satisfies suture.Service.
func (l *UserLimiter) Serve(ctx context.Context) error {
	go l.buckets.Start()
	<-ctx.Done()
	l.buckets.Stop()
	return ctx.Err()
}

func (l *UserLimiter) String() string {
	return "user-write-limiter"
}
