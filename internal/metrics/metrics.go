// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog (DuckDB) metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"scope"}, // "ip" or "user"
	)

	// Ranking metrics
	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_rank_duration_seconds",
			Help:    "Time spent producing one ranked response",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.25, 0.5},
		},
		[]string{"mode"}, // home, similar, search
	)

	RankFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_rank_fallbacks_total",
			Help: "Ranked responses served from a fallback source",
		},
		[]string{"mode", "reason"},
	)

	UserStates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_user_state_total",
			Help: "Home feed requests by resolved user state",
		},
		[]string{"state"},
	)

	SignalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_signal_errors_total",
			Help: "Signal lookups that failed and contributed zero",
		},
		[]string{"signal"},
	)

	// Interaction store metrics
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_interactions_recorded_total",
			Help: "Interactions durably written",
		},
		[]string{"kind"},
	)

	InteractionWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitrine_interaction_write_duration_seconds",
			Help:    "Durable write latency of one interaction",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	InteractionWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_interaction_write_errors_total",
			Help: "Interaction writes that failed after validation",
		},
	)

	// Profile cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Snapshot rebuild metrics
	RebuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_rebuild_duration_seconds",
			Help:    "Duration of snapshot rebuild jobs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"job"},
	)

	RebuildFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_rebuild_failures_total",
			Help: "Rebuild attempts that failed; the prior snapshot stayed live",
		},
		[]string{"job"},
	)

	RebuildLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitrine_rebuild_last_success_timestamp",
			Help: "Unix time of the last successful rebuild",
		},
		[]string{"job"},
	)

	SnapshotVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitrine_snapshot_version",
			Help: "Version number of the live snapshot",
		},
		[]string{"snapshot"},
	)

	SnapshotSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitrine_snapshot_size",
			Help: "Entries in the live snapshot (items, edges, rules)",
		},
		[]string{"snapshot"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_events_published_total",
			Help: "Interaction events published to the bus",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_events_consumed_total",
			Help: "Interaction events handled by consumers",
		},
		[]string{"topic", "result"}, // result: "ack", "nack"
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a catalog query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyError(err)).Inc()
	}
}

// classifyError keeps error_type cardinality bounded.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case strings.Contains(strings.ToLower(err.Error()), "conversion"):
		return "conversion"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRank records one ranked response. reason is "" when no fallback
// was used.
func RecordRank(mode string, duration time.Duration, reason string) {
	RankDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if reason != "" {
		RankFallbacks.WithLabelValues(mode, reason).Inc()
	}
}

// RecordUserState counts a resolved user state.
func RecordUserState(state string) {
	UserStates.WithLabelValues(state).Inc()
}

// RecordSignalError counts a signal that degraded to zero.
func RecordSignalError(signal string) {
	SignalErrors.WithLabelValues(signal).Inc()
}

// RecordInteraction records a successful durable write.
func RecordInteraction(kind string, duration time.Duration) {
	InteractionsRecorded.WithLabelValues(kind).Inc()
	InteractionWriteDuration.Observe(duration.Seconds())
}

// RecordInteractionError records a failed write.
func RecordInteractionError() {
	InteractionWriteErrors.Inc()
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordRebuild records one rebuild attempt. On success the snapshot
// version and size gauges are updated.
func RecordRebuild(job string, duration time.Duration, err error, version uint64, size int) {
	RebuildDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		RebuildFailures.WithLabelValues(job).Inc()
		return
	}
	RebuildLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	SnapshotVersion.WithLabelValues(job).Set(float64(version))
	SnapshotSize.WithLabelValues(job).Set(float64(size))
}

// RecordCircuitBreakerTransition records a gobreaker state change.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordEventPublished counts a published event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed counts a handled event.
func RecordEventConsumed(topic string, ok bool) {
	result := "ack"
	if !ok {
		result = "nack"
	}
	EventsConsumed.WithLabelValues(topic, result).Inc()
}

// RecordRateLimitHit counts a rejected request. scope is "ip" or "user".
func RecordRateLimitHit(scope string) {
	APIRateLimitHits.WithLabelValues(scope).Inc()
}

// SetAppInfo publishes the build information gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
