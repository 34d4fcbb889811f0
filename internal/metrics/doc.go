// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package metrics defines Vitrine's Prometheus metrics.

All collectors are registered on the default registry through promauto and
exposed at /metrics. Components record through the Record* helpers rather
than touching collectors directly.

# Available Metrics

Ranking:
  - vitrine_rank_duration_seconds{mode}
  - vitrine_rank_fallbacks_total{mode, reason}
  - vitrine_user_state_total{state}
  - vitrine_signal_errors_total{signal}

Interactions:
  - vitrine_interactions_recorded_total{kind}
  - vitrine_interaction_write_duration_seconds
  - vitrine_interaction_write_errors_total

Snapshots:
  - vitrine_rebuild_duration_seconds{job}
  - vitrine_rebuild_failures_total{job}
  - vitrine_snapshot_version{snapshot}
  - vitrine_snapshot_size{snapshot}

HTTP, catalog, cache, circuit breaker and event bus metrics follow the
api_*, duckdb_*, cache_*, circuit_breaker_* and vitrine_events_* names.
*/
package metrics
