// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package services provides suture.Service implementations for Vitrine.

HTTPService runs the API server and shuts it down gracefully when its
context ends.

PeriodicService runs a Job on a ticker. Each run:

  - is bounded by an optional per-run timeout
  - goes through an optional gobreaker circuit breaker
  - records vitrine_rebuild_duration_seconds and, on success, the
    snapshot version and size gauges, or vitrine_rebuild_failures_total
    on failure

A failed run never replaces the component's current snapshot; the
components only swap in fully built snapshots.

The job constructors in jobs.go bind the catalog, similarity index,
co-occurrence miner, popularity tracker and interaction store to Jobs.
*/
package services
