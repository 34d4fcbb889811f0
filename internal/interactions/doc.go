// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package interactions is the durable per-user interaction log.
//
// Events are stored in a single BadgerDB keyspace partitioned by user:
//
//	ix/<userID>/<unix-nanos, 8 bytes big-endian>
//
// so one user's events are contiguous and timestamp-ordered, and a window
// read is a single prefix seek. Writes for the same user are serialized by a
// per-user lock; timestamps are made strictly increasing per user so two
// events never share a key. Every write is fsynced before Record returns
// (SyncWrites) unless the store runs in memory.
//
// Profile derives the per-user view the ranker consumes (clicked items and
// search queries weighted by recency), and ProfileCache keeps recently used
// profiles in a TTL cache that Record callers invalidate.
package interactions
