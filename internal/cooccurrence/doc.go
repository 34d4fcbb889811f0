// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package cooccurrence mines association rules between items that users
// click together.
//
// A transaction is the set of distinct items one user clicked within a
// session; a new session starts when two consecutive clicks are more than
// SessionGap apart. Transactions with fewer than two items carry no pair
// information and are skipped.
//
// An itemset is frequent when both its support fraction and its support
// count reach the configured minimums. Every frequent pair {A, B} yields the
// directional rules A→B and B→A, kept when
//
//	confidence(A→B) = support(A ∪ B) / support(A) >= MinConfidence
//
// Lift is recorded on each rule for observability.
//
// Rebuild mines a complete Snapshot and swaps it in atomically; on failure
// the previous rules stay live.
package cooccurrence
