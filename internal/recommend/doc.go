// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package recommend implements the hybrid ranker.
//
// # User States
//
// Every home request first classifies the user from their interaction
// profile:
//
//   - new: no events inside the history window
//   - active: at least one event, the newest inside the staleness horizon
//   - stale: the newest event is older than the staleness horizon
//
// Stale users are ranked exactly like new users but reported distinctly.
// Staleness only picks the branch; inside the active branch each event is
// still weighted by its own recency.
//
// # Signals
//
// Active users get three partial rankings gathered concurrently:
//
//   - clicked: similarity neighbors of clicked items, weighted by click recency
//   - search: catalog matches for recent searches, weighted by recency
//   - diversity: picks from categories under-represented in the other two
//
// Each signal is divided by its maximum, so it lands in (0, 1] and a weak
// but real signal stays positive. The composite is the weighted sum (0.5,
// 0.4, 0.1 by default). A signal that fails or has no data contributes zero.
//
// # Fallbacks
//
// An active user with an empty composite gets the trending items they have
// not clicked, with reason no_personal_signal. A search with no matches
// returns the co-occurring items of the user's last click followed by
// trending items, with reason no_search_matches, and is never empty while
// the catalog has items.
//
// # Thread Safety
//
// Ranker holds no mutable state of its own. It reads immutable snapshots
// from the catalog, similarity, popularity and rule components, so it is
// safe for concurrent use.
package recommend
