// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package popularity tracks time-decayed item popularity.
//
// An item's score is the sum over its click events of decay^age, where age
// is measured in whole periods:
//
//	score(item) = Σ decay^floor(age / period)
//
// Fresh clicks arrive through Observe and accumulate in a pending counter.
// Tick, run once per period, multiplies every score by decay, adds the
// pending counts and publishes a new Snapshot. Seed rebuilds the scores
// from the interaction log on start-up and on the daily reseed.
//
// Readers load the current snapshot through an atomic pointer and never
// wait on a tick.
package popularity
