// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package similarity computes content-based item neighbors.
//
// Each item is described by its name and category path. Text is lowercased,
// split into tokens of two or more letters or digits, stripped of English
// stop words and expanded with bigrams. The vocabulary keeps the most
// frequent MaxFeatures terms. Items become TF-IDF vectors with smoothed IDF
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// and L2 normalization, so cosine similarity is a sparse dot product in
// [0, 1]. Only the TopK neighbors of each item are kept.
//
// # Thread Safety
//
// Rebuild computes a complete Snapshot off to the side and installs it with
// an atomic pointer swap. Neighbors reads whatever snapshot is current and
// never blocks on a rebuild. A failed or cancelled rebuild leaves the
// previous snapshot in place.
package similarity
