// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package query normalizes free-text searches, expands them with synonyms
// and matches them against catalog items.
//
// A query is trimmed and lowercased, then split on whitespace and
// punctuation. Each term may have one synonym (earbuds → earphones by
// default). An item matches a term when the term or its synonym occurs as a
// substring of the item's name or category path. The overlap score is the
// fraction of query terms matched, so it lies in (0, 1] for every returned
// item.
package query
