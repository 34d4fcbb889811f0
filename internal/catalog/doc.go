// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package catalog holds the product catalog used by every ranking component.

The catalog lives in a DuckDB products table (DuckDBSource). CSV exports
are imported with read_csv: rows with malformed product IDs are skipped,
duplicate IDs are ignored and a missing discount_ratio is derived from the
two prices.

Ranking code never queries DuckDB. It reads an immutable Catalog snapshot
that carries precomputed orderings:

  - Trending: rating desc, rating count desc, ID asc
  - BestValue: discount ratio desc, rating desc, ID asc (priced items only)
  - per sub-category trending slices

Holder publishes snapshots through an atomic pointer. Refresh loads a new
version from a Source and swaps it in only after it is fully built.
*/
package catalog
