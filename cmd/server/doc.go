// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package main is the entry point for the Vitrine recommendation server.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config file and environment (Koanf v2)
//  2. Catalog: DuckDB product table, optional CSV import, first snapshot
//  3. Interaction store: BadgerDB with per-event TTL
//  4. Snapshots: similarity index, popularity seed, co-occurrence rules
//  5. Event bus: in-process Watermill channel, or NATS JetStream
//  6. Ranker and HTTP API (chi)
//  7. Supervisor tree: data, jobs and API layers (suture v4)
//
// Startup fails fast when the catalog cannot be loaded or the store cannot
// be opened. A failed initial rebuild of a derived snapshot is logged and
// retried by its periodic job; /api/v1/health/ready reports 503 until every
// snapshot has been published.
//
// # Build Tags
//
//	go build ./cmd/server                 # in-process event bus only
//	go build -tags nats ./cmd/server      # NATS JetStream transport
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops every
// service, waiting up to SUPERVISOR_SHUTDOWN_TIMEOUT for each, and reports
// any service that failed to stop. The event bus, the store and the catalog
// database are closed afterwards.
//
// # Example Usage
//
//	export DUCKDB_PATH=/data/catalog.duckdb
//	export CATALOG_IMPORT_CSV=/data/products.csv
//	export BADGER_PATH=/data/interactions
//	./vitrine
//
// With an embedded NATS server:
//
//	export NATS_ENABLED=true
//	export NATS_EMBEDDED=true
//	./vitrine
package main
