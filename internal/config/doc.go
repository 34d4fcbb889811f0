// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package config loads and validates Vitrine configuration.

Configuration is layered with koanf v2: struct defaults, then an optional
YAML file, then environment variables. The file is found via CONFIG_PATH or
the first existing entry of DefaultConfigPaths.

# Sections

  - server: HTTP listener and per-request timeout
  - catalog: DuckDB product catalog and optional CSV import
  - store: BadgerDB interaction store, retention and per-user write limits
  - similarity, popularity, cooccurrence, query, ranker: signal and ranking tuning
  - nats: optional NATS JetStream transport for interaction events
  - security: CORS origins and request rate limiting
  - supervisor: suture restart policy
  - logging: zerolog level and format

# Environment Variables

Selected mappings (see envMappings for the full list):

  - HTTP_PORT, HTTP_HOST: listener address (default 0.0.0.0:8080)
  - DUCKDB_PATH, CATALOG_IMPORT_CSV: catalog database and seed CSV
  - BADGER_PATH, STORE_IN_MEMORY: interaction store location
  - RECOMMEND_DECAY_FACTOR: popularity decay per period (default 0.95)
  - SEARCH_SYNONYMS: comma-separated from:to pairs
  - NATS_ENABLED, NATS_URL, NATS_EMBEDDED: event transport
  - LOG_LEVEL, LOG_FORMAT, LOG_DEBUG_SAMPLE: logging

Slice values (CORS_ORIGINS, SEARCH_SYNONYMS, RANKER_TOP_CATEGORIES) are
comma-separated in the environment and YAML lists in the file.
*/
package config
