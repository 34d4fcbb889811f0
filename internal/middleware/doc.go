// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package middleware provides chi-compatible HTTP middleware for the Vitrine API.

Key Components:

  - RequestID: reuses or generates X-Request-ID and seeds the logging context
    with request and correlation IDs
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - RequestBudget: per-request context deadline plus slow-request logging

Middleware Stack:

The API router installs them as:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(httprate limiter)
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.RequestBudget(cfg.Server.RequestTimeout, slow))
	    ...
	})

All components are safe for concurrent use.
*/
package middleware
