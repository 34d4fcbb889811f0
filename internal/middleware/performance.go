// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/vitrine/internal/logging"
)

// RequestBudget bounds each request with a context deadline and logs the
// requests that overrun slowAfter. A zero budget leaves the context alone;
// a zero slowAfter disables slow-request logging.
//
// Handlers observe the deadline through r.Context(); the middleware never
// writes a response on their behalf.
func RequestBudget(budget, slowAfter time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if budget > 0 {
				ctx, cancel := context.WithTimeout(r.Context(), budget)
				defer cancel()
				r = r.WithContext(ctx)
			}

			start := time.Now()
			next.ServeHTTP(w, r)
			elapsed := time.Since(start)

			if slowAfter > 0 && elapsed > slowAfter {
				logging.Ctx(r.Context()).Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Dur("duration", elapsed).
					Dur("threshold", slowAfter).
					Msg("slow request")
			}
		})
	}
}
