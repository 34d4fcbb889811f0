// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package api exposes the recommendation core over HTTP using the chi router.

Routes (all JSON, wrapped in models.APIResponse):

	GET  /api/v1/recommendations/home?user_id=&limit=
	GET  /api/v1/recommendations/product/{itemID}?limit=
	GET  /api/v1/recommendations/search?query=&limit=&user_id=
	POST /api/v1/interactions                      -> 204
	GET  /api/v1/interactions/{userID}?days=
	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /metrics

Request parameters are parsed and then validated with go-playground/validator
using the custom userid, itemid, searchquery and eventtype tags. Limits and
day windows outside their range are clamped; a non-numeric value is a 400.

Errors map as follows:

	*models.ValidationError -> 400 VALIDATION_ERROR
	*models.NotFoundError   -> 404 NOT_FOUND
	rate limit               -> 429 RATE_LIMIT_EXCEEDED
	anything else           -> 500 INTERNAL_ERROR

Middleware order: request ID, real IP, panic recovery, CORS, response
compression, then per-route IP rate limiting (httprate), Prometheus metrics
and the request budget. Interaction writes are additionally limited per user
with golang.org/x/time/rate.
*/
package api
