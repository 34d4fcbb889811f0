// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package logging provides the zerolog-based structured logger used across
// Vitrine.
//
// A single global logger is configured once from main via Init and stamps
// every line with the service name and build version. Components derive
// child loggers with WithComponent. Request handlers tag the context with
// ContextWithUserID, and Ctx or WithContext then attach the request,
// correlation and user IDs. The suture supervisor takes a *slog.Logger;
// NewComponentSlogLogger bridges it into the same zerolog stream.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	ctx = logging.ContextWithUserID(ctx, uid)
//	logging.Ctx(ctx).Debug().Msg("user state resolved")
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
package logging
