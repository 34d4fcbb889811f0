// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/models"
)

// maxBodyBytes caps the interaction POST body.
const maxBodyBytes = 64 << 10

// Bounds is a default and an inclusive [1, Max] clamp range for a numeric
// query parameter.
type Bounds struct {
	Default int
	Max     int
}

// Clamp applies the bounds to v.
func (b Bounds) Clamp(v int) int {
	switch {
	case v < 1:
		return 1
	case v > b.Max:
		return b.Max
	default:
		return v
	}
}

// Limits groups the per-endpoint parameter bounds.
type Limits struct {
	Home   Bounds
	Search Bounds
	Days   Bounds
}

// DefaultLimits returns home/similar [1,60] default 20, search [1,6000]
// default 2000 and days [1,365] default 30.
func DefaultLimits() Limits {
	return Limits{
		Home:   Bounds{Default: 20, Max: 60},
		Search: Bounds{Default: 2000, Max: 6000},
		Days:   Bounds{Default: 30, Max: 365},
	}
}

// LimitsFrom reads the bounds from the ranker config, keeping defaults for
// unset values.
func LimitsFrom(cfg config.RankerConfig) Limits {
	l := DefaultLimits()
	set := func(b *Bounds, def, maxV int) {
		if maxV > 0 {
			b.Max = maxV
		}
		if def > 0 {
			b.Default = def
		}
		b.Default = min(b.Default, b.Max)
	}
	set(&l.Home, cfg.DefaultLimit, cfg.MaxLimit)
	set(&l.Search, cfg.SearchDefaultLimit, cfg.SearchMaxLimit)
	set(&l.Days, cfg.DefaultDays, cfg.MaxDays)
	return l
}

// HomeRequest holds the query parameters of the home feed.
type HomeRequest struct {
	UserID string `query:"user_id" validate:"omitempty,userid"`
	Limit  int    `query:"limit" validate:"min=1"`
}

// SimilarRequest holds the parameters of the similar-items endpoint.
type SimilarRequest struct {
	ItemID string `query:"item_id" validate:"required,itemref"`
	Limit  int    `query:"limit" validate:"min=1"`
}

// SearchRequest holds the query parameters of the search endpoint.
type SearchRequest struct {
	Query  string `query:"query" validate:"searchquery"`
	UserID string `query:"user_id" validate:"omitempty,userid"`
	Limit  int    `query:"limit" validate:"min=1"`
}

// InteractionRequest is the POST /interactions body. Whether product_id or
// query is required depends on event_type and is checked by
// models.InteractionEvent.Validate.
type InteractionRequest struct {
	UserID    string `json:"user_id" validate:"required,userid"`
	EventType string `json:"event_type" validate:"required,eventtype"`
	ProductID string `json:"product_id" validate:"omitempty,itemid"`
	Query     string `json:"query" validate:"omitempty,max=255"`
}

// Event converts the request into an interaction event. The store assigns
// ID and timestamp.
func (req *InteractionRequest) Event() models.InteractionEvent {
	kind, _ := models.ParseEventKind(req.EventType)
	ev := models.InteractionEvent{UserID: req.UserID, Kind: kind}
	switch kind {
	case models.EventClick:
		ev.ItemID = req.ProductID
	case models.EventSearch:
		ev.Query = strings.TrimSpace(req.Query)
	}
	return ev
}

// InteractionsRequest holds the parameters of the interaction history
// endpoint.
type InteractionsRequest struct {
	UserID string `query:"user_id" validate:"required,userid"`
	Days   int    `query:"days" validate:"min=1"`
}

// parseBoundedInt reads key from the query string. An absent value yields
// b.Default, a non-numeric one a validation error, anything else is clamped.
func parseBoundedInt(r *http.Request, key string, b Bounds) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return b.Default, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(key, "must be an integer")
	}
	return b.Clamp(v), nil
}
