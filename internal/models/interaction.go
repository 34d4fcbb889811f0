// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package models

import (
	"strings"
	"time"
)

// EventKind identifies the type of an interaction.
type EventKind string

const (
	// EventClick is a product view or click. Wire name: "product_click".
	EventClick EventKind = "product_click"
	// EventSearch is a free-text search. Wire name: "search_query".
	EventSearch EventKind = "search_query"
)

// ParseEventKind accepts the wire names plus the short aliases "click" and
// "search".
func ParseEventKind(s string) (EventKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product_click", "click":
		return EventClick, true
	case "search_query", "search":
		return EventSearch, true
	default:
		return "", false
	}
}

// InteractionEvent is one append-only user interaction.
type InteractionEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      EventKind `json:"event_type"`
	ItemID    string    `json:"product_id,omitempty"`
	Query     string    `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the event invariants: a well-formed user ID, an item ID
// on clicks, and a non-empty bounded query on searches.
func (e *InteractionEvent) Validate() error {
	if !UserIDPattern.MatchString(e.UserID) {
		return NewValidationError("user_id", "must be 1-50 alphanumeric characters")
	}
	switch e.Kind {
	case EventClick:
		if !ItemIDPattern.MatchString(e.ItemID) {
			return NewValidationError("product_id", "click events require a 10-character uppercase alphanumeric product ID")
		}
	case EventSearch:
		q := strings.TrimSpace(e.Query)
		if q == "" {
			return NewValidationError("query", "search events require a non-empty query")
		}
		if len([]rune(q)) > MaxQueryLength {
			return NewValidationError("query", "query exceeds 255 characters")
		}
	default:
		return NewValidationError("event_type", "must be product_click or search_query")
	}
	return nil
}
