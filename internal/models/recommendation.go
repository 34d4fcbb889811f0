// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package models

// UserState classifies a user for ranking purposes.
type UserState string

const (
	// UserStateNew has no interactions inside the retention window.
	UserStateNew UserState = "new"
	// UserStateActive has recent interactions and gets a personalized feed.
	UserStateActive UserState = "active"
	// UserStateStale interacted once but not within the staleness horizon.
	// Stale users are ranked like new users.
	UserStateStale UserState = "stale"
)

// Signal names used in score breakdowns.
const (
	SignalClicked     = "clicked"
	SignalSearch      = "search"
	SignalDiversity   = "diversity"
	SignalSimilarity  = "similarity"
	SignalMatch       = "match"
	SignalCoOccurring = "co_occurring"
	SignalPopularity  = "popularity"
)

// Fallback reasons attached to result lists that did not come from the
// primary signal.
const (
	FallbackNoSearchMatches  = "no_search_matches"
	FallbackNoPersonalSignal = "no_personal_signal"
)

// RankedItem is one entry of a ranked list with its composite score and
// the per-signal contributions that produced it.
type RankedItem struct {
	ItemSummary
	Score   float64            `json:"score"`
	Signals map[string]float64 `json:"signals,omitempty"`
}

// HomeResponse is the home-feed payload.
type HomeResponse struct {
	UserState      UserState                `json:"user_state"`
	Personalized   []RankedItem             `json:"personalized"`
	Trending       []ItemSummary            `json:"trending"`
	BestValue      []ItemSummary            `json:"best_value"`
	TopCategories  map[string][]ItemSummary `json:"top_categories"`
	DiversePicks   []ItemSummary            `json:"diverse_picks"`
	FallbackReason string                   `json:"fallback_reason,omitempty"`
}

// SimilarResponse is the similar-items payload.
type SimilarResponse struct {
	ItemID  string       `json:"item_id"`
	Similar []RankedItem `json:"similar"`
}

// SearchResponse is the search payload. ExpandedTerms lists the tokens
// actually matched against the catalog after synonym expansion.
type SearchResponse struct {
	Query          string       `json:"query"`
	ExpandedTerms  []string     `json:"expanded_terms"`
	Results        []RankedItem `json:"results"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
}

// InteractionsResponse lists a user's recent interactions.
type InteractionsResponse struct {
	UserID string             `json:"user_id"`
	Days   int                `json:"days"`
	Events []InteractionEvent `json:"events"`
}
