// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package interactions

import (
	"iter"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/vitrine/internal/models"
)

// Profile is the derived view of one user's recent interactions.
type Profile struct {
	UserID string

	// Clicks maps each clicked item to the sum of its click recency weights.
	Clicks map[string]float64

	// Searches maps each normalized query to the sum of its recency weights.
	Searches map[string]float64

	// LastClick is the most recently clicked item, "" when there is none.
	LastClick string

	// LastEvent is the timestamp of the newest event; zero when Events is 0.
	LastEvent time.Time

	Events int
}

// Empty reports whether the profile holds no events.
func (p *Profile) Empty() bool {
	return p == nil || p.Events == 0
}

// Weighting converts event age into a recency weight decay^(age/period).
type Weighting struct {
	Decay  float64
	Period time.Duration
}

// Weight returns the recency weight of an event of the given age. Weights
// are in (0, 1] and strictly decrease with age when Decay < 1.
func (w Weighting) Weight(age time.Duration) float64 {
	if age <= 0 || w.Period <= 0 {
		return 1
	}
	return math.Pow(w.Decay, float64(age)/float64(w.Period))
}

// BuildProfile folds an ordered event sequence into a Profile.
func BuildProfile(userID string, events iter.Seq2[models.InteractionEvent, error], now time.Time, w Weighting) (*Profile, error) {
	p := &Profile{
		UserID:   userID,
		Clicks:   make(map[string]float64),
		Searches: make(map[string]float64),
	}
	for ev, err := range events {
		if err != nil {
			return nil, err
		}
		weight := w.Weight(now.Sub(ev.Timestamp))
		switch ev.Kind {
		case models.EventClick:
			p.Clicks[ev.ItemID] += weight
			p.LastClick = ev.ItemID
		case models.EventSearch:
			if q := normalizeQuery(ev.Query); q != "" {
				p.Searches[q] += weight
			}
		}
		p.Events++
		if ev.Timestamp.After(p.LastEvent) {
			p.LastEvent = ev.Timestamp
		}
	}
	return p, nil
}

// normalizeQuery lowercases q and collapses runs of whitespace.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
