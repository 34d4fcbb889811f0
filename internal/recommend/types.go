// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"context"
	"iter"
	"time"

	"github.com/tomtom215/vitrine/internal/cooccurrence"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/popularity"
	"github.com/tomtom215/vitrine/internal/similarity"
)

// Neighbors supplies content similarity edges.
type Neighbors interface {
	Neighbors(itemID string, limit int) ([]similarity.Edge, error)
}

// Popularity supplies decayed popularity.
type Popularity interface {
	Top(n int) []popularity.Score
	TopSubCategories(n int) []string
}

// Rules supplies association rules.
type Rules interface {
	CoOccurring(itemID string, limit int) []cooccurrence.Rule
}

// Profiles supplies cached user profiles.
type Profiles interface {
	Get(ctx context.Context, userID string) (*interactions.Profile, error)
	Invalidate(userID string)
}

// EventStore is the interaction log.
type EventStore interface {
	Record(ctx context.Context, ev models.InteractionEvent) (models.InteractionEvent, error)
	Read(ctx context.Context, userID string, windowDays int) iter.Seq2[models.InteractionEvent, error]
}

// Publisher announces recorded interactions to asynchronous consumers.
type Publisher interface {
	PublishInteraction(ctx context.Context, ev models.InteractionEvent) error
}

// ResolveState classifies a profile at now.
func ResolveState(p *interactions.Profile, now time.Time, horizon time.Duration) models.UserState {
	switch {
	case p.Empty():
		return models.UserStateNew
	case now.Sub(p.LastEvent) > horizon:
		return models.UserStateStale
	default:
		return models.UserStateActive
	}
}

// scores maps item IDs to one signal's raw scores.
type scores map[string]float64
