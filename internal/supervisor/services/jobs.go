// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package services

import (
	"context"
	"iter"
	"time"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/cooccurrence"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/popularity"
	"github.com/tomtom215/vitrine/internal/similarity"
)

// Job names, used as the {job} metric label.
const (
	JobCatalog        = "catalog"
	JobSimilarity     = "similarity"
	JobCoOccurrence   = "cooccurrence"
	JobPopularitySeed = "popularity_seed"
	JobPopularityTick = "popularity_tick"
	JobStoreGC        = "store_gc"
)

// EventScanner reads every user's interactions since a point in time.
type EventScanner interface {
	Scan(ctx context.Context, since time.Time) iter.Seq2[models.InteractionEvent, error]
}

// GarbageCollector reclaims storage.
type GarbageCollector interface {
	RunGC() error
}

func windowStart(now time.Time, days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// CatalogRefreshJob reloads the catalog from src.
func CatalogRefreshJob(holder *catalog.Holder, src catalog.Source) Job {
	return Job{
		Name: JobCatalog,
		Run: func(ctx context.Context) (Result, error) {
			c, err := holder.Refresh(ctx, src)
			if err != nil {
				return Result{}, err
			}
			return Result{Version: c.Version(), Size: c.Len()}, nil
		},
	}
}

// SimilarityJob rebuilds the neighbor index over the current catalog.
func SimilarityJob(idx *similarity.Index, holder *catalog.Holder) Job {
	return Job{
		Name: JobSimilarity,
		Run: func(ctx context.Context) (Result, error) {
			snap, err := idx.Rebuild(ctx, holder.Load().Items())
			if err != nil {
				return Result{}, err
			}
			return Result{Version: snap.Version(), Size: snap.Len()}, nil
		},
	}
}

// CoOccurrenceJob re-mines association rules from the last windowDays of
// interactions. windowDays <= 0 scans everything.
func CoOccurrenceJob(m *cooccurrence.Miner, events EventScanner, windowDays int, now func() time.Time) Job {
	return Job{
		Name: JobCoOccurrence,
		Run: func(ctx context.Context) (Result, error) {
			snap, err := m.Rebuild(ctx, events.Scan(ctx, windowStart(now(), windowDays)))
			if err != nil {
				return Result{}, err
			}
			return Result{Version: snap.Version(), Size: snap.Len()}, nil
		},
	}
}

// PopularitySeedJob replays the last windowDays of interactions into the
// tracker, replacing its scores.
func PopularitySeedJob(t *popularity.Tracker, events EventScanner, windowDays int, now func() time.Time) Job {
	return Job{
		Name: JobPopularitySeed,
		Run: func(ctx context.Context) (Result, error) {
			at := now()
			snap, err := t.Seed(ctx, events.Scan(ctx, windowStart(at, windowDays)), at)
			if err != nil {
				return Result{}, err
			}
			return Result{Version: snap.Version(), Size: snap.Len()}, nil
		},
	}
}

// PopularityTickJob decays the tracker and folds in pending clicks.
func PopularityTickJob(t *popularity.Tracker, now func() time.Time) Job {
	return Job{
		Name: JobPopularityTick,
		Run: func(ctx context.Context) (Result, error) {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			snap := t.Tick(now())
			return Result{Version: snap.Version(), Size: snap.Len()}, nil
		},
	}
}

// StoreGCJob runs value-log garbage collection.
func StoreGCJob(gc GarbageCollector) Job {
	return Job{
		Name: JobStoreGC,
		Run: func(context.Context) (Result, error) {
			return Result{}, gc.RunGC()
		},
	}
}
