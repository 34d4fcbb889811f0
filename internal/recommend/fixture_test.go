// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/cooccurrence"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/popularity"
	"github.com/tomtom215/vitrine/internal/query"
	"github.com/tomtom215/vitrine/internal/similarity"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func now() time.Time { return t0 }

// Trending order: K1, H3, H1, E2, H2, E1, W1, W2.
func testCatalogItems() []models.Item {
	return []models.Item{
		{ID: "H000000001", Name: "Oak Coffee Table", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.5, RatingCount: 100, Price: 90, OriginalPrice: 100},
		{ID: "H000000002", Name: "Walnut Coffee Table", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.2, RatingCount: 50, Price: 50, OriginalPrice: 100},
		{ID: "H000000003", Name: "Floor Lamp", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.8, RatingCount: 10},
		{ID: "W000000001", Name: "Steel Analog Watch", MainCategory: "Accessories", SubCategory: "Watches", Rating: 4.0, RatingCount: 30, Price: 60, OriginalPrice: 80},
		{ID: "W000000002", Name: "Leather Strap Watch", MainCategory: "Accessories", SubCategory: "Watches", Rating: 3.5, RatingCount: 300},
		{ID: "E000000001", Name: "Wireless Earphones", MainCategory: "Electronics", SubCategory: "Headphones", Rating: 4.1, RatingCount: 20},
		{ID: "E000000002", Name: "Noise Cancelling Earphones", MainCategory: "Electronics", SubCategory: "Headphones", Rating: 4.4, RatingCount: 200},
		{ID: "K000000001", Name: "Chef Knife Set", MainCategory: "Kitchen", SubCategory: "Cookware", Rating: 4.9, RatingCount: 5},
	}
}

type fixture struct {
	deps     Deps
	store    *interactions.BadgerStore
	miner    *cooccurrence.Miner
	profiles *interactions.ProfileCache
}

func newFixture(t *testing.T, items []models.Item) *fixture {
	t.Helper()

	store, err := interactions.Open(interactions.Config{InMemory: true, Now: now})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	holder := catalog.NewHolder(catalog.New(1, items))

	idx := similarity.NewIndex(similarity.DefaultConfig())
	if _, err := idx.Rebuild(context.Background(), holder.Load().Items()); err != nil {
		t.Fatalf("rebuild similarity: %v", err)
	}

	profiles := interactions.NewProfileCache(time.Minute, 0,
		interactions.StoreLoader(store, 90, interactions.Weighting{Decay: 0.95, Period: 24 * time.Hour}, now))
	miner := cooccurrence.NewMiner(cooccurrence.DefaultConfig())

	return &fixture{
		deps: Deps{
			Catalog:    holder,
			Store:      store,
			Profiles:   profiles,
			Similarity: idx,
			Popularity: popularity.NewTracker(popularity.DefaultConfig(), holder),
			Rules:      miner,
			Expander:   query.NewExpander(nil),
		},
		store:    store,
		miner:    miner,
		profiles: profiles,
	}
}

func (f *fixture) ranker(t *testing.T) *Ranker {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Now = now
	r, err := NewRanker(cfg, f.deps)
	if err != nil {
		t.Fatalf("NewRanker() error = %v", err)
	}
	return r
}

func (f *fixture) click(t *testing.T, user, item string, at time.Time) {
	t.Helper()
	_, err := f.store.Record(context.Background(), models.InteractionEvent{
		UserID: user, Kind: models.EventClick, ItemID: item, Timestamp: at,
	})
	if err != nil {
		t.Fatalf("record click: %v", err)
	}
}

func (f *fixture) search(t *testing.T, user, q string, at time.Time) {
	t.Helper()
	_, err := f.store.Record(context.Background(), models.InteractionEvent{
		UserID: user, Kind: models.EventSearch, Query: q, Timestamp: at,
	})
	if err != nil {
		t.Fatalf("record search: %v", err)
	}
}

func rankedIDs(items []models.RankedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func summaryIDs(items []models.ItemSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.InteractionEvent
	err    error
}

func (p *recordingPublisher) PublishInteraction(_ context.Context, ev models.InteractionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type failingNeighbors struct{ err error }

func (f failingNeighbors) Neighbors(string, int) ([]similarity.Edge, error) { return nil, f.err }
