// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package services

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/cooccurrence"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/popularity"
	"github.com/tomtom215/vitrine/internal/similarity"
)

var jobNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return jobNow }

type staticSource struct {
	items []models.Item
	err   error
}

func (s staticSource) LoadItems(context.Context) ([]models.Item, error) {
	return s.items, s.err
}

type sliceScanner struct {
	events []models.InteractionEvent
	since  time.Time
}

func (s *sliceScanner) Scan(_ context.Context, since time.Time) iter.Seq2[models.InteractionEvent, error] {
	s.since = since
	return func(yield func(models.InteractionEvent, error) bool) {
		for _, ev := range s.events {
			if ev.Timestamp.Before(since) {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func jobItems() []models.Item {
	return []models.Item{
		{ID: "A000000001", Name: "Oak Coffee Table", SubCategory: "Furniture", Rating: 4.5},
		{ID: "A000000002", Name: "Walnut Coffee Table", SubCategory: "Furniture", Rating: 4.0},
		{ID: "A000000003", Name: "Desk Lamp", SubCategory: "Lighting", Rating: 3.0},
	}
}

func clickAt(user, item string, at time.Time) models.InteractionEvent {
	return models.InteractionEvent{UserID: user, Kind: models.EventClick, ItemID: item, Timestamp: at}
}

func TestCatalogAndSimilarityJobs(t *testing.T) {
	holder := catalog.NewHolder(nil)
	idx := similarity.NewIndex(similarity.DefaultConfig())

	res, err := CatalogRefreshJob(holder, staticSource{items: jobItems()}).Run(context.Background())
	if err != nil {
		t.Fatalf("catalog job error = %v", err)
	}
	if res.Version != 1 || res.Size != 3 {
		t.Errorf("catalog result = %+v, want version 1 size 3", res)
	}

	res, err = SimilarityJob(idx, holder).Run(context.Background())
	if err != nil {
		t.Fatalf("similarity job error = %v", err)
	}
	if res.Size != 3 {
		t.Errorf("similarity size = %d, want 3", res.Size)
	}
	edges, err := idx.Neighbors("A000000001", 1)
	if err != nil || len(edges) != 1 || edges[0].To != "A000000002" {
		t.Errorf("Neighbors() = %v, %v", edges, err)
	}

	_, err = CatalogRefreshJob(holder, staticSource{err: errors.New("duckdb closed")}).Run(context.Background())
	if err == nil {
		t.Fatal("catalog job with failing source error = nil")
	}
	if holder.Load().Version() != 1 {
		t.Errorf("catalog version after failure = %d, want 1", holder.Load().Version())
	}
}

func TestCoOccurrenceJob_Window(t *testing.T) {
	old := jobNow.AddDate(0, 0, -40)
	scanner := &sliceScanner{events: []models.InteractionEvent{
		clickAt("u1", "A000000001", old), clickAt("u1", "A000000003", old.Add(time.Minute)),
		clickAt("u2", "A000000001", jobNow.Add(-2*time.Hour)), clickAt("u2", "A000000002", jobNow.Add(-time.Hour)),
		clickAt("u3", "A000000001", jobNow.Add(-2*time.Hour)), clickAt("u3", "A000000002", jobNow.Add(-time.Hour)),
	}}
	m := cooccurrence.NewMiner(cooccurrence.DefaultConfig())

	res, err := CoOccurrenceJob(m, scanner, 30, fixedNow).Run(context.Background())
	if err != nil {
		t.Fatalf("cooccurrence job error = %v", err)
	}
	if want := jobNow.AddDate(0, 0, -30); !scanner.since.Equal(want) {
		t.Errorf("scan since = %v, want %v", scanner.since, want)
	}
	if m.Snapshot().Transactions() != 2 {
		t.Errorf("transactions = %d, want 2", m.Snapshot().Transactions())
	}
	if res.Size == 0 {
		t.Error("no rules mined")
	}
	rules := m.CoOccurring("A000000001", 0)
	if len(rules) != 1 || rules[0].Consequent != "A000000002" {
		t.Errorf("CoOccurring() = %+v", rules)
	}
}

func TestPopularityJobs(t *testing.T) {
	holder := catalog.NewHolder(catalog.New(1, jobItems()))
	tracker := popularity.NewTracker(popularity.DefaultConfig(), holder)
	scanner := &sliceScanner{events: []models.InteractionEvent{
		clickAt("u1", "A000000003", jobNow.Add(-time.Minute)),
		clickAt("u2", "A000000003", jobNow.Add(-time.Minute)),
	}}

	if _, err := PopularitySeedJob(tracker, scanner, 7, fixedNow).Run(context.Background()); err != nil {
		t.Fatalf("seed job error = %v", err)
	}
	if got := tracker.Top(1); len(got) != 1 || got[0].ItemID != "A000000003" {
		t.Errorf("Top(1) after seed = %+v", got)
	}

	tracker.Observe("A000000001")
	tracker.Observe("A000000001")
	tracker.Observe("A000000001")
	before := tracker.Snapshot().Version()
	res, err := PopularityTickJob(tracker, fixedNow).Run(context.Background())
	if err != nil {
		t.Fatalf("tick job error = %v", err)
	}
	if res.Version != before+1 {
		t.Errorf("tick version = %d, want %d", res.Version, before+1)
	}
	if got := tracker.Top(1); got[0].ItemID != "A000000001" {
		t.Errorf("Top(1) after tick = %+v, want A000000001", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PopularityTickJob(tracker, fixedNow).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("tick with cancelled ctx error = %v", err)
	}
}

func TestStoreGCJob(t *testing.T) {
	store, err := interactions.Open(interactions.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := StoreGCJob(store).Run(context.Background()); err != nil {
		t.Errorf("gc job error = %v", err)
	}

	store.Close()
	if _, err := StoreGCJob(store).Run(context.Background()); !errors.Is(err, interactions.ErrStoreClosed) {
		t.Errorf("gc job on closed store error = %v, want %v", err, interactions.ErrStoreClosed)
	}
}
