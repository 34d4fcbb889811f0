// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package popularity

import (
	"context"
	"errors"
	"iter"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testHolder() *catalog.Holder {
	return catalog.NewHolder(catalog.New(1, []models.Item{
		{ID: "P000000001", Name: "One", SubCategory: "Watches", Rating: 3.0, RatingCount: 5},
		{ID: "P000000002", Name: "Two", SubCategory: "Watches", Rating: 4.9, RatingCount: 50},
		{ID: "P000000003", Name: "Three", SubCategory: "Home Furnishing", Rating: 4.0, RatingCount: 500},
		{ID: "P000000004", Name: "Four", SubCategory: "Home Furnishing", Rating: 4.0, RatingCount: 10},
	}))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTick_DecaysGeometrically(t *testing.T) {
	tr := NewTracker(Config{DecayFactor: 0.9, Period: time.Hour}, testHolder())
	for range 10 {
		tr.Observe("P000000001")
	}
	tr.Tick(t0)
	if got := tr.ScoreOf("P000000001"); got != 10 {
		t.Fatalf("score after first tick = %v, want 10", got)
	}

	const n = 5
	for i := 1; i <= n; i++ {
		tr.Tick(t0.Add(time.Duration(i) * time.Hour))
	}
	want := 10 * math.Pow(0.9, n)
	if got := tr.ScoreOf("P000000001"); !almostEqual(got, want) {
		t.Errorf("score after %d ticks = %v, want %v", n, got, want)
	}
}

func TestObserve_InvisibleUntilTick(t *testing.T) {
	tr := NewTracker(DefaultConfig(), testHolder())
	tr.Observe("P000000002")
	tr.Observe("")
	if tr.Pending() != 1 {
		t.Errorf("Pending() = %v, want 1", tr.Pending())
	}
	if tr.ScoreOf("P000000002") != 0 {
		t.Error("observation visible before tick")
	}
	snap := tr.Tick(t0)
	if snap.ScoreOf("P000000002") != 1 || tr.Pending() != 0 {
		t.Errorf("after tick score = %v pending = %v", snap.ScoreOf("P000000002"), tr.Pending())
	}
	if snap.Version() != 1 || !snap.UpdatedAt().Equal(t0) {
		t.Errorf("snapshot version = %d updated = %v", snap.Version(), snap.UpdatedAt())
	}
}

func events(evs ...models.InteractionEvent) iter.Seq2[models.InteractionEvent, error] {
	return func(yield func(models.InteractionEvent, error) bool) {
		for _, ev := range evs {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func click(item string, at time.Time) models.InteractionEvent {
	return models.InteractionEvent{UserID: "u1", Kind: models.EventClick, ItemID: item, Timestamp: at}
}

func TestSeed(t *testing.T) {
	tr := NewTracker(Config{DecayFactor: 0.5, Period: time.Hour}, testHolder())
	tr.Observe("P000000004")

	snap, err := tr.Seed(context.Background(), events(
		click("P000000001", t0),
		click("P000000001", t0.Add(-90*time.Minute)),
		click("P000000002", t0.Add(-3*time.Hour)),
		click("P000000003", t0.Add(time.Minute)),
		models.InteractionEvent{UserID: "u1", Kind: models.EventSearch, Query: "watch", Timestamp: t0},
	), t0)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	tests := []struct {
		item string
		want float64
	}{
		{"P000000001", 1 + 0.5},
		{"P000000002", 0.125},
		{"P000000003", 1},
		{"P000000004", 0},
	}
	for _, tt := range tests {
		if got := snap.ScoreOf(tt.item); !almostEqual(got, tt.want) {
			t.Errorf("ScoreOf(%s) = %v, want %v", tt.item, got, tt.want)
		}
	}
	if tr.Pending() != 0 {
		t.Errorf("Pending() after seed = %v, want 0", tr.Pending())
	}
}

func TestSeed_ErrorKeepsSnapshot(t *testing.T) {
	tr := NewTracker(DefaultConfig(), testHolder())
	tr.Observe("P000000001")
	live := tr.Tick(t0)

	boom := errors.New("boom")
	failing := func(yield func(models.InteractionEvent, error) bool) {
		yield(models.InteractionEvent{}, boom)
	}
	if _, err := tr.Seed(context.Background(), failing, t0); !errors.Is(err, boom) {
		t.Fatalf("Seed() error = %v, want boom", err)
	}
	if tr.Snapshot() != live {
		t.Error("failed seed replaced the snapshot")
	}
}

func TestSeed_KeepsObservationsDuringScan(t *testing.T) {
	tr := NewTracker(Config{DecayFactor: 0.5, Period: time.Hour}, testHolder())
	tr.Observe("P000000004")

	scan := func(yield func(models.InteractionEvent, error) bool) {
		if !yield(click("P000000001", t0), nil) {
			return
		}
		// clicks land while the scan runs, one of them straddling a tick
		tr.Observe("P000000002")
		tr.Tick(t0)
		tr.Observe("P000000003")
		yield(click("P000000001", t0), nil)
	}
	snap, err := tr.Seed(context.Background(), scan, t0)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if got := snap.ScoreOf("P000000001"); !almostEqual(got, 2) {
		t.Errorf("ScoreOf(P000000001) = %v, want 2", got)
	}
	if got := snap.ScoreOf("P000000004"); got != 0 {
		t.Errorf("ScoreOf(P000000004) = %v, want 0 (observed before the scan)", got)
	}
	if got := tr.Pending(); got != 2 {
		t.Fatalf("Pending() after seed = %v, want 2", got)
	}

	next := tr.Tick(t0.Add(time.Hour))
	for _, id := range []string{"P000000002", "P000000003"} {
		if got := next.ScoreOf(id); !almostEqual(got, 1) {
			t.Errorf("ScoreOf(%s) after tick = %v, want 1", id, got)
		}
	}
}

func TestNewTracker_DecayBounds(t *testing.T) {
	tests := []struct {
		decay float64
		want  float64
	}{
		{0.8, 0.8},
		{1, 0.95},
		{0, 0.95},
		{1.2, 0.95},
	}
	for _, tt := range tests {
		tr := NewTracker(Config{DecayFactor: tt.decay, Period: time.Hour}, testHolder())
		if tr.cfg.DecayFactor != tt.want {
			t.Errorf("NewTracker(decay %v) DecayFactor = %v, want %v", tt.decay, tr.cfg.DecayFactor, tt.want)
		}
	}
}

func TestTop(t *testing.T) {
	tr := NewTracker(DefaultConfig(), testHolder())
	tr.Observe("P000000004")
	tr.Observe("P000000001")
	tr.Observe("UNKNOWN001")
	tr.Tick(t0)

	got := tr.Top(3)
	want := []string{"P000000004", "P000000001", "P000000002"}
	if len(got) != len(want) {
		t.Fatalf("Top(3) = %+v, want %v", got, want)
	}
	for i, s := range got {
		if s.ItemID != want[i] {
			t.Errorf("Top(3)[%d] = %s, want %s", i, s.ItemID, want[i])
		}
	}
	if got[2].Score != 0 {
		t.Errorf("trending fill score = %v, want 0", got[2].Score)
	}

	if all := tr.Top(100); len(all) != 4 {
		t.Errorf("Top(100) len = %d, want 4", len(all))
	}
}

func TestTop_ColdStartNeverEmpty(t *testing.T) {
	tr := NewTracker(DefaultConfig(), testHolder())
	got := tr.Top(2)
	if len(got) != 2 || got[0].ItemID != "P000000002" || got[1].ItemID != "P000000003" {
		t.Errorf("Top(2) cold = %+v, want trending order", got)
	}

	empty := NewTracker(DefaultConfig(), nil)
	if got := empty.Top(5); len(got) != 0 {
		t.Errorf("Top() on empty catalog = %+v", got)
	}
}

func TestTopSubCategories(t *testing.T) {
	tr := NewTracker(DefaultConfig(), testHolder())
	tr.Observe("P000000003")
	tr.Observe("P000000004")
	tr.Observe("P000000001")
	tr.Tick(t0)

	got := tr.TopSubCategories(0)
	if len(got) != 2 || got[0] != "Home Furnishing" || got[1] != "Watches" {
		t.Errorf("TopSubCategories() = %v", got)
	}
	if got := tr.TopSubCategories(1); len(got) != 1 {
		t.Errorf("TopSubCategories(1) = %v", got)
	}
}
