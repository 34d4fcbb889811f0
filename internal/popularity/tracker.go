// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package popularity

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/models"
)

// pruneBelow drops scores that have decayed to noise.
const pruneBelow = 1e-6

// Score is one item's popularity at UpdatedAt.
type Score struct {
	ItemID    string    `json:"item_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config controls decay.
type Config struct {
	// DecayFactor is applied once per Period; in (0, 1). Values outside fall
	// back to 0.95.
	DecayFactor float64
	Period      time.Duration
}

// DefaultConfig decays by 5% per hour.
func DefaultConfig() Config {
	return Config{DecayFactor: 0.95, Period: time.Hour}
}

// Snapshot is an immutable view of the scores.
type Snapshot struct {
	version   uint64
	updatedAt time.Time
	scores    map[string]float64
	ranked    []string // positive scores, score desc then ID asc
}

// Version returns the number of publishes before this snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// UpdatedAt returns the tick or seed time of the snapshot.
func (s *Snapshot) UpdatedAt() time.Time { return s.updatedAt }

// Len returns the number of items with a positive score.
func (s *Snapshot) Len() int { return len(s.ranked) }

// ScoreOf returns the item's score, 0 when it has none.
func (s *Snapshot) ScoreOf(itemID string) float64 { return s.scores[itemID] }

// Tracker accumulates clicks and publishes decayed scores.
type Tracker struct {
	cfg     Config
	catalog *catalog.Holder

	mu      sync.Mutex
	scores  map[string]float64
	pending map[string]float64
	// sinceSeed collects observations made while a Seed scan runs; nil
	// otherwise.
	sinceSeed map[string]float64

	current atomic.Pointer[Snapshot]
}

// NewTracker creates a tracker. The catalog supplies tie-breaks and the
// trending fill for Top.
func NewTracker(cfg Config, holder *catalog.Holder) *Tracker {
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		cfg.DecayFactor = 0.95
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Hour
	}
	if holder == nil {
		holder = catalog.NewHolder(nil)
	}
	t := &Tracker{
		cfg:     cfg,
		catalog: holder,
		scores:  make(map[string]float64),
		pending: make(map[string]float64),
	}
	t.current.Store(&Snapshot{scores: map[string]float64{}})
	return t
}

// Snapshot returns the current snapshot.
func (t *Tracker) Snapshot() *Snapshot { return t.current.Load() }

// ScoreOf returns the published score of itemID.
func (t *Tracker) ScoreOf(itemID string) float64 { return t.current.Load().ScoreOf(itemID) }

// Observe records one click for the current period. It becomes visible at
// the next Tick.
func (t *Tracker) Observe(itemID string) {
	if itemID == "" {
		return
	}
	t.mu.Lock()
	t.pending[itemID]++
	if t.sinceSeed != nil {
		t.sinceSeed[itemID]++
	}
	t.mu.Unlock()
}

// Pending returns the number of observations waiting for the next tick.
func (t *Tracker) Pending() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n float64
	for _, v := range t.pending {
		n += v
	}
	return n
}

// Tick decays every score by one period, folds in pending observations and
// publishes the result.
func (t *Tracker) Tick(now time.Time) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, s := range t.scores {
		s *= t.cfg.DecayFactor
		if s < pruneBelow {
			delete(t.scores, id)
			continue
		}
		t.scores[id] = s
	}
	for id, n := range t.pending {
		t.scores[id] += n
	}
	clear(t.pending)

	return t.publishLocked(now)
}

// Seed replaces all scores with ones computed from click events. Events in
// the future count as age zero. Observations made before the scan started
// are dropped since the log already holds them; those made while it runs
// stay pending for the next Tick.
func (t *Tracker) Seed(ctx context.Context, events iter.Seq2[models.InteractionEvent, error], now time.Time) (*Snapshot, error) {
	t.mu.Lock()
	t.sinceSeed = make(map[string]float64)
	t.mu.Unlock()

	abort := func(err error) (*Snapshot, error) {
		t.mu.Lock()
		t.sinceSeed = nil
		t.mu.Unlock()
		return nil, err
	}

	scores := make(map[string]float64)
	for ev, err := range events {
		if err != nil {
			return abort(fmt.Errorf("seed popularity: %w", err))
		}
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		if ev.Kind != models.EventClick || ev.ItemID == "" {
			continue
		}
		scores[ev.ItemID] += t.weight(now.Sub(ev.Timestamp))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.scores = scores
	t.pending = t.sinceSeed
	t.sinceSeed = nil
	return t.publishLocked(now), nil
}

// weight returns decay^floor(age/period).
func (t *Tracker) weight(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	periods := math.Floor(float64(age) / float64(t.cfg.Period))
	return math.Pow(t.cfg.DecayFactor, periods)
}

func (t *Tracker) publishLocked(now time.Time) *Snapshot {
	scores := make(map[string]float64, len(t.scores))
	ranked := make([]string, 0, len(t.scores))
	for id, s := range t.scores {
		if s <= 0 {
			continue
		}
		scores[id] = s
		ranked = append(ranked, id)
	}
	slices.SortFunc(ranked, func(a, b string) int {
		if scores[a] != scores[b] {
			return cmp.Compare(scores[b], scores[a])
		}
		return cmp.Compare(a, b)
	})

	snap := &Snapshot{
		version:   t.current.Load().version + 1,
		updatedAt: now,
		scores:    scores,
		ranked:    ranked,
	}
	t.current.Store(snap)
	return snap
}

// Top returns the n most popular catalog items. Ties are broken by rating
// count desc then ID asc. When fewer than n items have a positive score the
// rest is filled from the catalog's trending order with score 0, so Top is
// never empty while the catalog is not.
func (t *Tracker) Top(n int) []Score {
	snap := t.current.Load()
	cat := t.catalog.Load()
	if n <= 0 || n > cat.Len() {
		n = cat.Len()
	}

	type scored struct {
		item  *models.Item
		score float64
	}
	hits := make([]scored, 0, min(len(snap.ranked), n))
	for _, id := range snap.ranked {
		if it, ok := cat.Get(id); ok {
			hits = append(hits, scored{it, snap.scores[id]})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		if a.item.RatingCount != b.item.RatingCount {
			return cmp.Compare(b.item.RatingCount, a.item.RatingCount)
		}
		return cmp.Compare(a.item.ID, b.item.ID)
	})
	if len(hits) > n {
		hits = hits[:n]
	}

	out := make([]Score, 0, n)
	seen := make(map[string]struct{}, n)
	for _, h := range hits {
		out = append(out, Score{ItemID: h.item.ID, Score: h.score, UpdatedAt: snap.updatedAt})
		seen[h.item.ID] = struct{}{}
	}
	for _, it := range cat.Trending(0) {
		if len(out) >= n {
			break
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		out = append(out, Score{ItemID: it.ID, UpdatedAt: snap.updatedAt})
	}
	return out
}

// TopSubCategories returns up to n sub-categories ordered by the summed
// popularity of their items, then by name. Sub-categories without any
// popular item follow in name order.
func (t *Tracker) TopSubCategories(n int) []string {
	snap := t.current.Load()
	cat := t.catalog.Load()

	totals := make(map[string]float64)
	for _, sub := range cat.SubCategories() {
		totals[sub] = 0
	}
	for id, s := range snap.scores {
		if it, ok := cat.Get(id); ok {
			totals[it.SubCategory] += s
		}
	}
	subs := make([]string, 0, len(totals))
	for sub := range totals {
		if sub != "" {
			subs = append(subs, sub)
		}
	}
	slices.SortFunc(subs, func(a, b string) int {
		if totals[a] != totals[b] {
			return cmp.Compare(totals[b], totals[a])
		}
		return cmp.Compare(a, b)
	})
	if n > 0 && len(subs) > n {
		subs = subs[:n]
	}
	return subs
}
