// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"cmp"
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/query"
)

// normalize scales s into (0, 1] in place by dividing by its maximum, so the
// strongest item maps to 1 and every positive score stays positive. Entries
// with no positive score carry no signal and are removed.
func normalize(s scores) scores {
	var high float64
	for id, v := range s {
		if v <= 0 || math.IsNaN(v) {
			delete(s, id)
			continue
		}
		high = max(high, v)
	}
	for id, v := range s {
		s[id] = v / high
	}
	return s
}

// clickedScores sums neighbor similarity times click recency over the
// user's clicked items. Clicked items themselves are excluded.
func clickedScores(ctx context.Context, nb Neighbors, p *interactions.Profile, cat *catalog.Catalog) (scores, error) {
	out := make(scores)
	clicked := lo.Keys(p.Clicks)
	slices.Sort(clicked)
	for _, id := range clicked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		edges, err := nb.Neighbors(id, 0)
		if err != nil {
			// items dropped from the index since the click
			if models.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		w := p.Clicks[id]
		for _, e := range edges {
			if _, seen := p.Clicks[e.To]; seen {
				continue
			}
			if _, ok := cat.Get(e.To); !ok {
				continue
			}
			out[e.To] += e.Score * w
		}
	}
	return out, nil
}

// searchScores sums catalog match scores of the user's recent searches
// weighted by their recency.
func searchScores(ctx context.Context, x *query.Expander, p *interactions.Profile, cat *catalog.Catalog) (scores, error) {
	out := make(scores)
	queries := lo.Keys(p.Searches)
	slices.Sort(queries)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exp, err := x.Expand(q)
		if err != nil {
			continue
		}
		w := p.Searches[q]
		for _, m := range query.MatchItems(exp, cat.Items(), 0) {
			out[m.Item.ID] += m.Score * w
		}
	}
	return out, nil
}

// diversityScores picks n items from the sub-categories least represented
// among the candidates, each scored 1. Items in exclude are skipped.
func diversityScores(cat *catalog.Catalog, candidates []scores, exclude map[string]float64, n int, rng *rand.Rand) scores {
	represented := make(map[string]int)
	taken := make(map[string]struct{})
	for _, s := range candidates {
		for id := range s {
			taken[id] = struct{}{}
			if it, ok := cat.Get(id); ok {
				represented[it.SubCategory]++
			}
		}
	}
	for id := range exclude {
		taken[id] = struct{}{}
	}

	out := make(scores)
	for _, it := range stratifiedSample(cat, represented, taken, n, rng) {
		out[it.ID] = 1
	}
	return out
}

// stratifiedSample draws up to n items round-robin across sub-categories,
// visiting the least represented categories first. Categories with equal
// representation are shuffled by rng. Within a category items are taken in
// trending order.
func stratifiedSample(cat *catalog.Catalog, represented map[string]int, skip map[string]struct{}, n int, rng *rand.Rand) []*models.Item {
	subs := slices.Clone(cat.SubCategories())
	rng.Shuffle(len(subs), func(i, j int) { subs[i], subs[j] = subs[j], subs[i] })
	slices.SortStableFunc(subs, func(a, b string) int {
		return cmp.Compare(represented[a], represented[b])
	})

	cursors := make([]int, len(subs))
	var out []*models.Item
	for progress := true; progress && len(out) < n; {
		progress = false
		for i, sub := range subs {
			if len(out) >= n {
				break
			}
			pool := cat.InSubCategory(sub, 0)
			for cursors[i] < len(pool) {
				it := pool[cursors[i]]
				cursors[i]++
				if _, dup := skip[it.ID]; dup {
					continue
				}
				out = append(out, it)
				progress = true
				break
			}
		}
	}
	return out
}

// userRand returns a generator seeded by seed and the user ID.
func userRand(seed uint64, userID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return rand.New(rand.NewPCG(seed, h.Sum64())) //nolint:gosec // sampling, not security
}

// weightedSignal is one normalized signal and its weight.
type weightedSignal struct {
	name   string
	weight float64
	scores scores
}

// compose merges normalized signals into a ranked list ordered by composite
// score desc then ID asc. Signals are summed in slice order.
func compose(cat *catalog.Catalog, signals []weightedSignal) []models.RankedItem {
	composite := make(map[string]float64)
	breakdown := make(map[string]map[string]float64)
	for _, sig := range signals {
		name, w := sig.name, sig.weight
		for id, v := range sig.scores {
			composite[id] += w * v
			if breakdown[id] == nil {
				breakdown[id] = make(map[string]float64)
			}
			breakdown[id][name] = v
		}
	}

	out := make([]models.RankedItem, 0, len(composite))
	for id, score := range composite {
		it, ok := cat.Get(id)
		if !ok {
			continue
		}
		out = append(out, models.RankedItem{ItemSummary: it.Summary(), Score: score, Signals: breakdown[id]})
	}
	sortRanked(out)
	return out
}

func sortRanked(items []models.RankedItem) {
	slices.SortFunc(items, func(a, b models.RankedItem) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
