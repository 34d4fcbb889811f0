// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/tomtom215/vitrine/internal/models"
)

// Match is an item with its overlap score.
type Match struct {
	Item  *models.Item
	Score float64
}

// MatchItems scores every item against exp and returns the matches ordered
// by score desc, rating desc, ID asc. Items with no overlap are dropped.
// limit <= 0 returns all matches.
func MatchItems(exp Expansion, items []models.Item, limit int) []Match {
	if len(exp.Terms) == 0 {
		return nil
	}
	var out []Match
	for i := range items {
		if s := Overlap(exp, &items[i]); s > 0 {
			out = append(out, Match{Item: &items[i], Score: s})
		}
	}
	slices.SortFunc(out, func(a, b Match) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		if a.Item.Rating != b.Item.Rating {
			return cmp.Compare(b.Item.Rating, a.Item.Rating)
		}
		return cmp.Compare(a.Item.ID, b.Item.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Overlap returns the fraction of query terms that occur, directly or via
// their synonym, in the item's name or category path.
func Overlap(exp Expansion, it *models.Item) float64 {
	if len(exp.Terms) == 0 {
		return 0
	}
	text := strings.ToLower(it.Name + " " + it.CategoryPath())
	matched := 0
	for _, term := range exp.Terms {
		if strings.Contains(text, term) {
			matched++
			continue
		}
		if syn := exp.synonyms[term]; syn != "" && strings.Contains(text, syn) {
			matched++
		}
	}
	return float64(matched) / float64(len(exp.Terms))
}
