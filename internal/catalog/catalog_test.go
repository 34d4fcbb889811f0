// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/vitrine/internal/models"
)

func sampleItems() []models.Item {
	return []models.Item{
		{ID: "B000000003", Name: "Steel Watch", MainCategory: "Accessories", SubCategory: "Watches", Rating: 4.5, RatingCount: 10, Price: 50, OriginalPrice: 100},
		{ID: "B000000001", Name: "Oak Table", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.5, RatingCount: 30, Price: 90, OriginalPrice: 100},
		{ID: "B000000002", Name: "Lamp", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.8, RatingCount: 5},
		{ID: "B000000004", Name: "Chair", MainCategory: "Home", SubCategory: "Home Furnishing", Rating: 4.5, RatingCount: 30, Price: 80, OriginalPrice: 100},
		{ID: "bad-id", Name: "Broken"},
		{ID: "B000000001", Name: "Duplicate Table"},
	}
}

func ids(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNew_FiltersAndDerives(t *testing.T) {
	c := New(1, sampleItems())

	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	it, ok := c.Get("B000000001")
	if !ok {
		t.Fatal("Get(B000000001) not found")
	}
	if it.Name != "Oak Table" {
		t.Errorf("duplicate kept %q, want first occurrence", it.Name)
	}
	if it.DiscountRatio < 0.0999 || it.DiscountRatio > 0.1001 {
		t.Errorf("DiscountRatio = %v, want 0.1", it.DiscountRatio)
	}
	if _, ok := c.Get("bad-id"); ok {
		t.Error("invalid ID should be dropped")
	}
}

func TestCatalog_Orderings(t *testing.T) {
	c := New(1, sampleItems())

	tests := []struct {
		name string
		got  []*models.Item
		want []string
	}{
		{"trending", c.Trending(0), []string{"B000000002", "B000000001", "B000000004", "B000000003"}},
		{"trending head", c.Trending(2), []string{"B000000002", "B000000001"}},
		{"best value", c.BestValue(0), []string{"B000000003", "B000000004", "B000000001"}},
		{"sub category", c.InSubCategory("Home Furnishing", 0), []string{"B000000002", "B000000001", "B000000004"}},
		{"unknown sub category", c.InSubCategory("Garden", 5), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(tt.got); !equalIDs(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}

	subs := c.SubCategories()
	if !equalIDs(subs, []string{"Home Furnishing", "Watches"}) {
		t.Errorf("SubCategories() = %v", subs)
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := New(1, sampleItems())
	if _, err := c.Lookup("UNKNOWNID01"); !models.IsNotFound(err) {
		t.Errorf("Lookup(unknown) error = %v, want NotFoundError", err)
	}
}

type stubSource struct {
	items []models.Item
	err   error
}

func (s stubSource) LoadItems(context.Context) ([]models.Item, error) { return s.items, s.err }

func TestHolder_Refresh(t *testing.T) {
	h := NewHolder(nil)
	if h.Load() == nil || h.Load().Len() != 0 {
		t.Fatal("new holder should serve an empty catalog")
	}

	c, err := h.Refresh(context.Background(), stubSource{items: sampleItems()})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if c.Version() != 1 || h.Load() != c {
		t.Errorf("version = %d, want 1 and installed", c.Version())
	}

	boom := errors.New("boom")
	if _, err := h.Refresh(context.Background(), stubSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("Refresh() error = %v, want boom", err)
	}
	if h.Load() != c {
		t.Error("failed refresh replaced the live snapshot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Refresh(ctx, stubSource{items: sampleItems()}); err == nil {
		t.Error("cancelled refresh should fail")
	}
	if h.Load().Version() != 1 {
		t.Errorf("version after cancelled refresh = %d, want 1", h.Load().Version())
	}
}
