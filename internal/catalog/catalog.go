// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/tomtom215/vitrine/internal/models"
)

// Catalog is an immutable catalog version. All returned slices and pointers
// are shared and must not be modified.
type Catalog struct {
	version  uint64
	loadedAt time.Time

	items     []models.Item // sorted by ID
	byID      map[string]*models.Item
	trending  []*models.Item
	bestValue []*models.Item
	bySub     map[string][]*models.Item
	subs      []string
}

// New builds a catalog snapshot. Items with duplicate IDs keep the first
// occurrence; items with invalid IDs are dropped.
func New(version uint64, items []models.Item) *Catalog {
	kept := make([]models.Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		it := items[i]
		if !models.ItemIDPattern.MatchString(it.ID) {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		if it.DiscountRatio == 0 && it.HasPrices() {
			it.DiscountRatio = models.DeriveDiscountRatio(it.Price, it.OriginalPrice)
		}
		kept = append(kept, it)
	}
	slices.SortFunc(kept, func(a, b models.Item) int { return cmp.Compare(a.ID, b.ID) })

	c := &Catalog{
		version:  version,
		loadedAt: time.Now(),
		items:    kept,
		byID:     make(map[string]*models.Item, len(kept)),
		trending: make([]*models.Item, len(kept)),
	}
	for i := range c.items {
		it := &c.items[i]
		c.byID[it.ID] = it
		c.trending[i] = it
	}

	slices.SortStableFunc(c.trending, CompareTrending)

	c.bestValue = lo.Filter(c.trending, func(it *models.Item, _ int) bool { return it.HasPrices() })
	slices.SortStableFunc(c.bestValue, func(a, b *models.Item) int {
		if a.DiscountRatio != b.DiscountRatio {
			return cmp.Compare(b.DiscountRatio, a.DiscountRatio)
		}
		if a.Rating != b.Rating {
			return cmp.Compare(b.Rating, a.Rating)
		}
		return cmp.Compare(a.ID, b.ID)
	})

	c.bySub = lo.GroupBy(c.trending, func(it *models.Item) string { return it.SubCategory })
	c.subs = lo.Keys(c.bySub)
	slices.Sort(c.subs)

	return c
}

// CompareTrending orders items by rating desc, rating count desc, ID asc.
func CompareTrending(a, b *models.Item) int {
	if a.Rating != b.Rating {
		return cmp.Compare(b.Rating, a.Rating)
	}
	if a.RatingCount != b.RatingCount {
		return cmp.Compare(b.RatingCount, a.RatingCount)
	}
	return cmp.Compare(a.ID, b.ID)
}

// Version returns the snapshot version. The empty catalog is version 0.
func (c *Catalog) Version() uint64 { return c.version }

// LoadedAt returns when the snapshot was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Items returns all items sorted by ID.
func (c *Catalog) Items() []models.Item { return c.items }

// Get looks up an item by ID.
func (c *Catalog) Get(id string) (*models.Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Lookup is Get returning a NotFoundError for unknown IDs.
func (c *Catalog) Lookup(id string) (*models.Item, error) {
	if it, ok := c.byID[id]; ok {
		return it, nil
	}
	return nil, models.NewNotFoundError("item", id)
}

// Trending returns the first n items in trending order; n <= 0 returns all.
func (c *Catalog) Trending(n int) []*models.Item { return head(c.trending, n) }

// BestValue returns the first n priced items by discount ratio.
func (c *Catalog) BestValue(n int) []*models.Item { return head(c.bestValue, n) }

// InSubCategory returns the first n items of a sub-category in trending order.
func (c *Catalog) InSubCategory(sub string, n int) []*models.Item {
	return head(c.bySub[sub], n)
}

// SubCategories returns all sub-category names, sorted.
func (c *Catalog) SubCategories() []string { return c.subs }

func head(items []*models.Item, n int) []*models.Item {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// Source loads the full item set.
type Source interface {
	LoadItems(ctx context.Context) ([]models.Item, error)
}

// Holder publishes the current catalog snapshot to concurrent readers.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder returns a holder serving c, or an empty catalog when c is nil.
func NewHolder(c *Catalog) *Holder {
	if c == nil {
		c = New(0, nil)
	}
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Load returns the current snapshot. It never returns nil.
func (h *Holder) Load() *Catalog { return h.current.Load() }

// Store installs c as the current snapshot.
func (h *Holder) Store(c *Catalog) { h.current.Store(c) }

// Refresh loads items from src and installs them as the next version.
// On error the current snapshot stays live.
func (h *Holder) Refresh(ctx context.Context, src Source) (*Catalog, error) {
	items, err := src.LoadItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	next := New(h.Load().Version()+1, items)
	h.current.Store(next)
	return next, nil
}
