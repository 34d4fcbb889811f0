// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package models

import "regexp"

// ItemIDPattern matches catalog product identifiers: exactly ten
// uppercase alphanumerics.
var ItemIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ItemRefPattern matches identifiers accepted on read paths: 1 to 50
// uppercase alphanumerics. Read paths look the ID up in the catalog and
// report an unknown one as not found, so only writes enforce the exact
// catalog shape.
var ItemRefPattern = regexp.MustCompile(`^[A-Z0-9]{1,50}$`)

// UserIDPattern matches user identifiers: 1 to 50 ASCII alphanumerics.
var UserIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,50}$`)

// MaxQueryLength bounds free-text search queries, in characters.
const MaxQueryLength = 255

// Item is a catalog product. Items are immutable within a catalog version;
// a new catalog load produces new values.
type Item struct {
	ID            string
	Name          string
	MainCategory  string
	SubCategory   string
	Image         string
	Link          string
	Price         float64 // discounted price
	OriginalPrice float64 // actual (list) price
	Rating        float64
	RatingCount   int
	DiscountRatio float64
}

// CategoryPath renders "<main> > <sub>", omitting whichever side is empty.
func (it *Item) CategoryPath() string {
	switch {
	case it.MainCategory == "":
		return it.SubCategory
	case it.SubCategory == "":
		return it.MainCategory
	default:
		return it.MainCategory + " > " + it.SubCategory
	}
}

// HasPrices reports whether both prices are known and positive.
func (it *Item) HasPrices() bool {
	return it.Price > 0 && it.OriginalPrice > 0
}

// DeriveDiscountRatio returns (original - price) / original, or 0 when the
// prices are unknown.
func DeriveDiscountRatio(price, original float64) float64 {
	if price <= 0 || original <= 0 {
		return 0
	}
	return (original - price) / original
}

// Summary converts an Item into its client-facing shape.
func (it *Item) Summary() ItemSummary {
	return ItemSummary{
		ID:            it.ID,
		Name:          it.Name,
		Category:      it.CategoryPath(),
		Image:         it.Image,
		Price:         it.Price,
		OriginalPrice: it.OriginalPrice,
		Rating:        it.Rating,
		Reviews:       it.RatingCount,
		DiscountRatio: it.DiscountRatio,
	}
}

// ItemSummary is the JSON shape of every item returned by the API.
type ItemSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Image         string  `json:"image"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Rating        float64 `json:"rating"`
	Reviews       int     `json:"reviews"`
	DiscountRatio float64 `json:"discount_ratio"`
}
