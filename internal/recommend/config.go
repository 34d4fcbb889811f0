// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Weights sets the contribution of each active-user signal.
type Weights struct {
	Clicked   float64 `json:"clicked"`
	Search    float64 `json:"search"`
	Diversity float64 `json:"diversity"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Clicked + w.Search + w.Diversity
}

// Config contains the ranker settings.
type Config struct {
	Weights Weights `json:"weights"`

	// StalenessHorizon is how long after the last event a user stays active.
	StalenessHorizon time.Duration `json:"staleness_horizon"`

	// TopCategories are the sub-categories shown on the home feed. When
	// empty the most popular sub-categories are used.
	TopCategories []string `json:"top_categories"`

	// TopCategoryCount bounds the automatic top category selection.
	TopCategoryCount int `json:"top_category_count"`

	// DefaultLimit applies when a caller passes limit <= 0.
	DefaultLimit int `json:"default_limit"`

	// Seed makes the diversity sampling reproducible per user.
	Seed uint64 `json:"seed"`

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time `json:"-"`
}

// DefaultConfig returns the default ranker configuration.
func DefaultConfig() Config {
	return Config{
		Weights:          Weights{Clicked: 0.5, Search: 0.4, Diversity: 0.1},
		StalenessHorizon: 30 * 24 * time.Hour,
		TopCategories:    []string{"Home Furnishing", "Watches"},
		TopCategoryCount: 2,
		DefaultLimit:     20,
		Seed:             42,
		Now:              time.Now,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	w := c.Weights
	if w.Clicked < 0 || w.Search < 0 || w.Diversity < 0 {
		errs = append(errs, errors.New("signal weights must be non-negative"))
	}
	if math.Abs(w.Sum()-1) > 1e-6 {
		errs = append(errs, fmt.Errorf("signal weights must sum to 1, got %.4f", w.Sum()))
	}
	if c.StalenessHorizon <= 0 {
		errs = append(errs, errors.New("staleness horizon must be positive"))
	}
	if c.DefaultLimit <= 0 {
		errs = append(errs, errors.New("default limit must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	if c.StalenessHorizon <= 0 {
		c.StalenessHorizon = d.StalenessHorizon
	}
	if c.TopCategoryCount <= 0 {
		c.TopCategoryCount = d.TopCategoryCount
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
