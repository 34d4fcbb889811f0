// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateCatalog,
		c.validateStore,
		c.validateSimilarity,
		c.validatePopularity,
		c.validateCoOccurrence,
		c.validateQuery,
		c.validateRanker,
		c.validateNATS,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Catalog.RefreshInterval <= 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("BADGER_PATH is required unless STORE_IN_MEMORY=true")
	}
	if c.Store.RetentionDays < c.Ranker.HistoryDays {
		return fmt.Errorf("STORE_RETENTION_DAYS (%d) must cover RANKER_HISTORY_DAYS (%d)",
			c.Store.RetentionDays, c.Ranker.HistoryDays)
	}
	if c.Store.WriteRatePerUser <= 0 || c.Store.WriteBurstPerUser < 1 {
		return fmt.Errorf("INTERACTION_WRITE_RATE must be positive and INTERACTION_BURST at least 1")
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if c.Similarity.TopK < 1 || c.Similarity.TopK > 1000 {
		return fmt.Errorf("SIMILARITY_TOP_K must be between 1 and 1000")
	}
	if c.Similarity.MaxFeatures < 1 {
		return fmt.Errorf("SIMILARITY_MAX_FEATURES must be at least 1")
	}
	return nil
}

func (c *Config) validatePopularity() error {
	if c.Popularity.DecayFactor <= 0 || c.Popularity.DecayFactor >= 1 {
		return fmt.Errorf("RECOMMEND_DECAY_FACTOR must be in (0, 1), got %v", c.Popularity.DecayFactor)
	}
	if c.Popularity.Period <= 0 {
		return fmt.Errorf("POPULARITY_PERIOD must be positive")
	}
	if c.Popularity.SeedWindowDays < 1 {
		return fmt.Errorf("POPULARITY_SEED_WINDOW_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) validateCoOccurrence() error {
	co := c.CoOccurrence
	if co.MinSupport < 0 || co.MinSupport > 1 {
		return fmt.Errorf("COOCCURRENCE_MIN_SUPPORT must be in [0, 1]")
	}
	if co.MinConfidence <= 0 || co.MinConfidence > 1 {
		return fmt.Errorf("COOCCURRENCE_MIN_CONFIDENCE must be in (0, 1]")
	}
	if co.MinSupportCount < 1 {
		return fmt.Errorf("COOCCURRENCE_MIN_SUPPORT_COUNT must be at least 1")
	}
	if co.WindowDays < 1 {
		return fmt.Errorf("COOCCURRENCE_WINDOW_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) validateQuery() error {
	for _, pair := range c.Query.Synonyms {
		from, to, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("SEARCH_SYNONYMS entry %q must be in from:to form", pair)
		}
	}
	return nil
}

func (c *Config) validateRanker() error {
	r := c.Ranker
	for name, w := range map[string]float64{
		"RANKER_CLICKED_WEIGHT":   r.ClickedWeight,
		"RANKER_SEARCH_WEIGHT":    r.SearchWeight,
		"RANKER_DIVERSITY_WEIGHT": r.DiversityWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", name, w)
		}
	}
	if sum := r.ClickedWeight + r.SearchWeight + r.DiversityWeight; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("ranker weights must sum to 1, got %v", sum)
	}
	if r.StalenessPeriods < 1 || r.StalenessPeriod <= 0 {
		return fmt.Errorf("RANKER_STALENESS_PERIODS must be at least 1")
	}
	if r.HistoryDays < 1 {
		return fmt.Errorf("RANKER_HISTORY_DAYS must be at least 1")
	}
	if r.RecencyDecay <= 0 || r.RecencyDecay > 1 {
		return fmt.Errorf("ranker.recency_decay must be in (0, 1]")
	}
	if r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("ranker.default_limit must be between 1 and ranker.max_limit")
	}
	if r.SearchDefaultLimit < 1 || r.SearchDefaultLimit > r.SearchMaxLimit {
		return fmt.Errorf("ranker.search_default_limit must be between 1 and ranker.search_max_limit")
	}
	if r.DefaultDays < 1 || r.DefaultDays > r.MaxDays {
		return fmt.Errorf("ranker.default_days must be between 1 and ranker.max_days")
	}
	return nil
}

const (
	natsMinMemory    = 64 << 20
	natsMinStore     = 100 << 20
	natsMaxRetention = 365
)

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
	}
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
	}
	if c.NATS.RetentionDays < 1 || c.NATS.RetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between 1 and 365")
	}
	if c.NATS.StreamName == "" || c.NATS.DurableName == "" {
		return fmt.Errorf("NATS_STREAM and NATS_DURABLE_NAME are required when NATS_ENABLED=true")
	}
	if c.NATS.Subscribers < 1 || c.NATS.Subscribers > 32 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 32")
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be trace, debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
