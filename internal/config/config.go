// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
//
// Loading order (koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/vitrine/config.yaml)
//  3. Environment variables
//
// Config is immutable after LoadWithKoanf returns and safe for concurrent reads.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Catalog      CatalogConfig      `koanf:"catalog"`
	Store        StoreConfig        `koanf:"store"`
	Similarity   SimilarityConfig   `koanf:"similarity"`
	Popularity   PopularityConfig   `koanf:"popularity"`
	CoOccurrence CoOccurrenceConfig `koanf:"cooccurrence"`
	Query        QueryConfig        `koanf:"query"`
	Ranker       RankerConfig       `koanf:"ranker"`
	NATS         NATSConfig         `koanf:"nats"`
	Security     SecurityConfig     `koanf:"security"`
	Supervisor   SupervisorConfig   `koanf:"supervisor"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestTimeout bounds a single ranking request end to end.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	Environment string `koanf:"environment"` // development, staging, production
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig holds the DuckDB product catalog settings.
type CatalogConfig struct {
	// Path is the DuckDB database file. Empty opens an in-memory database.
	Path string `koanf:"path"`

	// ImportCSV, when set, is loaded into the products table on startup.
	ImportCSV string `koanf:"import_csv"`

	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`

	// RefreshInterval is how often the catalog snapshot is reloaded from DuckDB.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// StoreConfig holds the BadgerDB interaction store settings.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// RetentionDays is the TTL applied to every stored interaction.
	RetentionDays int `koanf:"retention_days"`

	// ProfileCacheTTL bounds how long a derived user profile is reused.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl"`

	// WriteRatePerUser and WriteBurstPerUser limit interaction writes per user.
	WriteRatePerUser  float64 `koanf:"write_rate_per_user"`
	WriteBurstPerUser int     `koanf:"write_burst_per_user"`

	GCInterval time.Duration `koanf:"gc_interval"`
}

// SimilarityConfig holds content-similarity index settings.
type SimilarityConfig struct {
	TopK            int           `koanf:"top_k"`
	MaxFeatures     int           `koanf:"max_features"`
	RebuildInterval time.Duration `koanf:"rebuild_interval"`
}

// PopularityConfig holds time-decayed popularity settings.
type PopularityConfig struct {
	DecayFactor float64       `koanf:"decay_factor"`
	Period      time.Duration `koanf:"period"`

	// SeedWindowDays is how far back the interaction log is replayed on
	// startup and on the daily reseed.
	SeedWindowDays int           `koanf:"seed_window_days"`
	ReseedInterval time.Duration `koanf:"reseed_interval"`
}

// CoOccurrenceConfig holds association-rule mining settings.
type CoOccurrenceConfig struct {
	MinSupport      float64       `koanf:"min_support"`
	MinSupportCount int           `koanf:"min_support_count"`
	MinConfidence   float64       `koanf:"min_confidence"`
	WindowDays      int           `koanf:"window_days"`
	SessionGap      time.Duration `koanf:"session_gap"`
	RebuildInterval time.Duration `koanf:"rebuild_interval"`
}

// QueryConfig holds query expansion settings.
type QueryConfig struct {
	// Synonyms are "from:to" pairs, e.g. "earbuds:earphones".
	Synonyms []string `koanf:"synonyms"`
}

// SynonymMap parses Synonyms into a lookup table. Malformed pairs are
// rejected by Validate, so they are skipped here.
func (q QueryConfig) SynonymMap() map[string]string {
	out := make(map[string]string, len(q.Synonyms))
	for _, pair := range q.Synonyms {
		from, to, ok := strings.Cut(pair, ":")
		from, to = strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
		if !ok || from == "" || to == "" {
			continue
		}
		out[from] = to
	}
	return out
}

// RankerConfig holds hybrid ranking settings.
type RankerConfig struct {
	ClickedWeight   float64 `koanf:"clicked_weight"`
	SearchWeight    float64 `koanf:"search_weight"`
	DiversityWeight float64 `koanf:"diversity_weight"`

	// A user whose last event is older than StalenessPeriods * StalenessPeriod
	// is ranked as a new user.
	StalenessPeriods int           `koanf:"staleness_periods"`
	StalenessPeriod  time.Duration `koanf:"staleness_period"`

	// HistoryDays is the interaction window read when building a profile.
	HistoryDays int `koanf:"history_days"`

	// RecencyDecay weights an event of age a (in staleness periods) by RecencyDecay^a.
	RecencyDecay float64 `koanf:"recency_decay"`

	TopCategories []string `koanf:"top_categories"`

	DefaultLimit       int `koanf:"default_limit"`
	MaxLimit           int `koanf:"max_limit"`
	SearchDefaultLimit int `koanf:"search_default_limit"`
	SearchMaxLimit     int `koanf:"search_max_limit"`
	DefaultDays        int `koanf:"default_days"`
	MaxDays            int `koanf:"max_days"`
}

// NATSConfig holds event transport settings. When disabled, interaction
// events flow over an in-process Watermill channel.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	StreamName     string `koanf:"stream_name"`
	RetentionDays  int    `koanf:"retention_days"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
	Subscribers    int    `koanf:"subscribers"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`

	// DebugSample keeps one of every N debug lines; 0 keeps all.
	DebugSample uint32 `koanf:"debug_sample"`
}
