// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vitrine/config.yaml",
	"/etc/vitrine/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			Timeout:        30 * time.Second,
			RequestTimeout: 2 * time.Second,
			Environment:    "development",
		},
		Catalog: CatalogConfig{
			Path:            "/data/vitrine.duckdb",
			MaxMemory:       "1GB",
			Threads:         0, // 0 = DuckDB default
			RefreshInterval: time.Hour,
		},
		Store: StoreConfig{
			Path:              "/data/interactions",
			RetentionDays:     90,
			ProfileCacheTTL:   30 * time.Second,
			WriteRatePerUser:  10,
			WriteBurstPerUser: 20,
			GCInterval:        10 * time.Minute,
		},
		Similarity: SimilarityConfig{
			TopK:            20,
			MaxFeatures:     5000,
			RebuildInterval: 6 * time.Hour,
		},
		Popularity: PopularityConfig{
			DecayFactor:    0.95,
			Period:         time.Hour,
			SeedWindowDays: 30,
			ReseedInterval: 24 * time.Hour,
		},
		CoOccurrence: CoOccurrenceConfig{
			MinSupport:      0.01,
			MinSupportCount: 2,
			MinConfidence:   0.5,
			WindowDays:      30,
			SessionGap:      24 * time.Hour,
			RebuildInterval: 24 * time.Hour,
		},
		Query: QueryConfig{
			Synonyms: []string{
				"earbuds:earphones",
				"tv:television",
				"laptop:notebook",
				"cellphone:mobile",
				"smartphone:mobile",
			},
		},
		Ranker: RankerConfig{
			ClickedWeight:      0.5,
			SearchWeight:       0.4,
			DiversityWeight:    0.1,
			StalenessPeriods:   30,
			StalenessPeriod:    24 * time.Hour,
			HistoryDays:        30,
			RecencyDecay:       0.95,
			TopCategories:      []string{"Home Furnishing", "Watches"},
			DefaultLimit:       20,
			MaxLimit:           60,
			SearchDefaultLimit: 2000,
			SearchMaxLimit:     6000,
			DefaultDays:        30,
			MaxDays:            365,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      256 << 20,
			MaxStore:       1 << 30,
			StreamName:     "VITRINE_INTERACTIONS",
			RetentionDays:  7,
			DurableName:    "vitrine-popularity",
			QueueGroup:     "vitrine",
			Subscribers:    2,
		},
		Security: SecurityConfig{
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"http://localhost:5173"},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file,
// and environment variables, in increasing priority, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"query.synonyms",
	"ranker.top_categories",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_port":       "server.port",
	"http_host":       "server.host",
	"http_timeout":    "server.timeout",
	"request_timeout": "server.request_timeout",
	"environment":     "server.environment",

	"duckdb_path":              "catalog.path",
	"duckdb_max_memory":        "catalog.max_memory",
	"duckdb_threads":           "catalog.threads",
	"catalog_import_csv":       "catalog.import_csv",
	"catalog_refresh_interval": "catalog.refresh_interval",

	"badger_path":            "store.path",
	"store_in_memory":        "store.in_memory",
	"store_retention_days":   "store.retention_days",
	"profile_cache_ttl":      "store.profile_cache_ttl",
	"interaction_write_rate": "store.write_rate_per_user",
	"interaction_burst":      "store.write_burst_per_user",

	"similarity_top_k":            "similarity.top_k",
	"similarity_max_features":     "similarity.max_features",
	"similarity_rebuild_interval": "similarity.rebuild_interval",

	"recommend_decay_factor":      "popularity.decay_factor",
	"popularity_period":           "popularity.period",
	"popularity_seed_window_days": "popularity.seed_window_days",

	"cooccurrence_min_support":       "cooccurrence.min_support",
	"cooccurrence_min_support_count": "cooccurrence.min_support_count",
	"cooccurrence_min_confidence":    "cooccurrence.min_confidence",
	"cooccurrence_window_days":       "cooccurrence.window_days",
	"cooccurrence_session_gap":       "cooccurrence.session_gap",
	"cooccurrence_rebuild_interval":  "cooccurrence.rebuild_interval",

	"search_synonyms": "query.synonyms",

	"ranker_clicked_weight":    "ranker.clicked_weight",
	"ranker_search_weight":     "ranker.search_weight",
	"ranker_diversity_weight":  "ranker.diversity_weight",
	"ranker_staleness_periods": "ranker.staleness_periods",
	"ranker_history_days":      "ranker.history_days",
	"ranker_top_categories":    "ranker.top_categories",

	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_store_dir":      "nats.store_dir",
	"nats_max_memory":     "nats.max_memory",
	"nats_max_store":      "nats.max_store",
	"nats_stream":         "nats.stream_name",
	"nats_retention_days": "nats.retention_days",
	"nats_durable_name":   "nats.durable_name",
	"nats_queue_group":    "nats.queue_group",
	"nats_subscribers":    "nats.subscribers",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"log_level":        "logging.level",
	"log_format":       "logging.format",
	"log_caller":       "logging.caller",
	"log_debug_sample": "logging.debug_sample",
}

// envTransformFunc maps HTTP_PORT to server.port and so on.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
