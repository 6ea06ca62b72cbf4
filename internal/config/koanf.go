// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

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

// configSearchPaths are tried in order when CONFIG_PATH is unset or points
// at a missing file.
var configSearchPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chronogrid/config.yaml",
	"/etc/chronogrid/config.yml",
}

// ConfigPathEnvVar names an explicit YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig is the bottom configuration layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3960,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path:      "./visualization.bin",
			UseMmap:   true,
			InitRetry: 5 * time.Second,
		},
		Query: QueryConfig{
			CacheSize: 512,
			CacheTTL:  10 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Upstream: UpstreamConfig{
			BaseURL:           "",
			PageSize:          2000,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 20,
			MaxRetries:        3,
			ChunkFeatureCap:   50000,
			Concurrency:       1,
		},
		Source: SourceConfig{
			Kind:        SourceUpstream,
			DuckDBPath:  "",
			DuckDBTable: "records",
		},
		Build: BuildConfig{
			OutputPath:         "./visualization.bin",
			SpoolDir:           "",
			MinLon:             4.81,
			MaxLon:             4.964447,
			MinLat:             52.2354339,
			MaxLat:             52.4443,
			Padding:            0.05,
			Resolutions:        []string{"75x75", "8x8", "16x16"},
			StartYear:          1500,
			EndYear:            2025,
			SliceYears:         50,
			MaxCombinationSize: 2,
			ChunkRows:          4,
			ChunkCols:          4,
			ChunkOverlap:       0,
		},
	}
}

// LoadWithKoanf merges defaults, then the optional YAML file, then the
// environment, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func findConfigFile() string {
	candidates := configSearchPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		candidates = append([]string{p}, configSearchPaths...)
	}
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Store
	"store_path":       "store.path",
	"store_use_mmap":   "store.use_mmap",
	"store_init_retry": "store.init_retry",

	// Query
	"query_cache_size": "query.cache_size",
	"query_cache_ttl":  "query.cache_ttl",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Upstream
	"upstream_base_url":            "upstream.base_url",
	"upstream_page_size":           "upstream.page_size",
	"upstream_timeout":             "upstream.timeout",
	"upstream_requests_per_second": "upstream.requests_per_second",
	"upstream_max_retries":         "upstream.max_retries",
	"upstream_chunk_feature_cap":   "upstream.chunk_feature_cap",
	"upstream_concurrency":         "upstream.concurrency",

	// Source
	"source_kind":  "source.kind",
	"duckdb_path":  "source.duckdb_path",
	"duckdb_table": "source.duckdb_table",

	// Build
	"build_output_path":     "build.output_path",
	"build_spool_dir":       "build.spool_dir",
	"bounds_min_lon":        "build.min_lon",
	"bounds_max_lon":        "build.max_lon",
	"bounds_min_lat":        "build.min_lat",
	"bounds_max_lat":        "build.max_lat",
	"build_padding":         "build.padding",
	"build_resolutions":     "build.resolutions",
	"build_start_year":      "build.start_year",
	"build_end_year":        "build.end_year",
	"build_slice_years":     "build.slice_years",
	"build_max_combination": "build.max_combination",
	"build_chunk_rows":      "build.chunk_rows",
	"build_chunk_cols":      "build.chunk_cols",
	"build_chunk_overlap":   "build.chunk_overlap",
}

// listPaths hold comma-separated lists when set from the environment.
var listPaths = map[string]bool{
	"security.cors_origins": true,
	"build.resolutions":     true,
}

// envTransformFunc maps an environment variable name to its config path.
// Unknown variables map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func envValue(key, value string) (string, interface{}) {
	path := envTransformFunc(key)
	if path == "" || !listPaths[path] {
		return path, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return path, items
}
