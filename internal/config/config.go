// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package config

import (
	"time"

	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// Config holds the settings of both binaries. The server reads the Server,
// Store, Query, Security and Logging sections; the preprocessor reads
// Upstream, Source, Build and Logging.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Query    QueryConfig    `koanf:"query"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Source   SourceConfig   `koanf:"source"`
	Build    BuildConfig    `koanf:"build"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig locates the visualization file served by the query API.
type StoreConfig struct {
	Path string `koanf:"path"`

	// UseMmap maps the file read-only instead of reading it into memory.
	UseMmap bool `koanf:"use_mmap"`

	// InitRetry is the delay before the warmup service retries a failed load.
	InitRetry time.Duration `koanf:"init_retry"`
}

// QueryConfig sizes the merged result caches.
type QueryConfig struct {
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// UpstreamConfig configures the paged geodata API client.
type UpstreamConfig struct {
	BaseURL           string        `koanf:"base_url"`
	PageSize          int           `koanf:"page_size"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`

	// ChunkFeatureCap stops paging a chunk once this many features were read.
	// Zero disables the cap.
	ChunkFeatureCap int `koanf:"chunk_feature_cap"`

	// Concurrency is the number of chunks fetched at once.
	Concurrency int `koanf:"concurrency"`
}

// Source kinds.
const (
	SourceUpstream = "upstream"
	SourceDuckDB   = "duckdb"
)

// SourceConfig selects where the preprocessor reads records from.
type SourceConfig struct {
	Kind        string `koanf:"kind"`
	DuckDBPath  string `koanf:"duckdb_path"`
	DuckDBTable string `koanf:"duckdb_table"`
}

// BuildConfig fixes the layout of a generated file.
type BuildConfig struct {
	OutputPath string `koanf:"output_path"`

	// SpoolDir holds the feature spool between passes. Empty keeps it in memory.
	SpoolDir string `koanf:"spool_dir"`

	MinLon float64 `koanf:"min_lon"`
	MaxLon float64 `koanf:"max_lon"`
	MinLat float64 `koanf:"min_lat"`
	MaxLat float64 `koanf:"max_lat"`

	Padding float64 `koanf:"padding"`

	// Resolutions are "{cols}x{rows}" keys. The first one is primary.
	Resolutions []string `koanf:"resolutions"`

	StartYear  int `koanf:"start_year"`
	EndYear    int `koanf:"end_year"`
	SliceYears int `koanf:"slice_years"`

	MaxCombinationSize int `koanf:"max_combination"`

	ChunkRows    int     `koanf:"chunk_rows"`
	ChunkCols    int     `koanf:"chunk_cols"`
	ChunkOverlap float64 `koanf:"chunk_overlap"`
}

// Bounds returns the unpadded region of interest.
func (b BuildConfig) Bounds() grid.Bounds {
	return grid.Bounds{MinLon: b.MinLon, MaxLon: b.MaxLon, MinLat: b.MinLat, MaxLat: b.MaxLat}
}

// Dimensions derives one grid per configured resolution, primary first.
func (b BuildConfig) Dimensions() ([]grid.Dimensions, error) {
	resolutions, err := grid.ParseResolutions(b.Resolutions)
	if err != nil {
		return nil, err
	}
	dims := make([]grid.Dimensions, 0, len(resolutions))
	for _, r := range resolutions {
		d, err := grid.NewDimensions(b.Bounds(), r.Cols, r.Rows, b.Padding)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// Slices partitions the configured year range.
func (b BuildConfig) Slices() ([]temporal.TimeSlice, error) {
	return temporal.Partition(b.StartYear, b.EndYear, b.SliceYears)
}

// Load loads configuration from defaults, an optional YAML file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
