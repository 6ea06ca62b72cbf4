// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"time"

	"github.com/tomtom215/chronogrid/internal/grid"
)

// Validate checks that the configuration is internally consistent. Settings
// only the preprocessor needs are checked by ValidateBuild.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStore,
		c.validateQuery,
		c.validateSecurity,
		c.validateLogging,
		c.validateUpstream,
		c.validateSource,
		c.validateBuild,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBuild checks the settings the preprocessor cannot run without.
func (c *Config) ValidateBuild() error {
	if c.Build.OutputPath == "" {
		return fmt.Errorf("BUILD_OUTPUT_PATH is required")
	}
	switch c.Source.Kind {
	case SourceUpstream:
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("UPSTREAM_BASE_URL is required when SOURCE_KIND=upstream")
		}
	case SourceDuckDB:
		if c.Source.DuckDBPath == "" {
			return fmt.Errorf("DUCKDB_PATH is required when SOURCE_KIND=duckdb")
		}
	}
	return nil
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required")
	}
	if c.Store.InitRetry < 100*time.Millisecond {
		return fmt.Errorf("STORE_INIT_RETRY must be at least 100ms")
	}
	return nil
}

func (c *Config) validateQuery() error {
	if c.Query.CacheSize < 1 {
		return fmt.Errorf("QUERY_CACHE_SIZE must be at least 1")
	}
	if c.Query.CacheTTL <= 0 {
		return fmt.Errorf("QUERY_CACHE_TTL must be positive")
	}
	return nil
}

// validateSecurity validates rate limiting settings
func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow < time.Second || c.Security.RateLimitWindow > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateUpstream validates the geodata client settings
func (c *Config) validateUpstream() error {
	if c.Upstream.BaseURL != "" {
		if err := checkBaseURL(c.Upstream.BaseURL); err != nil {
			return fmt.Errorf("UPSTREAM_BASE_URL %q: %w", c.Upstream.BaseURL, err)
		}
	}
	if c.Upstream.PageSize < 1 || c.Upstream.PageSize > 10000 {
		return fmt.Errorf("UPSTREAM_PAGE_SIZE must be between 1 and 10000")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Upstream.RequestsPerSecond <= 0 {
		return fmt.Errorf("UPSTREAM_REQUESTS_PER_SECOND must be positive")
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative")
	}
	if c.Upstream.ChunkFeatureCap < 0 {
		return fmt.Errorf("UPSTREAM_CHUNK_FEATURE_CAP must not be negative")
	}
	if c.Upstream.Concurrency < 1 || c.Upstream.Concurrency > 32 {
		return fmt.Errorf("UPSTREAM_CONCURRENCY must be between 1 and 32")
	}
	return nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case SourceUpstream:
		return nil
	case SourceDuckDB:
		if !tableNamePattern.MatchString(c.Source.DuckDBTable) {
			return fmt.Errorf("DUCKDB_TABLE must be a plain identifier, got %q", c.Source.DuckDBTable)
		}
		return nil
	default:
		return fmt.Errorf("SOURCE_KIND must be one of: %s, %s", SourceUpstream, SourceDuckDB)
	}
}

// validateBuild validates the grid and time layout of generated files
func (c *Config) validateBuild() error {
	b := c.Build
	for name, v := range map[string]float64{
		"BOUNDS_MIN_LON": b.MinLon, "BOUNDS_MAX_LON": b.MaxLon,
		"BOUNDS_MIN_LAT": b.MinLat, "BOUNDS_MAX_LAT": b.MaxLat,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}
	if err := b.Bounds().Validate(); err != nil {
		return fmt.Errorf("BOUNDS_* are invalid: %w", err)
	}
	if b.Padding < 0 || b.Padding > 1 {
		return fmt.Errorf("BUILD_PADDING must be between 0 and 1")
	}
	if _, err := grid.ParseResolutions(b.Resolutions); err != nil {
		return fmt.Errorf("BUILD_RESOLUTIONS is invalid: %w", err)
	}
	if b.EndYear <= b.StartYear {
		return fmt.Errorf("BUILD_END_YEAR must be after BUILD_START_YEAR")
	}
	if b.SliceYears < 1 {
		return fmt.Errorf("BUILD_SLICE_YEARS must be at least 1")
	}
	if b.MaxCombinationSize < 0 || b.MaxCombinationSize > 4 {
		return fmt.Errorf("BUILD_MAX_COMBINATION must be between 0 and 4")
	}
	if b.ChunkRows < 1 || b.ChunkCols < 1 {
		return fmt.Errorf("BUILD_CHUNK_ROWS and BUILD_CHUNK_COLS must be at least 1")
	}
	if b.ChunkOverlap < 0 {
		return fmt.Errorf("BUILD_CHUNK_OVERLAP must not be negative")
	}
	return nil
}

// checkBaseURL accepts an absolute http(s) URL that request paths can be
// appended to. A path prefix such as /v2 is fine; query strings, fragments
// and credentials are not.
func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return err
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("scheme %q is not http or https", u.Scheme)
	case u.Hostname() == "":
		return errors.New("missing host")
	case u.User != nil:
		return errors.New("credentials are not allowed in the URL")
	case u.RawQuery != "" || u.Fragment != "":
		return errors.New("query and fragment are not allowed")
	}
	return nil
}
