// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package config loads the configuration shared by the Chronogrid server and
preprocessor.

# Configuration Sources

Values are layered with koanf, later layers winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/chronogrid/config.yaml or /etc/chronogrid/config.yml
  - Environment variables mapped explicitly in envMappings

Unmapped environment variables are ignored.

# Sections

  - Server: HTTP_PORT (3960), HTTP_HOST, HTTP_TIMEOUT, SHUTDOWN_TIMEOUT
  - Store: STORE_PATH, STORE_USE_MMAP, STORE_INIT_RETRY
  - Query: QUERY_CACHE_SIZE, QUERY_CACHE_TTL
  - Security: RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS
  - Logging: LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - Upstream: UPSTREAM_BASE_URL, UPSTREAM_PAGE_SIZE, UPSTREAM_TIMEOUT,
    UPSTREAM_REQUESTS_PER_SECOND, UPSTREAM_MAX_RETRIES,
    UPSTREAM_CHUNK_FEATURE_CAP, UPSTREAM_CONCURRENCY
  - Source: SOURCE_KIND (upstream or duckdb), DUCKDB_PATH, DUCKDB_TABLE
  - Build: BUILD_OUTPUT_PATH, BUILD_SPOOL_DIR, BOUNDS_MIN_LON, BOUNDS_MAX_LON,
    BOUNDS_MIN_LAT, BOUNDS_MAX_LAT, BUILD_PADDING, BUILD_RESOLUTIONS,
    BUILD_START_YEAR, BUILD_END_YEAR, BUILD_SLICE_YEARS,
    BUILD_MAX_COMBINATION, BUILD_CHUNK_ROWS, BUILD_CHUNK_COLS,
    BUILD_CHUNK_OVERLAP

CORS_ORIGINS and BUILD_RESOLUTIONS accept comma-separated lists.

# Validation

Validate runs on every load and reports the first problem, naming the
offending environment variable:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err) // e.g. "configuration validation failed: BUILD_SLICE_YEARS must be at least 1"
	}

ValidateBuild adds the checks only the preprocessor needs, such as
UPSTREAM_BASE_URL when SOURCE_KIND=upstream.
*/
package config
