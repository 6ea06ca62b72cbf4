// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Command preprocess builds the visualization file served by cmd/server.

A build streams every record from the configured source once, spooling
valid features while the vocabulary is collected, then replays the spool
into the heatmap and histogram accumulators and writes the binary file to
BUILD_OUTPUT_PATH. The previous file is replaced only when the write
succeeds.

Two sources are supported, selected by SOURCE_KIND:

	upstream  the paged geodata API at UPSTREAM_BASE_URL, fetched in
	          BUILD_CHUNK_ROWS x BUILD_CHUNK_COLS spatial chunks behind a
	          circuit breaker
	duckdb    a table (DUCKDB_TABLE) in the DuckDB file at DUCKDB_PATH

The grid and time layout come from BOUNDS_*, BUILD_RESOLUTIONS,
BUILD_START_YEAR, BUILD_END_YEAR and BUILD_SLICE_YEARS.

On success the build report is printed to stdout as JSON. The exit status
is 1 when the configuration is invalid or the build fails.
*/
package main
