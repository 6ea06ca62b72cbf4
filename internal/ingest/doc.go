// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

/*
Package ingest reads raw historical records and turns them into features
the accumulator can count.

Two sources are supported:

  - UpstreamSource pages through the geodata HTTP API one spatial chunk at a
    time. Requests are paced by a token bucket, retried with exponential
    backoff on HTTP 429 and guarded by a circuit breaker.
  - DuckDBSource scans a table in a DuckDB database file.

Both convert records with Convert, which parses the WKT geometry, infers
the record type, validates coordinates and the year interval, and drops
tags that cannot be stored. Problems with a single record are counted in
Stats and never abort a build. A chunk that keeps failing is counted in
Stats.FailedChunks and the remaining chunks are still fetched.

# Record Type Inference

  1. An explicit recordtype field wins.
  2. Otherwise the type field maps image/photo/picture to image,
     text/document/article to text and event/happening to event; any other
     non-empty value becomes text.
  3. Otherwise a URL ending in .jpg, .jpeg or .png is an image.
  4. Everything else is text.
*/
package ingest
