// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import "errors"

var (
	// ErrInvalidGeometry means the geometry is missing or cannot be parsed.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidInterval means the year interval is missing or reversed.
	ErrInvalidInterval = errors.New("invalid year interval")

	// ErrOutOfRange means a coordinate lies outside the WGS84 range.
	ErrOutOfRange = errors.New("coordinate out of WGS84 range")

	// ErrUnexpectedResponse means the upstream answered with an unknown shape.
	ErrUnexpectedResponse = errors.New("unexpected upstream response")
)
