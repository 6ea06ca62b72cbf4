// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"errors"

	"github.com/tomtom215/chronogrid/internal/aggregate"
)

var (
	// ErrNotFound means a requested record type, tag, combination, period
	// or resolution does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported means the store cannot answer the query, for example an
	// AND query over more tags than were precomputed.
	ErrUnsupported = errors.New("unsupported query")

	// ErrNotReady means the store has not been loaded.
	ErrNotReady = errors.New("store not ready")

	// ErrLengthMismatch is returned when arrays from different grids meet in a
	// merge.
	ErrLengthMismatch = aggregate.ErrLengthMismatch
)

// IsClientError reports whether err describes a request the store cannot
// answer rather than a fault of the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupported)
}
