// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import (
	"context"

	"github.com/tomtom215/chronogrid/internal/aggregate"
)

// Source streams the features of a corpus. yield is never called
// concurrently; an error from yield stops the stream and is returned.
type Source interface {
	Name() string
	Stream(ctx context.Context, yield func(aggregate.Feature) error) (Stats, error)
}
