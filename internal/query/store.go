// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/cache"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/metrics"
)

// Store is a fully decoded binary store.
type Store struct {
	Metadata   *binstore.Metadata
	Heatmaps   aggregate.HeatmapResolutions
	Histograms aggregate.Histograms

	// tagIndex holds every tag weighted by its feature count over all
	// record types.
	tagIndex *cache.Trie
}

// Loader produces a Store. It is called at most once per successful
// initialization.
type Loader func(ctx context.Context) (*Store, error)

// FileLoader returns a Loader that opens path, decodes both sections and
// releases the file.
func FileLoader(path string, opts binstore.Options) Loader {
	return func(ctx context.Context) (*Store, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := binstore.Open(path, opts)
		if err != nil {
			return nil, err
		}
		defer func() {
			if cerr := r.Close(); cerr != nil {
				logging.Warn().Err(cerr).Str("path", path).Msg("Failed to close binary store")
			}
		}()

		start := time.Now()
		heatmaps, err := r.ReadHeatmaps()
		if err != nil {
			return nil, err
		}
		metrics.RecordSectionDecode("heatmaps", time.Since(start))

		start = time.Now()
		histograms, err := r.ReadHistograms()
		if err != nil {
			return nil, err
		}
		metrics.RecordSectionDecode("histograms", time.Since(start))

		return NewStore(r.ReadMetadata(), heatmaps, histograms)
	}
}

// NewStore checks that the decoded sections agree with meta.
func NewStore(meta *binstore.Metadata, heatmaps aggregate.HeatmapResolutions, histograms aggregate.Histograms) (*Store, error) {
	if meta == nil {
		return nil, fmt.Errorf("%w: missing metadata", binstore.ErrDecode)
	}
	for _, r := range meta.Resolutions {
		if _, ok := heatmaps[r.Key()]; !ok {
			return nil, fmt.Errorf("%w: no heatmaps for resolution %s", binstore.ErrDecode, r.Key())
		}
	}
	st := &Store{Metadata: meta, Heatmaps: heatmaps, Histograms: histograms, tagIndex: cache.NewTrie()}
	for _, tag := range meta.Tags {
		total, _ := st.facetTotal(meta.RecordTypes, tag)
		st.tagIndex.Insert(tag, total)
	}
	return st, nil
}
