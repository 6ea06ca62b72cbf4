// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/ingest"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// newSource opens the record source selected by cfg.Source.Kind. The
// returned func releases it and is never nil.
func newSource(ctx context.Context, cfg *config.Config) (ingest.Source, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceUpstream:
		// Chunks cover the padded bounds so features in the margin are fetched too.
		chunks, err := grid.SpatialChunks(cfg.Build.Bounds().Pad(cfg.Build.Padding),
			cfg.Build.ChunkRows, cfg.Build.ChunkCols, cfg.Build.ChunkOverlap)
		if err != nil {
			return nil, nil, fmt.Errorf("spatial chunks: %w", err)
		}
		logging.Info().
			Str("base_url", cfg.Upstream.BaseURL).
			Int("chunks", len(chunks)).
			Msg("Using upstream geodata source")

		client := ingest.NewBreakerClient(ingest.NewClient(&cfg.Upstream))
		years := temporal.YearRange(cfg.Build.StartYear, cfg.Build.EndYear)
		return ingest.NewUpstreamSource(client, chunks, years, &cfg.Upstream), func() {}, nil

	case config.SourceDuckDB:
		src, err := ingest.OpenDuckDB(ctx, cfg.Source.DuckDBPath, cfg.Source.DuckDBTable)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().
			Str("path", cfg.Source.DuckDBPath).
			Str("table", cfg.Source.DuckDBTable).
			Msg("Using DuckDB source")
		return src, func() {
			if err := src.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close DuckDB source")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
