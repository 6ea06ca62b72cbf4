// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package ingest

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/config"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/metrics"
	"github.com/tomtom215/chronogrid/internal/temporal"
)

// UpstreamSource streams records from the geodata API chunk by chunk.
type UpstreamSource struct {
	fetcher     PageFetcher
	chunks      []grid.Chunk
	timeRange   temporal.TimeRange
	pageSize    int
	featureCap  int
	concurrency int
}

// NewUpstreamSource creates a source over chunks.
func NewUpstreamSource(fetcher PageFetcher, chunks []grid.Chunk, timeRange temporal.TimeRange, cfg *config.UpstreamConfig) *UpstreamSource {
	return &UpstreamSource{
		fetcher:     fetcher,
		chunks:      chunks,
		timeRange:   timeRange,
		pageSize:    max(cfg.PageSize, 1),
		featureCap:  cfg.ChunkFeatureCap,
		concurrency: max(cfg.Concurrency, 1),
	}
}

// Name implements Source.
func (s *UpstreamSource) Name() string { return "upstream" }

// Stream fetches every chunk, up to the configured number at a time, and
// yields the features of each completed chunk. A chunk that fails is logged
// and counted; the others continue.
func (s *UpstreamSource) Stream(ctx context.Context, yield func(aggregate.Feature) error) (Stats, error) {
	var (
		mu    sync.Mutex
		total Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range s.chunks {
		g.Go(func() error {
			start := time.Now()
			features, stats, err := s.fetchChunk(gctx, chunk)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				total.FailedChunks++
				metrics.RecordUpstreamChunk("failed")
				logging.Warn().Err(err).Str("chunk", chunk.ID).Msg("Chunk failed, continuing with remaining chunks")
				return nil
			}

			total.Merge(stats)
			if stats.CappedChunks > 0 {
				metrics.RecordUpstreamChunk("capped")
			} else {
				metrics.RecordUpstreamChunk("success")
			}
			logging.Info().
				Str("chunk", chunk.ID).
				Int("index", i+1).
				Int("chunks", len(s.chunks)).
				Int("features", len(features)).
				Int("skipped", stats.InvalidSkipped()).
				Dur("duration", time.Since(start)).
				Msg("Chunk fetched")

			for _, f := range features {
				if err := yield(f); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return total, err
}

// fetchChunk pages through one chunk until the last page or the feature cap.
func (s *UpstreamSource) fetchChunk(ctx context.Context, chunk grid.Chunk) ([]aggregate.Feature, Stats, error) {
	var (
		stats    Stats
		features []aggregate.Feature
	)

	for page := 1; ; page++ {
		resp, err := s.fetcher.FetchPage(ctx, PageQuery{
			Bounds:    chunk.Bounds,
			TimeRange: s.timeRange,
			Page:      page,
			PageSize:  s.pageSize,
		})
		if err != nil {
			return nil, stats, err
		}

		for _, rec := range resp.Data {
			if f, ok := Convert(rec, &stats); ok {
				features = append(features, f)
			}
		}

		if !resp.HasMore() || len(resp.Data) == 0 {
			return features, stats, nil
		}
		if s.featureCap > 0 && len(features) > s.featureCap {
			stats.CappedChunks++
			logging.Warn().
				Str("chunk", chunk.ID).
				Int("features", len(features)).
				Int("cap", s.featureCap).
				Msg("Chunk exceeds feature cap, may need further subdivision")
			return features, stats, nil
		}
	}
}
