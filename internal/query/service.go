// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/cache"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/metrics"
)

// State is the initialization state of a Service.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options configures a Service.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// Service answers queries against one store.
type Service struct {
	loader Loader

	group singleflight.Group
	state atomic.Int32
	store atomic.Pointer[Store]

	errMu   sync.Mutex
	lastErr error

	heatmapCache   *cache.LRU[map[string]aggregate.Heatmap]
	histogramCache *cache.LRU[aggregate.Histogram]
}

// NewService creates a Service. The store is not loaded until Initialize.
func NewService(loader Loader, opts Options) *Service {
	return &Service{
		loader:         loader,
		heatmapCache:   cache.NewLRU[map[string]aggregate.Heatmap](opts.CacheSize, opts.CacheTTL),
		histogramCache: cache.NewLRU[aggregate.Histogram](opts.CacheSize, opts.CacheTTL),
	}
}

// NewServiceFromFile creates a Service backed by a store file.
func NewServiceFromFile(path string, storeOpts binstore.Options, opts Options) *Service {
	return NewService(FileLoader(path, storeOpts), opts)
}

// State returns the current initialization state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// LastError returns the error of the most recent failed load.
func (s *Service) LastError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// Initialize loads the store. It is safe to call concurrently: one load runs
// and every caller receives its result. The load itself is not cancelled
// when ctx is; ctx only bounds how long this caller waits.
func (s *Service) Initialize(ctx context.Context) error {
	if s.store.Load() != nil {
		return nil
	}

	ch := s.group.DoChan("initialize", func() (any, error) {
		if st := s.store.Load(); st != nil {
			return st, nil
		}
		s.setState(StateInitializing)
		start := time.Now()

		st, err := s.loader(context.WithoutCancel(ctx))
		if err != nil {
			s.errMu.Lock()
			s.lastErr = err
			s.errMu.Unlock()
			s.setState(StateFailed)
			metrics.RecordStoreLoad("error", time.Since(start))
			logging.Error().Err(err).Dur("duration", time.Since(start)).Msg("Failed to load binary store")
			return nil, err
		}

		s.store.Store(st)
		s.setState(StateReady)
		metrics.RecordStoreLoad("success", time.Since(start))
		logging.Info().
			Str("build_id", st.Metadata.BuildID).
			Int("record_types", len(st.Metadata.RecordTypes)).
			Int("tags", len(st.Metadata.Tags)).
			Int("time_slices", len(st.Metadata.TimeSlices)).
			Dur("duration", time.Since(start)).
			Msg("Binary store loaded")
		return st, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
	metrics.SetStoreState(int(st))
}

// ready returns the store, loading it first if needed.
func (s *Service) ready(ctx context.Context) (*Store, error) {
	if st := s.store.Load(); st != nil {
		return st, nil
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return s.store.Load(), nil
}

// Metadata returns the store metadata.
func (s *Service) Metadata(ctx context.Context) (*binstore.Metadata, error) {
	st, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	return st.Metadata, nil
}

// ServiceStats reports the store state and result cache usage.
type ServiceStats struct {
	State          string          `json:"state"`
	BuildID        string          `json:"buildId,omitempty"`
	Store          *binstore.Stats `json:"store,omitempty"`
	HeatmapCache   CacheStats      `json:"heatmapCache"`
	HistogramCache CacheStats      `json:"histogramCache"`
}

// CacheStats is the usage of one result cache.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns a snapshot without loading the store.
func (s *Service) Stats() ServiceStats {
	out := ServiceStats{State: s.State().String()}
	if st := s.store.Load(); st != nil {
		stats := st.Metadata.Stats
		out.BuildID = st.Metadata.BuildID
		out.Store = &stats
	}
	out.HeatmapCache.Hits, out.HeatmapCache.Misses, out.HeatmapCache.Entries = s.heatmapCache.Stats()
	out.HistogramCache.Hits, out.HistogramCache.Misses, out.HistogramCache.Entries = s.histogramCache.Stats()
	return out
}

// CleanupCaches drops expired cached results and returns how many it
// removed.
func (s *Service) CleanupCaches() int {
	n := s.heatmapCache.CleanupExpired() + s.histogramCache.CleanupExpired()
	metrics.SetCacheSize("heatmap", s.heatmapCache.Len())
	metrics.SetCacheSize("histogram", s.histogramCache.Len())
	return n
}

// HeatmapTimeline merges the heatmaps selected by req for every time slice,
// or for req.Period alone.
func (s *Service) HeatmapTimeline(ctx context.Context, req Request) (*HeatmapResponse, error) {
	start := time.Now()
	req = req.normalized()
	resp := &HeatmapResponse{RecordTypes: req.RecordTypes, Tags: req.Tags}

	fail := func(err error) (*HeatmapResponse, error) {
		resp.Message = err.Error()
		resp.ProcessingTime = elapsedMillis(start)
		metrics.RecordQuery("heatmap", resultLabel(err), time.Since(start))
		return resp, err
	}

	st, err := s.ready(ctx)
	if err != nil {
		return fail(err)
	}
	plan, err := st.plan(req)
	if err != nil {
		return fail(err)
	}
	resp.RecordTypes = plan.recordTypes
	resp.Resolution = plan.resolution

	key := req.cacheKey("heatmap")
	timeline, hit := s.heatmapCache.Get(key)
	metrics.RecordCacheLookup("heatmap", hit)
	if !hit {
		timeline, err = st.mergeHeatmaps(plan)
		if err != nil {
			return fail(err)
		}
		s.heatmapCache.Add(key, timeline)
	}

	resp.HeatmapTimeline = timeline
	resp.Success = true
	resp.ProcessingTime = elapsedMillis(start)
	metrics.RecordQuery("heatmap", "success", time.Since(start))
	return resp, nil
}

// Histogram merges the histograms selected by req. Histograms are
// resolution independent and always carry every time slice.
func (s *Service) Histogram(ctx context.Context, req Request) (*HistogramResponse, error) {
	start := time.Now()
	req = req.normalized()
	req.Period = ""
	req.Resolution = ""
	resp := &HistogramResponse{RecordTypes: req.RecordTypes, Tags: req.Tags}

	fail := func(err error) (*HistogramResponse, error) {
		resp.Message = err.Error()
		resp.ProcessingTime = elapsedMillis(start)
		metrics.RecordQuery("histogram", resultLabel(err), time.Since(start))
		return resp, err
	}

	st, err := s.ready(ctx)
	if err != nil {
		return fail(err)
	}
	plan, err := st.plan(req)
	if err != nil {
		return fail(err)
	}
	resp.RecordTypes = plan.recordTypes

	key := req.cacheKey("histogram")
	hist, hit := s.histogramCache.Get(key)
	metrics.RecordCacheLookup("histogram", hit)
	if !hit {
		hist, err = st.mergeHistograms(plan)
		if err != nil {
			return fail(err)
		}
		s.histogramCache.Add(key, hist)
	}

	resp.Histogram = &hist
	resp.Success = true
	resp.ProcessingTime = elapsedMillis(start)
	metrics.RecordQuery("histogram", "success", time.Since(start))
	return resp, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}
