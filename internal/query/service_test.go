// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package query

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

type testCorpus struct {
	meta       binstore.Metadata
	heatmaps   aggregate.HeatmapResolutions
	histograms aggregate.Histograms
}

// newTestCorpus builds a store over [0,1]x[0,1] with a 2x2 primary grid and
// two slices, 1800_1850 and 1850_1900.
//
//	image {a}   (0.1,0.1) 1810  -> slice 0, cell 0
//	image {a,b} (0.9,0.9) 1860  -> slice 1, cell 3
//	text  {b}   (0.9,0.1) 1810  -> slice 0, cell 1
//	text  {}    (0.1,0.9) 1860  -> slice 1, cell 2
//	image {c}   (0.1,0.1) 1810  -> slice 0, cell 0
func newTestCorpus(t *testing.T) testCorpus {
	t.Helper()
	bounds := grid.Bounds{MinLon: 0, MaxLon: 1, MinLat: 0, MaxLat: 1}
	primary, err := grid.NewDimensions(bounds, 2, 2, 0)
	if err != nil {
		t.Fatalf("NewDimensions() error = %v", err)
	}
	fine, err := grid.NewDimensions(bounds, 4, 4, 0)
	if err != nil {
		t.Fatalf("NewDimensions() error = %v", err)
	}
	timeSlices, err := temporal.Partition(1800, 1900, 50)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	features := []aggregate.Feature{
		{RecordType: "image", Tags: []string{"a"}, Geometry: orb.Point{0.1, 0.1}, StartYear: 1810, EndYear: 1820},
		{RecordType: "image", Tags: []string{"a", "b"}, Geometry: orb.Point{0.9, 0.9}, StartYear: 1860, EndYear: 1870},
		{RecordType: "text", Tags: []string{"b"}, Geometry: orb.Point{0.9, 0.1}, StartYear: 1810, EndYear: 1820},
		{RecordType: "text", Geometry: orb.Point{0.1, 0.9}, StartYear: 1860, EndYear: 1870},
		{RecordType: "image", Tags: []string{"c"}, Geometry: orb.Point{0.1, 0.1}, StartYear: 1810, EndYear: 1810},
	}
	tr := vocabulary.NewTracker()
	for _, f := range features {
		if err := tr.Observe(f.RecordType, f.Tags); err != nil {
			t.Fatalf("Observe() error = %v", err)
		}
	}
	vocab := tr.Freeze()
	acc, err := aggregate.New(vocab, aggregate.Config{
		Resolutions:        []grid.Dimensions{primary, fine},
		Slices:             timeSlices,
		MaxCombinationSize: 2,
	})
	if err != nil {
		t.Fatalf("aggregate.New() error = %v", err)
	}
	for _, f := range features {
		if err := acc.Add(f); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	res, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	meta := binstore.Metadata{
		Version:           binstore.FormatVersion,
		BuildID:           "query-test",
		Timestamp:         "2026-01-01T00:00:00Z",
		HeatmapDimensions: primary,
		HeatmapBlueprint:  grid.NewBlueprint(primary),
		TimeSlices:        timeSlices,
		TimeRange:         temporal.Span(timeSlices),
		RecordTypes:       vocab.RecordTypes(),
		Tags:              vocab.Tags(),
		Resolutions:       []grid.Resolution{primary.Resolution(), fine.Resolution()},
		ResolutionDimensions: map[string]grid.Dimensions{
			primary.Resolution().Key(): primary,
			fine.Resolution().Key():    fine,
		},
		MaxCombinationSize: 2,
		Stats: binstore.Stats{
			TotalFeatures:         res.Stats.TotalFeatures,
			FeaturesPerRecordType: res.Stats.FeaturesPerRecordType,
			TimeSliceCount:        len(timeSlices),
			GridCellCount:         primary.CellCount(),
			ResolutionCount:       2,
		},
	}
	return testCorpus{meta: meta, heatmaps: res.Heatmaps, histograms: res.Histograms}
}

func (c testCorpus) loader(calls *atomic.Int32) Loader {
	return func(context.Context) (*Store, error) {
		if calls != nil {
			calls.Add(1)
		}
		meta := c.meta
		return NewStore(&meta, c.heatmaps, c.histograms)
	}
}

func newReadyService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(newTestCorpus(t).loader(nil), Options{CacheSize: 16, CacheTTL: time.Minute})
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return svc
}

func TestInitialize_ConcurrentCallersShareOneLoad(t *testing.T) {
	corpus := newTestCorpus(t)
	var calls atomic.Int32
	release := make(chan struct{})
	inner := corpus.loader(&calls)
	svc := NewService(func(ctx context.Context) (*Store, error) {
		<-release
		return inner(ctx)
	}, Options{})

	const callers = 32
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Initialize(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Initialize() error = %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
	if svc.State() != StateReady {
		t.Errorf("State() = %v, want ready", svc.State())
	}

	// Later calls are no-ops.
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("loader called %d times after reinitialize, want 1", got)
	}
}

func TestInitialize_RetryAfterFailure(t *testing.T) {
	corpus := newTestCorpus(t)
	var calls atomic.Int32
	inner := corpus.loader(nil)
	svc := NewService(func(ctx context.Context) (*Store, error) {
		if calls.Add(1) == 1 {
			return nil, binstore.ErrOpen
		}
		return inner(ctx)
	}, Options{})

	if svc.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", svc.State())
	}

	err := svc.Initialize(context.Background())
	if !errors.Is(err, binstore.ErrOpen) {
		t.Fatalf("Initialize() error = %v, want ErrOpen", err)
	}
	if svc.State() != StateFailed {
		t.Errorf("State() = %v, want failed", svc.State())
	}
	if !errors.Is(svc.LastError(), binstore.ErrOpen) {
		t.Errorf("LastError() = %v", svc.LastError())
	}

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("retry Initialize() error = %v", err)
	}
	if svc.State() != StateReady {
		t.Errorf("State() = %v, want ready", svc.State())
	}
	if calls.Load() != 2 {
		t.Errorf("loader called %d times, want 2", calls.Load())
	}
}

func TestInitialize_CallerCancellationDoesNotAbortLoad(t *testing.T) {
	corpus := newTestCorpus(t)
	var calls atomic.Int32
	release := make(chan struct{})
	inner := corpus.loader(&calls)
	svc := NewService(func(ctx context.Context) (*Store, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return inner(ctx)
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Initialize(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Initialize() error = %v, want context.Canceled", err)
	}

	close(release)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestQueries_LoadLazily(t *testing.T) {
	var calls atomic.Int32
	svc := NewService(newTestCorpus(t).loader(&calls), Options{})

	resp, err := svc.HeatmapTimeline(context.Background(), Request{})
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	if !resp.Success {
		t.Error("Success = false")
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestQueries_NotReady(t *testing.T) {
	svc := NewServiceFromFile(filepath.Join(t.TempDir(), "missing.bin"), binstore.Options{}, Options{})

	resp, err := svc.HeatmapTimeline(context.Background(), Request{})
	if !errors.Is(err, ErrNotReady) || !errors.Is(err, binstore.ErrOpen) {
		t.Fatalf("HeatmapTimeline() error = %v, want ErrNotReady wrapping ErrOpen", err)
	}
	if resp.Success || resp.Message == "" {
		t.Errorf("response = %+v, want failure with message", resp)
	}
	if IsClientError(err) {
		t.Error("IsClientError() = true for a load failure")
	}
	if _, err := svc.Metadata(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Metadata() error = %v, want ErrNotReady", err)
	}
}

func TestFileLoader(t *testing.T) {
	corpus := newTestCorpus(t)
	path := filepath.Join(t.TempDir(), "visualization.bin")
	if _, err := binstore.WriteComplete(path, corpus.meta, corpus.heatmaps, corpus.histograms); err != nil {
		t.Fatalf("WriteComplete() error = %v", err)
	}

	for _, useMmap := range []bool{true, false} {
		svc := NewServiceFromFile(path, binstore.Options{UseMmap: useMmap}, Options{})
		resp, err := svc.HeatmapTimeline(context.Background(), Request{Tags: []string{"a", "b"}, TagOperator: OperatorOR})
		if err != nil {
			t.Fatalf("HeatmapTimeline(mmap=%v) error = %v", useMmap, err)
		}
		want := []uint32{0, 0, 0, 2}
		if got := resp.HeatmapTimeline["1850_1900"].CountArray; !reflect.DeepEqual(got, want) {
			t.Errorf("mmap=%v counts = %v, want %v", useMmap, got, want)
		}
		meta, err := svc.Metadata(context.Background())
		if err != nil {
			t.Fatalf("Metadata() error = %v", err)
		}
		if meta.BuildID != "query-test" {
			t.Errorf("BuildID = %q", meta.BuildID)
		}
	}
}

func TestHeatmapTimeline(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name string
		req  Request
		want map[string][]uint32
	}{
		{
			name: "all record types base",
			req:  Request{},
			want: map[string][]uint32{"1800_1850": {2, 1, 0, 0}, "1850_1900": {0, 0, 1, 1}},
		},
		{
			name: "single record type",
			req:  Request{RecordTypes: []string{"text"}},
			want: map[string][]uint32{"1800_1850": {0, 1, 0, 0}, "1850_1900": {0, 0, 1, 0}},
		},
		{
			name: "single tag",
			req:  Request{RecordTypes: []string{"image"}, Tags: []string{"a"}},
			want: map[string][]uint32{"1800_1850": {1, 0, 0, 0}, "1850_1900": {0, 0, 0, 1}},
		},
		{
			name: "AND uses combination entry",
			req:  Request{Tags: []string{"b", "a"}, TagOperator: OperatorAND},
			want: map[string][]uint32{"1800_1850": {0, 0, 0, 0}, "1850_1900": {0, 0, 0, 1}},
		},
		{
			name: "OR sums tags and double counts",
			req:  Request{Tags: []string{"a", "b"}, TagOperator: OperatorOR},
			want: map[string][]uint32{"1800_1850": {1, 1, 0, 0}, "1850_1900": {0, 0, 0, 2}},
		},
		{
			name: "period",
			req:  Request{Period: "1850_1900"},
			want: map[string][]uint32{"1850_1900": {0, 0, 1, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.HeatmapTimeline(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("HeatmapTimeline() error = %v", err)
			}
			if !resp.Success {
				t.Fatal("Success = false")
			}
			if resp.Resolution != "2x2" {
				t.Errorf("Resolution = %q, want 2x2", resp.Resolution)
			}
			if len(resp.HeatmapTimeline) != len(tt.want) {
				t.Fatalf("timeline has %d slices, want %d", len(resp.HeatmapTimeline), len(tt.want))
			}
			for key, want := range tt.want {
				h, ok := resp.HeatmapTimeline[key]
				if !ok {
					t.Fatalf("missing slice %s", key)
				}
				if !reflect.DeepEqual(h.CountArray, want) {
					t.Errorf("slice %s counts = %v, want %v", key, h.CountArray, want)
				}
				if !reflect.DeepEqual(h.DensityArray, aggregate.Density(want)) {
					t.Errorf("slice %s density = %v, want %v", key, h.DensityArray, aggregate.Density(want))
				}
			}
		})
	}
}

func TestHeatmapTimeline_MergedDensityFromCounts(t *testing.T) {
	svc := newReadyService(t)
	resp, err := svc.HeatmapTimeline(context.Background(), Request{Period: "1800_1850"})
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	want := []float32{1, 0.5, 0, 0}
	if got := resp.HeatmapTimeline["1800_1850"].DensityArray; !reflect.DeepEqual(got, want) {
		t.Errorf("density = %v, want %v", got, want)
	}
}

func TestHeatmapTimeline_Resolution(t *testing.T) {
	svc := newReadyService(t)

	resp, err := svc.HeatmapTimeline(context.Background(), Request{Resolution: "4x4"})
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	if resp.Resolution != "4x4" {
		t.Errorf("Resolution = %q", resp.Resolution)
	}
	// Totals match the primary grid.
	for key, h := range resp.HeatmapTimeline {
		if h.Len() != 16 {
			t.Errorf("slice %s has %d cells, want 16", key, h.Len())
		}
	}
	if got := resp.HeatmapTimeline["1800_1850"].Total(); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
}

func TestHeatmapTimeline_Errors(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"unknown tag", Request{Tags: []string{"zzz"}}, ErrNotFound},
		{"unknown record type", Request{RecordTypes: []string{"map"}}, ErrNotFound},
		{"combination never observed", Request{Tags: []string{"a", "c"}}, ErrNotFound},
		{"tag absent from record type", Request{RecordTypes: []string{"text"}, Tags: []string{"a"}}, ErrNotFound},
		{"too many AND tags", Request{Tags: []string{"a", "b", "c"}, TagOperator: OperatorAND}, ErrUnsupported},
		{"unknown period", Request{Period: "1700_1750"}, ErrNotFound},
		{"unknown resolution", Request{Resolution: "3x3"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.HeatmapTimeline(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !IsClientError(err) {
				t.Error("IsClientError() = false")
			}
			if resp == nil || resp.Success || resp.Message == "" {
				t.Errorf("response = %+v, want failure with message", resp)
			}
			if resp != nil && resp.HeatmapTimeline != nil {
				t.Error("failure response carries a timeline")
			}
		})
	}
}

func TestHeatmapTimeline_ORAcrossManyTags(t *testing.T) {
	svc := newReadyService(t)
	// OR is not bounded by the combination size.
	resp, err := svc.HeatmapTimeline(context.Background(), Request{Tags: []string{"a", "b", "c"}, TagOperator: OperatorOR})
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	if got := resp.HeatmapTimeline["1800_1850"].CountArray; !reflect.DeepEqual(got, []uint32{2, 1, 0, 0}) {
		t.Errorf("counts = %v", got)
	}
}

func TestHeatmapTimeline_LengthMismatch(t *testing.T) {
	corpus := newTestCorpus(t)
	// Truncate one source heatmap.
	rth := corpus.heatmaps["2x2"]["1800_1850"]["image"]
	rth.Base = aggregate.NewHeatmap([]uint32{1, 1})

	svc := NewService(corpus.loader(nil), Options{})
	for _, rts := range [][]string{nil, {"image"}} {
		_, err := svc.HeatmapTimeline(context.Background(), Request{RecordTypes: rts})
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("record types %v: error = %v, want ErrLengthMismatch", rts, err)
		}
		if IsClientError(err) {
			t.Errorf("record types %v: length mismatch classified as client error", rts)
		}
	}
}

func TestHeatmapTimeline_Cached(t *testing.T) {
	svc := newReadyService(t)
	req := Request{RecordTypes: []string{"text", "image"}}

	first, err := svc.HeatmapTimeline(context.Background(), req)
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	// Same selection in a different order.
	second, err := svc.HeatmapTimeline(context.Background(), Request{RecordTypes: []string{"image", "text", "image"}})
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	if !reflect.DeepEqual(first.HeatmapTimeline, second.HeatmapTimeline) {
		t.Error("cached result differs")
	}
	hits, misses, _ := svc.heatmapCache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("cache hits=%d misses=%d, want 1 and 1", hits, misses)
	}
}

func TestHistogram(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name      string
		req       Request
		want      []int
		wantTypes []string
	}{
		{"all base", Request{}, []int{3, 2}, []string{"image", "text"}},
		{"record type", Request{RecordTypes: []string{"image"}}, []int{2, 1}, []string{"image"}},
		{"OR tags", Request{RecordTypes: []string{"image"}, Tags: []string{"a", "b"}, TagOperator: OperatorOR}, []int{1, 2}, []string{"image"}},
		{"AND tags", Request{Tags: []string{"a", "b"}}, []int{0, 1}, []string{"image", "text"}},
		{"period ignored", Request{Period: "1850_1900"}, []int{3, 2}, []string{"image", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Histogram(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Histogram() error = %v", err)
			}
			h := resp.Histogram
			if len(h.Bins) != len(tt.want) {
				t.Fatalf("got %d bins, want %d", len(h.Bins), len(tt.want))
			}
			total, peak := 0, 0
			for i, b := range h.Bins {
				if b.Count != tt.want[i] {
					t.Errorf("bin %d = %d, want %d", i, b.Count, tt.want[i])
				}
				total += tt.want[i]
				peak = max(peak, tt.want[i])
			}
			if h.TotalFeatures != total || h.MaxCount != peak {
				t.Errorf("total=%d max=%d, want %d and %d", h.TotalFeatures, h.MaxCount, total, peak)
			}
			if !reflect.DeepEqual(h.RecordTypes, tt.wantTypes) {
				t.Errorf("RecordTypes = %v, want %v", h.RecordTypes, tt.wantTypes)
			}
			if !reflect.DeepEqual(resp.RecordTypes, tt.wantTypes) {
				t.Errorf("response RecordTypes = %v, want %v", resp.RecordTypes, tt.wantTypes)
			}
		})
	}
}

func TestHistogram_MatchesHeatmapTotals(t *testing.T) {
	svc := newReadyService(t)
	req := Request{Tags: []string{"a", "b"}, TagOperator: OperatorOR}

	heat, err := svc.HeatmapTimeline(context.Background(), req)
	if err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	hist, err := svc.Histogram(context.Background(), req)
	if err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	for _, b := range hist.Histogram.Bins {
		if got := heat.HeatmapTimeline[b.TimeSlice.Key].Total(); got != uint64(b.Count) {
			t.Errorf("slice %s heatmap total %d != histogram %d", b.TimeSlice.Key, got, b.Count)
		}
	}
}

func TestHistogram_Errors(t *testing.T) {
	svc := newReadyService(t)
	if _, err := svc.Histogram(context.Background(), Request{Tags: []string{"zzz"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown tag error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Histogram(context.Background(), Request{Tags: []string{"a", "b", "c"}}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("AND of three error = %v, want ErrUnsupported", err)
	}
}

func TestAvailableTags(t *testing.T) {
	svc := newReadyService(t)

	got, err := svc.AvailableTags(context.Background(), nil)
	if err != nil {
		t.Fatalf("AvailableTags() error = %v", err)
	}
	want := []TagSummary{
		{Name: "a", TotalFeatures: 2, RecordTypes: []string{"image"}},
		{Name: "b", TotalFeatures: 2, RecordTypes: []string{"image", "text"}},
		{Name: "c", TotalFeatures: 1, RecordTypes: []string{"image"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableTags() = %+v, want %+v", got, want)
	}

	got, err = svc.AvailableTags(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("AvailableTags(text) error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "b" {
		t.Errorf("AvailableTags(text) = %+v", got)
	}

	if _, err := svc.AvailableTags(context.Background(), []string{"map"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown record type error = %v", err)
	}
}

func TestSearchTags(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name        string
		recordTypes []string
		prefix      string
		limit       int
		want        []string
	}{
		{name: "empty prefix lists all", want: []string{"a", "b", "c"}},
		{name: "prefix ignores case", prefix: "B", want: []string{"b"}},
		{name: "limit", limit: 1, want: []string{"a"}},
		{name: "record type filter", recordTypes: []string{"text"}, want: []string{"b"}},
		{name: "tag absent from record type", recordTypes: []string{"text"}, prefix: "c", want: []string{}},
		{name: "no match", prefix: "zz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SearchTags(context.Background(), tt.recordTypes, tt.prefix, tt.limit)
			if err != nil {
				t.Fatalf("SearchTags() error = %v", err)
			}
			names := make([]string, 0, len(got))
			for _, s := range got {
				names = append(names, s.Name)
			}
			if !slices.Equal(names, tt.want) {
				t.Errorf("SearchTags(%v, %q, %d) = %v, want %v", tt.recordTypes, tt.prefix, tt.limit, names, tt.want)
			}
		})
	}

	if _, err := svc.SearchTags(context.Background(), []string{"map"}, "", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown record type error = %v", err)
	}
}

func TestTagCombinations(t *testing.T) {
	svc := newReadyService(t)

	got, err := svc.TagCombinations(context.Background(), nil, []string{"a"})
	if err != nil {
		t.Fatalf("TagCombinations() error = %v", err)
	}
	want := []TagSummary{{Name: "b", TotalFeatures: 1, RecordTypes: []string{"image"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagCombinations(a) = %+v, want %+v", got, want)
	}

	got, err = svc.TagCombinations(context.Background(), nil, []string{"a", "b"})
	if err != nil {
		t.Fatalf("TagCombinations() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("TagCombinations(a,b) = %+v, want none beyond the precomputed size", got)
	}

	if _, err := svc.TagCombinations(context.Background(), nil, []string{"zzz"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown tag error = %v", err)
	}
}

func TestValidateTagCombination(t *testing.T) {
	svc := newReadyService(t)

	got, err := svc.ValidateTagCombination(context.Background(), nil, []string{"a", "c", "b", "zzz"})
	if err != nil {
		t.Fatalf("ValidateTagCombination() error = %v", err)
	}
	if !slices.Equal(got.ValidTags, []string{"a", "b"}) {
		t.Errorf("ValidTags = %v, want [a b]", got.ValidTags)
	}
	if !slices.Equal(got.InvalidTags, []string{"c", "zzz"}) {
		t.Errorf("InvalidTags = %v, want [c zzz]", got.InvalidTags)
	}
}

func TestCleanupCaches(t *testing.T) {
	svc := NewService(newTestCorpus(t).loader(nil), Options{CacheSize: 8, CacheTTL: 10 * time.Millisecond})
	if _, err := svc.HeatmapTimeline(context.Background(), Request{}); err != nil {
		t.Fatalf("HeatmapTimeline() error = %v", err)
	}
	if _, err := svc.Histogram(context.Background(), Request{}); err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if n := svc.CleanupCaches(); n != 2 {
		t.Errorf("CleanupCaches() = %d, want 2", n)
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		StateUninitialized: "uninitialized",
		StateInitializing:  "initializing",
		StateReady:         "ready",
		StateFailed:        "failed",
	} {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}

func TestStats(t *testing.T) {
	svc := NewService(newTestCorpus(t).loader(nil), Options{CacheSize: 8, CacheTTL: time.Minute})
	before := svc.Stats()
	if before.State != "uninitialized" || before.Store != nil {
		t.Fatalf("Stats() before load = %+v, want uninitialized without store", before)
	}

	for range 2 {
		if _, err := svc.HeatmapTimeline(context.Background(), Request{}); err != nil {
			t.Fatalf("HeatmapTimeline() error = %v", err)
		}
	}
	got := svc.Stats()
	if got.State != "ready" {
		t.Errorf("State = %q, want ready", got.State)
	}
	if got.BuildID != "query-test" {
		t.Errorf("BuildID = %q, want query-test", got.BuildID)
	}
	if got.Store == nil || got.Store.TotalFeatures != 5 {
		t.Errorf("Store = %+v, want 5 total features", got.Store)
	}
	if got.HeatmapCache.Entries != 1 || got.HeatmapCache.Hits != 1 || got.HeatmapCache.Misses != 1 {
		t.Errorf("HeatmapCache = %+v, want 1 entry, 1 hit, 1 miss", got.HeatmapCache)
	}
	if got.HistogramCache.Entries != 0 {
		t.Errorf("HistogramCache.Entries = %d, want 0", got.HistogramCache.Entries)
	}
}
