// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/binstore"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/middleware"
	"github.com/tomtom215/chronogrid/internal/query"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

const testBuildID = "api-test"

// writeTestStore writes a store over [0,1]x[0,1] with a 2x2 primary grid, a
// 4x4 grid and the slices 1800_1850 and 1850_1900.
//
//	image {a}   (0.1,0.1) 1810
//	image {a,b} (0.9,0.9) 1860
//	text  {b}   (0.9,0.1) 1810
//	text  {}    (0.1,0.9) 1860
//	image {c}   (0.1,0.1) 1810
func writeTestStore(t *testing.T) string {
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
		BuildID:           testBuildID,
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

	path := filepath.Join(t.TempDir(), "visualization.bin")
	if _, err := binstore.WriteComplete(path, meta, res.Heatmaps, res.Histograms); err != nil {
		t.Fatalf("WriteComplete() error = %v", err)
	}
	return path
}

func newTestService(t *testing.T) *query.Service {
	t.Helper()
	svc := query.NewServiceFromFile(writeTestStore(t), binstore.Options{}, query.Options{
		CacheSize: 16,
		CacheTTL:  time.Minute,
	})
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return svc
}

func newFailingService() *query.Service {
	return query.NewService(func(context.Context) (*query.Store, error) {
		return nil, errors.New("open visualization.bin: no such file or directory")
	}, query.Options{CacheSize: 4, CacheTTL: time.Minute})
}

// newTestServer returns the full router over svc with rate limiting off.
func newTestServer(t *testing.T, svc *query.Service) http.Handler {
	t.Helper()
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://map.example.org"}
	cfg.RateLimitDisabled = true
	h := NewHandler(svc, middleware.NewPerformanceMonitor(100, 0), "test")
	return NewRouter(h, NewChiMiddleware(cfg)).SetupChi()
}

func doGet(t *testing.T, srv http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// envelope decodes an APIResponse with its data left raw.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}
