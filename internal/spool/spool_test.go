// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package spool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/tomtom215/chronogrid/internal/aggregate"
)

func testFeatures() []aggregate.Feature {
	return []aggregate.Feature{
		{RecordType: "image", Tags: []string{"canal"}, Geometry: orb.Point{4.9, 52.37}, StartYear: 1850, EndYear: 1900},
		{RecordType: "text", Geometry: orb.LineString{{4.9, 52.3}, {4.95, 52.35}}, StartYear: 1700, EndYear: 1750},
		{RecordType: "event", Tags: []string{"fire", "war"}, Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, StartYear: 1940, EndYear: 1945},
	}
}

func collect(t *testing.T, s *Spool) []aggregate.Feature {
	t.Helper()
	var out []aggregate.Feature
	if err := s.Iterate(context.Background(), func(f aggregate.Feature) error {
		out = append(out, f)
		return nil
	}); err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	return out
}

func TestSpool_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{"in memory", func(*testing.T) Config { return Config{} }},
		{"on disk", func(t *testing.T) Config { return Config{Dir: filepath.Join(t.TempDir(), "spool"), Compression: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg(t))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			want := testFeatures()
			for _, f := range want {
				if err := s.Append(f); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}
			if err := s.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if s.Len() != len(want) {
				t.Errorf("Len() = %d, want %d", s.Len(), len(want))
			}

			got := collect(t, s)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Iterate() = %+v, want %+v", got, want)
			}

			// A second pass sees the same features.
			if again := collect(t, s); len(again) != len(want) {
				t.Errorf("second Iterate() returned %d features", len(again))
			}
		})
	}
}

func TestSpool_PreservesOrderPastByteBoundary(t *testing.T) {
	s, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	const n = 300
	for i := 0; i < n; i++ {
		if err := s.Append(aggregate.Feature{RecordType: "image", Geometry: orb.Point{float64(i), 0}, StartYear: i, EndYear: i}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	for i, f := range collect(t, s) {
		if f.StartYear != i {
			t.Fatalf("feature %d has StartYear %d", i, f.StartYear)
		}
	}
}

func TestSpool_UnflushedInvisible(t *testing.T) {
	s, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Append(testFeatures()[0]); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := collect(t, s); len(got) != 0 {
		t.Errorf("Iterate() before Flush returned %d features", len(got))
	}
}

func TestSpool_IterateStopsOnError(t *testing.T) {
	s, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	for _, f := range testFeatures() {
		_ = s.Append(f)
	}
	_ = s.Flush()

	sentinel := errors.New("stop")
	calls := 0
	err = s.Iterate(context.Background(), func(aggregate.Feature) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Errorf("Iterate() error = %v after %d calls", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Iterate(ctx, func(aggregate.Feature) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Iterate(cancelled) error = %v", err)
	}
}

func TestSpool_Close(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	s, err := Open(Config{Dir: dir, RemoveOnClose: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("spool dir still exists: %v", err)
	}
	if err := s.Append(testFeatures()[0]); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Iterate(context.Background(), func(aggregate.Feature) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Iterate() after Close error = %v, want ErrClosed", err)
	}
}
