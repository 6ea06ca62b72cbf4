// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/grid"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

type fixture struct {
	meta       Metadata
	heatmaps   aggregate.HeatmapResolutions
	histograms aggregate.Histograms
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	bounds := grid.Bounds{MinLon: 0, MaxLon: 1, MinLat: 0, MaxLat: 1}
	primary, _ := grid.NewDimensions(bounds, 4, 4, 0)
	coarse, _ := grid.NewDimensions(bounds, 2, 2, 0)
	slices, _ := temporal.Partition(1800, 2000, 50)

	features := []aggregate.Feature{
		{RecordType: "image", Tags: []string{"church"}, Geometry: orb.Point{0.1, 0.1}, StartYear: 1810, EndYear: 1820},
		{RecordType: "image", Tags: []string{"church", "canal"}, Geometry: orb.Point{0.6, 0.3}, StartYear: 1850, EndYear: 1900},
		{RecordType: "text", Geometry: orb.LineString{{0.2, 0.2}, {0.4, 0.8}}, StartYear: 1950, EndYear: 1999},
		{RecordType: "event", Tags: []string{"war"}, Geometry: orb.Point{0.99, 0.99}, StartYear: 1900, EndYear: 1950},
	}
	tr := vocabulary.NewTracker()
	for _, f := range features {
		if err := tr.Observe(f.RecordType, f.Tags); err != nil {
			t.Fatalf("Observe() error = %v", err)
		}
	}
	vocab := tr.Freeze()
	acc, err := aggregate.New(vocab, aggregate.Config{
		Resolutions:        []grid.Dimensions{primary, coarse},
		Slices:             slices,
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

	meta := Metadata{
		BuildID:           "test-build",
		Timestamp:         "2026-01-01T00:00:00Z",
		HeatmapDimensions: primary,
		HeatmapBlueprint:  grid.NewBlueprint(primary),
		TimeSlices:        slices,
		TimeRange:         temporal.Span(slices),
		RecordTypes:       vocab.RecordTypes(),
		Tags:              vocab.Tags(),
		Resolutions:       []grid.Resolution{primary.Resolution(), coarse.Resolution()},
		ResolutionDimensions: map[string]grid.Dimensions{
			primary.Resolution().Key(): primary,
			coarse.Resolution().Key():  coarse,
		},
		MaxCombinationSize: 2,
		Stats: Stats{
			TotalFeatures:         res.Stats.TotalFeatures,
			FeaturesPerRecordType: res.Stats.FeaturesPerRecordType,
			TimeSliceCount:        len(slices),
			GridCellCount:         primary.CellCount(),
			ResolutionCount:       2,
		},
	}
	return fixture{meta: meta, heatmaps: res.Heatmaps, histograms: res.Histograms}
}

func writeFixture(t *testing.T, f fixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visualization.bin")
	if _, err := WriteComplete(path, f.meta, f.heatmaps, f.histograms); err != nil {
		t.Fatalf("WriteComplete() error = %v", err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	path := writeFixture(t, f)

	for _, useMmap := range []bool{true, false} {
		name := "read"
		if useMmap {
			name = "mmap"
		}
		t.Run(name, func(t *testing.T) {
			r, err := Open(path, Options{UseMmap: useMmap})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer r.Close()

			complete, err := r.ReadComplete()
			if err != nil {
				t.Fatalf("ReadComplete() error = %v", err)
			}
			if !reflect.DeepEqual(complete.Heatmaps, f.heatmaps) {
				t.Error("heatmaps differ after round trip")
			}
			if !reflect.DeepEqual(complete.Histograms, f.histograms) {
				t.Error("histograms differ after round trip")
			}
			meta := complete.Metadata
			if meta.Version != FormatVersion || meta.BuildID != "test-build" {
				t.Errorf("metadata version=%q build=%q", meta.Version, meta.BuildID)
			}
			if meta.PrimaryResolution() != "4x4" {
				t.Errorf("PrimaryResolution() = %q, want 4x4", meta.PrimaryResolution())
			}
			if !reflect.DeepEqual(meta.TimeSlices, f.meta.TimeSlices) {
				t.Errorf("TimeSlices = %+v", meta.TimeSlices)
			}
			if len(meta.HeatmapBlueprint.Cells) != 16 {
				t.Errorf("blueprint has %d cells, want 16", len(meta.HeatmapBlueprint.Cells))
			}
		})
	}
}

func TestRoundTrip_ByteIdenticalRewrite(t *testing.T) {
	f := newFixture(t)
	path := writeFixture(t, f)
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	r, err := Open(path, Options{UseMmap: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	complete, err := r.ReadComplete()
	if err != nil {
		t.Fatalf("ReadComplete() error = %v", err)
	}

	enc, err := Encode(*complete.Metadata, complete.Heatmaps, complete.Histograms)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var buf bytes.Buffer
	if _, err := enc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Errorf("rewritten file differs: %d bytes vs %d bytes", buf.Len(), len(original))
	}
}

func TestEncode_Deterministic(t *testing.T) {
	f := newFixture(t)
	first, err := Encode(f.meta, f.heatmaps, f.histograms)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := Encode(f.meta, f.heatmaps, f.histograms)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		for _, block := range []struct {
			name      string
			want, got  []byte
		}{
			{"metadata", first.MetaBlock, again.MetaBlock},
			{"heatmaps", first.Heatmaps, again.Heatmaps},
			{"histograms", first.Histograms, again.Histograms},
		} {
			if !bytes.Equal(block.want, block.got) {
				t.Fatalf("run %d: %s block differs", i, block.name)
			}
		}
	}
}

func TestSortedMap_EncodesKeysInOrder(t *testing.T) {
	m := SortedMap[int]{"photo": 3, "drawing": 1, "map": 2, "aerial": 4}
	got, err := marshal(m)
	if err != nil {
		t.Fatalf("marshal() error = %v", err)
	}

	var want bytes.Buffer
	enc := msgpack.NewEncoder(&want)
	_ = enc.EncodeMapLen(4)
	for _, kv := range []struct {
		k string
		v int
	}{{"aerial", 4}, {"drawing", 1}, {"map", 2}, {"photo", 3}} {
		_ = enc.EncodeString(kv.k)
		_ = enc.Encode(kv.v)
	}
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("marshal() = %x, want %x", got, want.Bytes())
	}

	var back SortedMap[int]
	if err := unmarshal(got, &back); err != nil {
		t.Fatalf("unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(back, m) {
		t.Errorf("unmarshal() = %v, want %v", back, m)
	}

	var nilMap SortedMap[int]
	b, err := marshal(nilMap)
	if err != nil || !bytes.Equal(b, []byte{0xc0}) {
		t.Errorf("marshal(nil) = %x, %v; want c0", b, err)
	}
}

func TestRoundTrip_FloatBitsPreserved(t *testing.T) {
	values := []float32{0, 1, 1.0 / 3, 0.1, 2.5e-7, 0.99999994}
	got, err := unpackFloat32(packFloat32(values), len(values))
	if err != nil {
		t.Fatalf("unpackFloat32() error = %v", err)
	}
	if !reflect.DeepEqual(got, values) {
		t.Errorf("unpackFloat32() = %v, want %v", got, values)
	}
	counts := []uint32{0, 1, 1 << 31, 4294967295}
	gotCounts, err := unpackUint32(packUint32(counts), len(counts))
	if err != nil || !reflect.DeepEqual(gotCounts, counts) {
		t.Errorf("unpackUint32() = %v, %v", gotCounts, err)
	}
}

func TestSectionsDecodeIndependently(t *testing.T) {
	f := newFixture(t)
	enc, err := Encode(f.meta, f.heatmaps, f.histograms)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var buf bytes.Buffer
	_, _ = enc.WriteTo(&buf)
	data := buf.Bytes()

	// Corrupt the heatmaps section only.
	start := headerSize + len(enc.MetaBlock)
	for i := start; i < start+len(enc.Heatmaps); i++ {
		data[i] = 0xc1
	}

	r, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if _, err := r.ReadHistograms(); err != nil {
		t.Errorf("ReadHistograms() error = %v, want nil", err)
	}
	if _, err := r.ReadHeatmaps(); !errors.Is(err, ErrDecode) {
		t.Errorf("ReadHeatmaps() error = %v, want ErrDecode", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	f := newFixture(t)
	path := writeFixture(t, f)
	full, _ := os.ReadFile(path)
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		return p
	}

	metaLen := binary.BigEndian.Uint32(full)
	badMeta := append([]byte{}, full...)
	for i := headerSize; i < headerSize+8; i++ {
		badMeta[i] = 0xc1
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing file", filepath.Join(dir, "missing.bin"), ErrOpen},
		{"empty file", write("empty.bin", nil), ErrTruncated},
		{"header only", write("header.bin", full[:headerSize]), ErrTruncated},
		{"truncated metadata", write("meta.bin", full[:headerSize+int(metaLen)/2]), ErrTruncated},
		{"truncated sections", write("sections.bin", full[:len(full)-1]), ErrTruncated},
		{"corrupt metadata", write("corrupt.bin", badMeta), ErrDecode},
	}
	for _, tt := range tests {
		for _, useMmap := range []bool{true, false} {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Open(tt.path, Options{UseMmap: useMmap})
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open(mmap=%v) error = %v, want %v", useMmap, err, tt.wantErr)
				}
			})
		}
	}
}

func TestOpenAndDecodeErrorsAreDistinct(t *testing.T) {
	if errors.Is(ErrTruncated, ErrOpen) || errors.Is(ErrOpen, ErrDecode) {
		t.Error("open and decode errors must be distinguishable")
	}
	if !errors.Is(ErrTruncated, ErrDecode) {
		t.Error("ErrTruncated should be a decode error")
	}
}

func TestReader_RejectsArraysOfWrongLength(t *testing.T) {
	f := newFixture(t)

	// Declare a 4x4 grid but store 3-cell arrays.
	bad := wireHeatmaps{"4x4": {"1800_1850": {"image": {
		Base: wireHeatmap{Counts: packUint32([]uint32{1, 2, 3}), Density: packFloat32([]float32{0.3, 0.6, 1})},
	}}}}
	heatBytes, _ := marshal(bad)
	histBytes, _ := marshal(encodeHistograms(f.histograms))
	meta := f.meta
	meta.Version = FormatVersion
	meta.Sections = Sections{
		Heatmaps:   Section{Offset: 0, Length: uint64(len(heatBytes))},
		Histograms: Section{Offset: uint64(len(heatBytes)), Length: uint64(len(histBytes))},
	}
	metaBytes, _ := marshal(&meta)

	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, uint32(len(metaBytes)))
	buf.Write(header)
	buf.Write(metaBytes)
	buf.Write(heatBytes)
	buf.Write(histBytes)

	r, err := FromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if _, err := r.ReadHeatmaps(); !errors.Is(err, ErrDecode) {
		t.Errorf("ReadHeatmaps() error = %v, want ErrDecode", err)
	}
}

func TestReader_RejectsOtherMajorVersion(t *testing.T) {
	f := newFixture(t)
	f.meta.Version = "3.0.0"
	enc, err := Encode(f.meta, f.heatmaps, f.histograms)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var buf bytes.Buffer
	_, _ = enc.WriteTo(&buf)
	if _, err := FromBytes(buf.Bytes()); !errors.Is(err, ErrDecode) {
		t.Errorf("FromBytes() error = %v, want ErrDecode", err)
	}
}

func TestEncode_LayoutChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
	}{
		{"short heatmap", func(f *fixture) {
			entry := f.heatmaps["4x4"]["1800_1850"]["image"]
			entry.Base.CountArray = entry.Base.CountArray[:3]
		}},
		{"undeclared resolution", func(f *fixture) {
			f.heatmaps["9x9"] = f.heatmaps["2x2"]
		}},
		{"histogram bin count", func(f *fixture) {
			h := f.histograms["image"]
			h.Base.Bins = h.Base.Bins[:1]
		}},
		{"missing dimensions", func(f *fixture) {
			delete(f.meta.ResolutionDimensions, "2x2")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(&f)
			if _, err := Encode(f.meta, f.heatmaps, f.histograms); !errors.Is(err, ErrLayout) {
				t.Errorf("Encode() error = %v, want ErrLayout", err)
			}
		})
	}
}

func TestWriteComplete_SectionOffsets(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	meta, err := WriteComplete(path, f.meta, f.heatmaps, f.histograms)
	if err != nil {
		t.Fatalf("WriteComplete() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	metaLen := int64(binary.BigEndian.Uint32(data))
	end := headerSize + metaLen + int64(meta.Sections.Histograms.Offset+meta.Sections.Histograms.Length)
	if end != info.Size() {
		t.Errorf("sections end at %d, file has %d bytes", end, info.Size())
	}
	if meta.Sections.Heatmaps.Offset != 0 || meta.Sections.Histograms.Offset != meta.Sections.Heatmaps.Length {
		t.Errorf("unexpected section layout %+v", meta.Sections)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}
