// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/logging"
	"github.com/tomtom215/chronogrid/internal/metrics"
)

const headerSize = 4

// maxMetadataLength is the largest metadata block the 4-byte header can describe.
const maxMetadataLength = math.MaxUint32

// Encoded is a fully encoded file, ready to be written.
type Encoded struct {
	Metadata   Metadata
	Header     []byte
	MetaBlock  []byte
	Heatmaps   []byte
	Histograms []byte
}

// Size is the total file size in bytes.
func (e *Encoded) Size() int {
	return len(e.Header) + len(e.MetaBlock) + len(e.Heatmaps) + len(e.Histograms)
}

// WriteTo writes the blocks in file order and checks every block was
// written in full.
func (e *Encoded) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, block := range []struct {
		name string
		data []byte
	}{
		{"header", e.Header},
		{"metadata", e.MetaBlock},
		{"heatmaps", e.Heatmaps},
		{"histograms", e.Histograms},
	} {
		n, err := w.Write(block.data)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write %s: %w", block.name, err)
		}
		if n != len(block.data) {
			return total, fmt.Errorf("write %s: wrote %d of %d bytes: %w", block.name, n, len(block.data), io.ErrShortWrite)
		}
	}
	return total, nil
}

// Encode validates the arrays against meta and encodes every block. The
// returned metadata carries the section offsets.
func Encode(meta Metadata, heatmaps aggregate.HeatmapResolutions, histograms aggregate.Histograms) (*Encoded, error) {
	if meta.Version == "" {
		meta.Version = FormatVersion
	}
	if err := meta.validateLayout(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayout, err)
	}
	if err := checkHeatmaps(&meta, heatmaps); err != nil {
		return nil, err
	}
	if err := checkHistograms(&meta, histograms); err != nil {
		return nil, err
	}

	heatBytes, err := marshal(encodeHeatmaps(heatmaps))
	if err != nil {
		return nil, fmt.Errorf("encode heatmaps: %w", err)
	}
	histBytes, err := marshal(encodeHistograms(histograms))
	if err != nil {
		return nil, fmt.Errorf("encode histograms: %w", err)
	}

	meta.Sections = Sections{
		Heatmaps:   Section{Offset: 0, Length: uint64(len(heatBytes))},
		Histograms: Section{Offset: uint64(len(heatBytes)), Length: uint64(len(histBytes))},
	}
	metaBytes, err := marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if uint64(len(metaBytes)) > maxMetadataLength {
		return nil, fmt.Errorf("%w: metadata is %d bytes", ErrSectionTooLarge, len(metaBytes))
	}
	if meta.Sections.Histograms.Offset+meta.Sections.Histograms.Length != uint64(len(heatBytes)+len(histBytes)) {
		return nil, fmt.Errorf("%w: section offsets do not cover the data region", ErrSectionTooLarge)
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, uint32(len(metaBytes)))

	return &Encoded{
		Metadata:   meta,
		Header:     header,
		MetaBlock:  metaBytes,
		Heatmaps:   heatBytes,
		Histograms: histBytes,
	}, nil
}

// WriteComplete encodes the store and writes it to path. The file is written
// to a temporary name in the same directory and renamed into place.
func WriteComplete(path string, meta Metadata, heatmaps aggregate.HeatmapResolutions, histograms aggregate.Histograms) (*Metadata, error) {
	enc, err := Encode(meta, heatmaps, histograms)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".chronogrid-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	written, err := enc.WriteTo(tmp)
	if err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if written != int64(enc.Size()) {
		_ = tmp.Close()
		return nil, fmt.Errorf("wrote %d bytes, expected %d", written, enc.Size())
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}

	metrics.RecordBuildOutput("metadata", len(enc.MetaBlock))
	metrics.RecordBuildOutput("heatmaps", len(enc.Heatmaps))
	metrics.RecordBuildOutput("histograms", len(enc.Histograms))
	logging.Info().
		Str("path", path).
		Int("metadata_bytes", len(enc.MetaBlock)).
		Int("heatmaps_bytes", len(enc.Heatmaps)).
		Int("histograms_bytes", len(enc.Histograms)).
		Msg("Binary store written")

	return &enc.Metadata, nil
}

func checkHeatmaps(meta *Metadata, heatmaps aggregate.HeatmapResolutions) error {
	for resKey, timeline := range heatmaps {
		dims, ok := meta.Dimensions(resKey)
		if !ok {
			return fmt.Errorf("%w: heatmaps for undeclared resolution %s", ErrLayout, resKey)
		}
		cells := dims.CellCount()
		for sliceKey, byType := range timeline {
			for rt, entry := range byType {
				if err := checkHeatmap(entry.Base, cells); err != nil {
					return fmt.Errorf("heatmap %s/%s/%s base: %w", resKey, sliceKey, rt, err)
				}
				for key, h := range entry.Tags {
					if err := checkHeatmap(h, cells); err != nil {
						return fmt.Errorf("heatmap %s/%s/%s tag %s: %w", resKey, sliceKey, rt, key, err)
					}
				}
			}
		}
	}
	return nil
}

func checkHeatmap(h aggregate.Heatmap, cells int) error {
	if len(h.CountArray) != cells || len(h.DensityArray) != cells {
		return fmt.Errorf("%w: %d counts and %d densities for %d cells", ErrLayout, len(h.CountArray), len(h.DensityArray), cells)
	}
	return nil
}

func checkHistograms(meta *Metadata, histograms aggregate.Histograms) error {
	n := len(meta.TimeSlices)
	for rt, entry := range histograms {
		if len(entry.Base.Bins) != n {
			return fmt.Errorf("%w: histogram %s base has %d bins for %d slices", ErrLayout, rt, len(entry.Base.Bins), n)
		}
		for key, h := range entry.Tags {
			if len(h.Bins) != n {
				return fmt.Errorf("%w: histogram %s tag %s has %d bins for %d slices", ErrLayout, rt, key, len(h.Bins), n)
			}
		}
	}
	return nil
}
