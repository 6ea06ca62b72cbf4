// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package binstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomtom215/chronogrid/internal/aggregate"
	"github.com/tomtom215/chronogrid/internal/temporal"
	"github.com/tomtom215/chronogrid/internal/vocabulary"
)

// SortedMap is a string-keyed map that msgpack-encodes its entries in
// ascending key order. Encoder.SetSortMapKeys only reorders a few builtin
// map types, so every map written to a file goes through SortedMap.
type SortedMap[V any] map[string]V

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m SortedMap[V]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if m == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeMapLen(len(m)); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(m[k]); err != nil {
			return fmt.Errorf("key %s: %w", k, err)
		}
	}
	return nil
}

// Fixed-schema records of the heatmaps and histograms sections.

type wireHeatmap struct {
	Counts  []byte `msgpack:"c"`
	Density []byte `msgpack:"d"`
}

type wireRecordTypeHeatmaps struct {
	Base wireHeatmap            `msgpack:"base"`
	Tags SortedMap[wireHeatmap] `msgpack:"tags"`
}

// resolution -> slice -> record type
type wireHeatmaps = SortedMap[SortedMap[SortedMap[wireRecordTypeHeatmaps]]]

type wireHistogram struct {
	Counts []byte `msgpack:"c"`
}

type wireRecordTypeHistograms struct {
	Base wireHistogram            `msgpack:"base"`
	Tags SortedMap[wireHistogram] `msgpack:"tags"`
}

type wireHistograms = SortedMap[wireRecordTypeHistograms]

// marshal encodes v. Maps inside v must be SortedMap for the output to be
// reproducible.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(b []byte, v any) error {
	return msgpack.Unmarshal(b, v)
}

func packUint32(values []uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[4*i:], v)
	}
	return out
}

func packFloat32(values []float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func unpackUint32(b []byte, n int) ([]uint32, error) {
	if len(b) != 4*n {
		return nil, fmt.Errorf("%w: array has %d bytes, expected %d values", ErrDecode, len(b), n)
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[4*i:])
	}
	return out, nil
}

func unpackFloat32(b []byte, n int) ([]float32, error) {
	if len(b) != 4*n {
		return nil, fmt.Errorf("%w: array has %d bytes, expected %d values", ErrDecode, len(b), n)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[4*i:]))
	}
	return out, nil
}

func encodeHeatmap(h aggregate.Heatmap) wireHeatmap {
	return wireHeatmap{Counts: packUint32(h.CountArray), Density: packFloat32(h.DensityArray)}
}

func decodeHeatmap(w wireHeatmap, cells int) (aggregate.Heatmap, error) {
	counts, err := unpackUint32(w.Counts, cells)
	if err != nil {
		return aggregate.Heatmap{}, fmt.Errorf("counts: %w", err)
	}
	density, err := unpackFloat32(w.Density, cells)
	if err != nil {
		return aggregate.Heatmap{}, fmt.Errorf("density: %w", err)
	}
	return aggregate.Heatmap{CountArray: counts, DensityArray: density}, nil
}

func encodeHeatmaps(in aggregate.HeatmapResolutions) wireHeatmaps {
	out := make(wireHeatmaps, len(in))
	for resKey, timeline := range in {
		wt := make(SortedMap[SortedMap[wireRecordTypeHeatmaps]], len(timeline))
		for sliceKey, byType := range timeline {
			wb := make(SortedMap[wireRecordTypeHeatmaps], len(byType))
			for rt, entry := range byType {
				we := wireRecordTypeHeatmaps{
					Base: encodeHeatmap(entry.Base),
					Tags: make(SortedMap[wireHeatmap], len(entry.Tags)),
				}
				for key, h := range entry.Tags {
					we.Tags[key] = encodeHeatmap(h)
				}
				wb[rt] = we
			}
			wt[sliceKey] = wb
		}
		out[resKey] = wt
	}
	return out
}

func decodeHeatmaps(in wireHeatmaps, meta *Metadata) (aggregate.HeatmapResolutions, error) {
	out := make(aggregate.HeatmapResolutions, len(in))
	for resKey, wt := range in {
		dims, ok := meta.Dimensions(resKey)
		if !ok {
			return nil, fmt.Errorf("%w: heatmaps for undeclared resolution %s", ErrDecode, resKey)
		}
		cells := dims.CellCount()
		timeline := make(aggregate.HeatmapTimeline, len(wt))
		for sliceKey, wb := range wt {
			byType := make(map[string]*aggregate.RecordTypeHeatmaps, len(wb))
			for rt, we := range wb {
				base, err := decodeHeatmap(we.Base, cells)
				if err != nil {
					return nil, fmt.Errorf("heatmap %s/%s/%s base: %w", resKey, sliceKey, rt, err)
				}
				entry := &aggregate.RecordTypeHeatmaps{Base: base, Tags: make(map[string]aggregate.Heatmap, len(we.Tags))}
				for key, wh := range we.Tags {
					h, err := decodeHeatmap(wh, cells)
					if err != nil {
						return nil, fmt.Errorf("heatmap %s/%s/%s tag %s: %w", resKey, sliceKey, rt, key, err)
					}
					entry.Tags[key] = h
				}
				byType[rt] = entry
			}
			timeline[sliceKey] = byType
		}
		out[resKey] = timeline
	}
	return out, nil
}

func encodeHistograms(in aggregate.Histograms) wireHistograms {
	out := make(wireHistograms, len(in))
	for rt, entry := range in {
		we := wireRecordTypeHistograms{
			Base: wireHistogram{Counts: packUint32(entry.Base.Counts())},
			Tags: make(SortedMap[wireHistogram], len(entry.Tags)),
		}
		for key, h := range entry.Tags {
			we.Tags[key] = wireHistogram{Counts: packUint32(h.Counts())}
		}
		out[rt] = we
	}
	return out
}

func decodeHistogram(w wireHistogram, slices []temporal.TimeSlice, rt string, tags []string) (aggregate.Histogram, error) {
	counts, err := unpackUint32(w.Counts, len(slices))
	if err != nil {
		return aggregate.Histogram{}, err
	}
	h, err := aggregate.NewHistogram(slices, counts)
	if err != nil {
		return aggregate.Histogram{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	h.RecordTypes = []string{rt}
	h.Tags = tags
	return h, nil
}

func decodeHistograms(in wireHistograms, meta *Metadata) (aggregate.Histograms, error) {
	out := make(aggregate.Histograms, len(in))
	for rt, we := range in {
		base, err := decodeHistogram(we.Base, meta.TimeSlices, rt, nil)
		if err != nil {
			return nil, fmt.Errorf("histogram %s base: %w", rt, err)
		}
		entry := &aggregate.RecordTypeHistograms{Base: base, Tags: make(map[string]aggregate.Histogram, len(we.Tags))}
		for key, wh := range we.Tags {
			h, err := decodeHistogram(wh, meta.TimeSlices, rt, vocabulary.SplitCombinationKey(key))
			if err != nil {
				return nil, fmt.Errorf("histogram %s tag %s: %w", rt, key, err)
			}
			entry.Tags[key] = h
		}
		out[rt] = entry
	}
	return out, nil
}
