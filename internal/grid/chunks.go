// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package grid

import "fmt"

// Chunk is one rectangle of the ingestion region.
type Chunk struct {
	ID     string
	Row    int
	Col    int
	Bounds Bounds
}

// SpatialChunks splits b into rows x cols rectangles for paged fetching.
// Each chunk is grown by overlap (a fraction of the chunk size) and clamped
// to b, so chunks never reach outside the requested region.
func SpatialChunks(b Bounds, rows, cols int, overlap float64) ([]Chunk, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("chunk grid must have positive rows and cols, got %dx%d", rows, cols)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %v", overlap)
	}

	w := (b.MaxLon - b.MinLon) / float64(cols)
	h := (b.MaxLat - b.MinLat) / float64(rows)
	ow, oh := w*overlap, h*overlap

	chunks := make([]Chunk, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cb := Bounds{
				MinLon: max(b.MinLon, b.MinLon+float64(col)*w-ow),
				MaxLon: min(b.MaxLon, b.MinLon+float64(col+1)*w+ow),
				MinLat: max(b.MinLat, b.MinLat+float64(row)*h-oh),
				MaxLat: min(b.MaxLat, b.MinLat+float64(row+1)*h+oh),
			}
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("chunk_%d_%d", row, col),
				Row:    row,
				Col:    col,
				Bounds: cb,
			})
		}
	}
	return chunks, nil
}
