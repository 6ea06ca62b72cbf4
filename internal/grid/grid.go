// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package grid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidCellID is returned when a cell id is not of the form "row_col".
var ErrInvalidCellID = errors.New("invalid cell id")

// Bounds is an axis-aligned geographic rectangle.
type Bounds struct {
	MinLon float64 `json:"minLon" msgpack:"minLon"`
	MaxLon float64 `json:"maxLon" msgpack:"maxLon"`
	MinLat float64 `json:"minLat" msgpack:"minLat"`
	MaxLat float64 `json:"maxLat" msgpack:"maxLat"`
}

// FromOrb converts an orb.Bound (Min is the south-west corner).
func FromOrb(b orb.Bound) Bounds {
	return Bounds{MinLon: b.Min.Lon(), MaxLon: b.Max.Lon(), MinLat: b.Min.Lat(), MaxLat: b.Max.Lat()}
}

// Orb returns the bounds as an orb.Bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// Contains reports whether p lies in the half-open box [min, max).
func (b Bounds) Contains(p orb.Point) bool {
	return p.Lon() >= b.MinLon && p.Lon() < b.MaxLon &&
		p.Lat() >= b.MinLat && p.Lat() < b.MaxLat
}

// Validate checks that the box has a positive extent.
func (b Bounds) Validate() error {
	if math.IsNaN(b.MinLon) || math.IsNaN(b.MaxLon) || math.IsNaN(b.MinLat) || math.IsNaN(b.MaxLat) {
		return fmt.Errorf("bounds contain NaN")
	}
	if b.MaxLon <= b.MinLon {
		return fmt.Errorf("maxLon %v must be greater than minLon %v", b.MaxLon, b.MinLon)
	}
	if b.MaxLat <= b.MinLat {
		return fmt.Errorf("maxLat %v must be greater than minLat %v", b.MaxLat, b.MinLat)
	}
	return nil
}

// Pad grows the box by fraction*extent on every side.
func (b Bounds) Pad(fraction float64) Bounds {
	dLon := (b.MaxLon - b.MinLon) * fraction
	dLat := (b.MaxLat - b.MinLat) * fraction
	return Bounds{
		MinLon: b.MinLon - dLon,
		MaxLon: b.MaxLon + dLon,
		MinLat: b.MinLat - dLat,
		MaxLat: b.MaxLat + dLat,
	}
}

// Dimensions fixes one resolution over a bounding box.
type Dimensions struct {
	MinLon     float64 `json:"minLon" msgpack:"minLon"`
	MaxLon     float64 `json:"maxLon" msgpack:"maxLon"`
	MinLat     float64 `json:"minLat" msgpack:"minLat"`
	MaxLat     float64 `json:"maxLat" msgpack:"maxLat"`
	CellWidth  float64 `json:"cellWidth" msgpack:"cellWidth"`
	CellHeight float64 `json:"cellHeight" msgpack:"cellHeight"`
	ColsAmount int     `json:"colsAmount" msgpack:"colsAmount"`
	RowsAmount int     `json:"rowsAmount" msgpack:"rowsAmount"`
}

// NewDimensions pads bounds and divides the result into cols x rows cells.
func NewDimensions(bounds Bounds, cols, rows int, padding float64) (Dimensions, error) {
	if err := bounds.Validate(); err != nil {
		return Dimensions{}, err
	}
	if cols <= 0 || rows <= 0 {
		return Dimensions{}, fmt.Errorf("grid must have positive cols and rows, got %dx%d", cols, rows)
	}
	if padding < 0 {
		return Dimensions{}, fmt.Errorf("padding must not be negative, got %v", padding)
	}
	p := bounds.Pad(padding)
	return Dimensions{
		MinLon:     p.MinLon,
		MaxLon:     p.MaxLon,
		MinLat:     p.MinLat,
		MaxLat:     p.MaxLat,
		CellWidth:  (p.MaxLon - p.MinLon) / float64(cols),
		CellHeight: (p.MaxLat - p.MinLat) / float64(rows),
		ColsAmount: cols,
		RowsAmount: rows,
	}, nil
}

// Bounds returns the padded box covered by the grid.
func (d Dimensions) Bounds() Bounds {
	return Bounds{MinLon: d.MinLon, MaxLon: d.MaxLon, MinLat: d.MinLat, MaxLat: d.MaxLat}
}

// CellCount is the length of every array at this resolution.
func (d Dimensions) CellCount() int {
	return d.ColsAmount * d.RowsAmount
}

// Resolution returns the resolution these dimensions were built for.
func (d Dimensions) Resolution() Resolution {
	return Resolution{Cols: d.ColsAmount, Rows: d.RowsAmount}
}

// CellID formats a cell id.
func CellID(row, col int) string {
	return strconv.Itoa(row) + "_" + strconv.Itoa(col)
}

// ParseCellID splits a "row_col" id.
func ParseCellID(id string) (row, col int, err error) {
	r, c, found := strings.Cut(id, "_")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}
	row, err = strconv.Atoi(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}
	col, err = strconv.Atoi(c)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}
	return row, col, nil
}

// CellFor returns the row and column containing p. ok is false when p is
// outside the grid. The result always satisfies CellBounds(row, col, d)
// containing p, including for points exactly on a cell edge.
func CellFor(p orb.Point, d Dimensions) (row, col int, ok bool) {
	if !d.Bounds().Contains(p) {
		return 0, 0, false
	}
	col = int(math.Floor((p.Lon() - d.MinLon) / d.CellWidth))
	row = int(math.Floor((p.Lat() - d.MinLat) / d.CellHeight))

	// The division can land one cell off on an edge; settle against the
	// edges CellBounds reports.
	col = settle(col, p.Lon(), d.ColsAmount, d.lonEdge)
	row = settle(row, p.Lat(), d.RowsAmount, d.latEdge)
	return row, col, true
}

// settle moves i to the cell of n whose [edge(i), edge(i+1)) holds v.
// v must lie in [edge(0), edge(n)).
func settle(i int, v float64, n int, edge func(int) float64) int {
	i = min(max(i, 0), n-1)
	for i > 0 && v < edge(i) {
		i--
	}
	for i < n-1 && v >= edge(i+1) {
		i++
	}
	return i
}

// lonEdge is the west edge of column i. Column ColsAmount is the east
// edge of the grid.
func (d Dimensions) lonEdge(i int) float64 {
	if i >= d.ColsAmount {
		return d.MaxLon
	}
	return d.MinLon + float64(i)*d.CellWidth
}

func (d Dimensions) latEdge(i int) float64 {
	if i >= d.RowsAmount {
		return d.MaxLat
	}
	return d.MinLat + float64(i)*d.CellHeight
}

// CellIDFor returns the id of the cell containing p.
func CellIDFor(p orb.Point, d Dimensions) (string, bool) {
	row, col, ok := CellFor(p, d)
	if !ok {
		return "", false
	}
	return CellID(row, col), true
}

// FlatIndexFor returns the array index of the cell containing p.
func FlatIndexFor(p orb.Point, d Dimensions) (int, bool) {
	row, col, ok := CellFor(p, d)
	if !ok {
		return 0, false
	}
	return FlatIndex(row, col, d), true
}

// FlatIndex returns row*ColsAmount+col.
func FlatIndex(row, col int, d Dimensions) int {
	return row*d.ColsAmount + col
}

// CellBounds returns the box of the cell at row, col.
func CellBounds(row, col int, d Dimensions) Bounds {
	return Bounds{
		MinLon: d.lonEdge(col),
		MaxLon: d.lonEdge(col + 1),
		MinLat: d.latEdge(row),
		MaxLat: d.latEdge(row + 1),
	}
}

// CellBoundsFor parses id and returns the bounds of that cell.
func CellBoundsFor(id string, d Dimensions) (Bounds, error) {
	row, col, err := ParseCellID(id)
	if err != nil {
		return Bounds{}, err
	}
	if row < 0 || row >= d.RowsAmount || col < 0 || col >= d.ColsAmount {
		return Bounds{}, fmt.Errorf("%w: %q outside %dx%d grid", ErrInvalidCellID, id, d.ColsAmount, d.RowsAmount)
	}
	return CellBounds(row, col, d), nil
}
