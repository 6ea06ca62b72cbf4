// Chronogrid - Spatiotemporal Aggregation Store for Historical Records
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronogrid

package grid

// BlueprintCell describes one cell of the primary grid.
type BlueprintCell struct {
	CellID string `json:"cellId" msgpack:"cellId"`
	Row    int    `json:"row" msgpack:"row"`
	Col    int    `json:"col" msgpack:"col"`
	Bounds Bounds `json:"bounds" msgpack:"bounds"`
}

// Blueprint enumerates every cell of a grid in flat-index order.
type Blueprint struct {
	Rows  int             `json:"rows" msgpack:"rows"`
	Cols  int             `json:"cols" msgpack:"cols"`
	Cells []BlueprintCell `json:"cells" msgpack:"cells"`
}

// NewBlueprint builds the blueprint for d.
func NewBlueprint(d Dimensions) Blueprint {
	cells := make([]BlueprintCell, 0, d.CellCount())
	for row := 0; row < d.RowsAmount; row++ {
		for col := 0; col < d.ColsAmount; col++ {
			cells = append(cells, BlueprintCell{
				CellID: CellID(row, col),
				Row:    row,
				Col:    col,
				Bounds: CellBounds(row, col, d),
			})
		}
	}
	return Blueprint{Rows: d.RowsAmount, Cols: d.ColsAmount, Cells: cells}
}
