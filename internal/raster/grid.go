// Package raster provides the in-memory grid shared by every terrain operator,
// together with raster-wide statistics, reclassification and cell-wise algebra.
//
// A Grid is immutable once built. Operators never modify their inputs; each one
// returns a freshly allocated grid. Validity is tracked per cell, so the no-data
// sentinel is only consulted when a grid is constructed from raw values and when
// values are exported again.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultNoData is the sentinel used when a source does not declare one.
const DefaultNoData = -9999.0

// Meta describes the geometry of a grid.
type Meta struct {
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
	CellSizeX float64 `json:"cell_size_x" yaml:"cell_size_x"`
	CellSizeY float64 `json:"cell_size_y" yaml:"cell_size_y"`
	OriginX   float64 `json:"origin_x" yaml:"origin_x"` // west edge
	OriginY   float64 `json:"origin_y" yaml:"origin_y"` // north edge
	NoData    float64 `json:"nodata" yaml:"nodata"`
}

// Extent is the ground-unit bounding box of a grid.
type Extent struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Validate reports whether the geometry can back a grid.
func (m Meta) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return eris.Errorf("raster: invalid dimensions %dx%d", m.Width, m.Height)
	}
	if !(m.CellSizeX > 0) || !(m.CellSizeY > 0) || math.IsInf(m.CellSizeX, 0) || math.IsInf(m.CellSizeY, 0) {
		return eris.Errorf("raster: invalid cell size %gx%g", m.CellSizeX, m.CellSizeY)
	}
	return nil
}

// Cells returns Width*Height.
func (m Meta) Cells() int { return m.Width * m.Height }

// Extent returns the bounding box covered by the grid.
func (m Meta) Extent() Extent {
	return Extent{
		MinX: m.OriginX,
		MinY: m.OriginY - float64(m.Height)*m.CellSizeY,
		MaxX: m.OriginX + float64(m.Width)*m.CellSizeX,
		MaxY: m.OriginY,
	}
}

// CellCenter returns the ground coordinates of the centre of cell (row, col).
func (m Meta) CellCenter(row, col int) (x, y float64) {
	x = m.OriginX + (float64(col)+0.5)*m.CellSizeX
	y = m.OriginY - (float64(row)+0.5)*m.CellSizeY
	return x, y
}

// SameShape reports whether two grids share dimensions and cell size.
func (m Meta) SameShape(o Meta) bool {
	return m.Width == o.Width && m.Height == o.Height &&
		sameSize(m.CellSizeX, o.CellSizeX) && sameSize(m.CellSizeY, o.CellSizeY)
}

func sameSize(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

// Grid is a row-major raster of float64 cells with per-cell validity.
type Grid struct {
	meta  Meta
	data  []float64
	valid []bool
	count int // valid cells
}

// New builds a grid from row-major values. Cells equal to meta.NoData, and NaN
// cells, are marked as no-data. The values slice is copied.
func New(meta Meta, values []float64) (*Grid, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if len(values) != meta.Cells() {
		return nil, eris.Errorf("raster: got %d values for a %dx%d grid", len(values), meta.Width, meta.Height)
	}

	g := blank(meta)
	for i, v := range values {
		if isNoData(v, meta.NoData) {
			continue
		}
		g.data[i] = v
		g.valid[i] = true
		g.count++
	}
	return g, nil
}

// FromRows builds a grid from a slice of equally sized rows. Width and Height
// in meta are taken from rows.
func FromRows(meta Meta, rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, eris.New("raster: no rows")
	}
	meta.Height = len(rows)
	meta.Width = len(rows[0])

	values := make([]float64, 0, meta.Cells())
	for r, row := range rows {
		if len(row) != meta.Width {
			return nil, eris.Errorf("raster: row %d has %d cells, want %d", r, len(row), meta.Width)
		}
		values = append(values, row...)
	}
	return New(meta, values)
}

// Filled returns a grid where every cell holds v.
func Filled(meta Meta, v float64) (*Grid, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	values := make([]float64, meta.Cells())
	for i := range values {
		values[i] = v
	}
	return New(meta, values)
}

func blank(meta Meta) *Grid {
	return &Grid{
		meta:  meta,
		data:  make([]float64, meta.Cells()),
		valid: make([]bool, meta.Cells()),
	}
}

func isNoData(v, noData float64) bool {
	return math.IsNaN(v) || v == noData
}

// Meta returns the grid geometry.
func (g *Grid) Meta() Meta { return g.meta }

// Width returns the number of columns.
func (g *Grid) Width() int { return g.meta.Width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.meta.Height }

// NoData returns the sentinel written for invalid cells on export.
func (g *Grid) NoData() float64 { return g.meta.NoData }

// ValidCount returns the number of cells holding data.
func (g *Grid) ValidCount() int { return g.count }

// At returns the value at (row, col) and whether the cell holds data.
// It panics if the position is outside the grid.
func (g *Grid) At(row, col int) (float64, bool) {
	i := g.index(row, col)
	return g.data[i], g.valid[i]
}

// Valid reports whether (row, col) holds data.
func (g *Grid) Valid(row, col int) bool {
	return g.valid[g.index(row, col)]
}

// Values returns a row-major copy of the cells with no-data cells set to the
// grid sentinel.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.data))
	for i, v := range g.data {
		if g.valid[i] {
			out[i] = v
		} else {
			out[i] = g.meta.NoData
		}
	}
	return out
}

// ValidValues returns the values of all valid cells in row-major order.
func (g *Grid) ValidValues() []float64 {
	out := make([]float64, 0, g.count)
	for i, v := range g.data {
		if g.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// WithNoData returns a copy of g that exports invalid cells as noData.
func (g *Grid) WithNoData(noData float64) *Grid {
	meta := g.meta
	meta.NoData = noData
	return &Grid{meta: meta, data: g.data, valid: g.valid, count: g.count}
}

func (g *Grid) index(row, col int) int {
	if row < 0 || row >= g.meta.Height || col < 0 || col >= g.meta.Width {
		panic(eris.Errorf("raster: cell (%d,%d) outside %dx%d grid", row, col, g.meta.Width, g.meta.Height))
	}
	return row*g.meta.Width + col
}
