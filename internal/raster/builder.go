package raster

import "math"

// Builder assembles a new grid cell by cell. All cells start as no-data.
// Distinct cells may be set from different goroutines; Grid must only be
// called once every writer has finished.
type Builder struct {
	g *Grid
}

// NewBuilder returns a builder for a grid with the given geometry.
func NewBuilder(meta Meta) *Builder {
	return &Builder{g: blank(meta)}
}

// Set stores v at (row, col). NaN is stored as no-data.
func (b *Builder) Set(row, col int, v float64) {
	b.SetIndex(b.g.index(row, col), v)
}

// SetIndex stores v at row-major index i. NaN is stored as no-data.
func (b *Builder) SetIndex(i int, v float64) {
	if math.IsNaN(v) {
		b.g.valid[i] = false
		return
	}
	b.g.data[i] = v
	b.g.valid[i] = true
}

// Grid finalizes the builder. The builder must not be used afterwards.
func (b *Builder) Grid() *Grid {
	g := b.g
	b.g = nil
	g.recount()
	return g
}
