package raster

import "fmt"

// EmptyRasterError is returned when an operation needs at least one valid cell
// and the grid has none (for example, after masking everything out).
type EmptyRasterError struct {
	Op string
}

func (e *EmptyRasterError) Error() string {
	return fmt.Sprintf("%s: raster has no valid cells", e.Op)
}

// DegenerateRasterError is returned when a grid's standard deviation is zero
// and an operation needs to divide by it.
type DegenerateRasterError struct {
	Op     string
	StdDev float64
}

func (e *DegenerateRasterError) Error() string {
	return fmt.Sprintf("%s: raster has zero standard deviation", e.Op)
}

// UnmappedValueError is returned by a value remap when a valid cell holds a
// value missing from the table.
type UnmappedValueError struct {
	Op       string
	Value    float64
	Row, Col int
}

func (e *UnmappedValueError) Error() string {
	return fmt.Sprintf("%s: value %g at (%d,%d) is not in the remap table", e.Op, e.Value, e.Row, e.Col)
}

// MalformedRemapError is returned when range bands are empty, inverted, or do
// not touch their neighbours.
type MalformedRemapError struct {
	Index  int
	Reason string
}

func (e *MalformedRemapError) Error() string {
	return fmt.Sprintf("remap: band %d: %s", e.Index, e.Reason)
}

// ShapeMismatchError is returned when grids combined cell-wise differ in
// dimensions or cell size.
type ShapeMismatchError struct {
	Op          string
	Left, Right Meta
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: grid %dx%d (cell %gx%g) does not match %dx%d (cell %gx%g)",
		e.Op,
		e.Left.Width, e.Left.Height, e.Left.CellSizeX, e.Left.CellSizeY,
		e.Right.Width, e.Right.Height, e.Right.CellSizeX, e.Right.CellSizeY,
	)
}

// CheckShape returns a ShapeMismatchError when any grid differs in shape from
// the first one.
func CheckShape(op string, grids ...*Grid) error {
	if len(grids) < 2 {
		return nil
	}
	first := grids[0].meta
	for _, g := range grids[1:] {
		if !first.SameShape(g.meta) {
			return &ShapeMismatchError{Op: op, Left: first, Right: g.meta}
		}
	}
	return nil
}
