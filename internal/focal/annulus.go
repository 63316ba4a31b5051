// Package focal computes neighbourhood statistics over raster grids. The only
// neighbourhood in use is the annulus (a ring between an inner and an outer
// radius), evaluated in ground units.
package focal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Unit says how annulus radii are measured.
type Unit int

const (
	// UnitCell radii count cells.
	UnitCell Unit = iota
	// UnitGround radii use the grid's linear units (usually metres).
	UnitGround
)

// ParseUnit accepts CELL, GROUND and MAP (an alias of GROUND), in any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CELL", "CELLS":
		return UnitCell, nil
	case "GROUND", "MAP":
		return UnitGround, nil
	default:
		return 0, eris.Errorf("focal: unknown radius unit %q (want CELL or MAP)", s)
	}
}

func (u Unit) String() string {
	switch u {
	case UnitCell:
		return "CELL"
	case UnitGround:
		return "GROUND"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// MarshalText encodes the unit by name.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes a unit name accepted by ParseUnit.
func (u *Unit) UnmarshalText(b []byte) error {
	parsed, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// InvalidNeighborhoodError is returned for radii that cannot form a ring.
type InvalidNeighborhoodError struct {
	Inner, Outer float64
	Reason       string
}

func (e *InvalidNeighborhoodError) Error() string {
	return fmt.Sprintf("focal: invalid annulus (inner %g, outer %g): %s", e.Inner, e.Outer, e.Reason)
}

// Annulus is a ring neighbourhood. Cells whose centre lies at a ground
// distance d from the focal cell centre with Inner <= d <= Outer belong to it.
// An inner radius of zero includes the focal cell itself.
type Annulus struct {
	Inner float64
	Outer float64
	Unit  Unit
}

// NewAnnulus returns a validated annulus.
func NewAnnulus(inner, outer float64, unit Unit) (Annulus, error) {
	a := Annulus{Inner: inner, Outer: outer, Unit: unit}
	if err := a.Validate(); err != nil {
		return Annulus{}, err
	}
	return a, nil
}

// Validate checks that 0 <= Inner < Outer.
func (a Annulus) Validate() error {
	switch {
	case math.IsNaN(a.Inner) || math.IsNaN(a.Outer) || math.IsInf(a.Inner, 0) || math.IsInf(a.Outer, 0):
		return &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "radii must be finite"}
	case a.Outer <= 0:
		return &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "outer radius must be positive"}
	case a.Inner < 0:
		return &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "inner radius must not be negative"}
	case a.Inner >= a.Outer:
		return &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "inner radius must be smaller than outer radius"}
	case a.Unit != UnitCell && a.Unit != UnitGround:
		return &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "unknown unit " + a.Unit.String()}
	}
	return nil
}

// GroundRadii converts the radii to ground units. Cell radii are scaled by the
// larger cell dimension so anisotropic cells still get full circular coverage.
func (a Annulus) GroundRadii(cellX, cellY float64) (inner, outer float64) {
	if a.Unit == UnitGround {
		return a.Inner, a.Outer
	}
	size := math.Max(cellX, cellY)
	return a.Inner * size, a.Outer * size
}

// Offset is a (row, column) displacement from the focal cell.
type Offset struct {
	DRow, DCol int
}

// Offsets lists every displacement whose cell centre falls inside the ring for
// the given cell size, ordered by row then column.
func (a Annulus) Offsets(cellX, cellY float64) []Offset {
	inner, outer := a.GroundRadii(cellX, cellY)
	eps := 1e-9 * outer
	maxRow := int(math.Floor(outer/cellY + 1e-9))
	maxCol := int(math.Floor(outer/cellX + 1e-9))

	var out []Offset
	for dr := -maxRow; dr <= maxRow; dr++ {
		for dc := -maxCol; dc <= maxCol; dc++ {
			d := math.Hypot(float64(dr)*cellY, float64(dc)*cellX)
			if d >= inner-eps && d <= outer+eps {
				out = append(out, Offset{DRow: dr, DCol: dc})
			}
		}
	}
	return out
}

// span is a run of consecutive columns [Lo, Hi] at one row displacement.
type span struct {
	DRow   int
	Lo, Hi int
}

// spans compresses offsets into per-row column runs. A ring row crossing the
// hole yields two runs.
func spans(offsets []Offset) []span {
	sorted := make([]Offset, len(offsets))
	copy(sorted, offsets)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DRow != sorted[j].DRow {
			return sorted[i].DRow < sorted[j].DRow
		}
		return sorted[i].DCol < sorted[j].DCol
	})

	var out []span
	for _, o := range sorted {
		if n := len(out); n > 0 && out[n-1].DRow == o.DRow && out[n-1].Hi+1 == o.DCol {
			out[n-1].Hi = o.DCol
			continue
		}
		out = append(out, span{DRow: o.DRow, Lo: o.DCol, Hi: o.DCol})
	}
	return out
}
