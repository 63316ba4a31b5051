package raster

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Band maps the half-open value range [Low, High) to Code. A Point band has
// zero width and matches exactly its bound.
type Band struct {
	Low   float64 `json:"low" yaml:"low"`
	High  float64 `json:"high" yaml:"high"`
	Code  int     `json:"code" yaml:"code"`
	Point bool    `json:"point,omitempty" yaml:"point,omitempty"`
}

func (b Band) empty() bool { return !(b.Low < b.High) && !b.Point }

func (b Band) contains(v float64) bool {
	if b.Point {
		return v == b.Low
	}
	return v >= b.Low && v < b.High
}

// RangeRemap assigns codes to contiguous value bands ordered from low to high.
//
// Bands are evaluated low to high and the first match wins, so a value sitting
// on a shared boundary belongs to the higher band. The top of the highest
// non-empty band is inclusive. Values below the first band take its code and
// values above the last band take the code of the highest non-empty band.
// Zero-width bands are allowed and never match a value inside the domain
// unless marked Point.
type RangeRemap struct {
	bands []Band
}

// NewRangeRemap validates bands and returns a remap over them. Bands must be
// non-empty, each Low <= High, and each band's High must equal the next Low.
func NewRangeRemap(bands []Band) (*RangeRemap, error) {
	if len(bands) == 0 {
		return nil, &MalformedRemapError{Index: 0, Reason: "no bands"}
	}
	for i, b := range bands {
		if math.IsNaN(b.Low) || math.IsNaN(b.High) {
			return nil, &MalformedRemapError{Index: i, Reason: "NaN bound"}
		}
		if b.Low > b.High {
			return nil, &MalformedRemapError{Index: i, Reason: "low bound above high bound"}
		}
		if b.Point && b.Low != b.High {
			return nil, &MalformedRemapError{Index: i, Reason: "point band with nonzero width"}
		}
		if i > 0 && bands[i-1].High != b.Low {
			return nil, &MalformedRemapError{Index: i, Reason: "gap or overlap with previous band"}
		}
	}
	out := make([]Band, len(bands))
	copy(out, bands)
	return &RangeRemap{bands: out}, nil
}

// BandsFromBreaks builds contiguous bands spanning [min, max]. Interior breaks
// must be non-decreasing; they are clamped into the domain so statistically
// derived breaks never produce inverted bands. codes must hold len(breaks)+1
// entries, ordered from the lowest band to the highest. A last break equal to
// max yields a Point top band, so max itself takes the top code; a break
// clamped down to max does not.
func BandsFromBreaks(min, max float64, breaks []float64, codes []int) ([]Band, error) {
	if len(codes) != len(breaks)+1 {
		return nil, &MalformedRemapError{Index: len(codes), Reason: "codes must outnumber breaks by one"}
	}
	if min > max {
		return nil, &MalformedRemapError{Index: 0, Reason: "domain minimum above maximum"}
	}
	for i := 1; i < len(breaks); i++ {
		if breaks[i] < breaks[i-1] {
			return nil, &MalformedRemapError{Index: i, Reason: "breaks are not increasing"}
		}
	}

	bands := make([]Band, 0, len(codes))
	low := min
	for i, code := range codes {
		high := max
		if i < len(breaks) {
			high = clamp(breaks[i], min, max)
		}
		bands = append(bands, Band{Low: low, High: high, Code: code})
		low = high
	}
	if n := len(breaks); n > 0 && breaks[n-1] == max {
		bands[n].Point = true
	}
	return bands, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Bands returns a copy of the remap's bands.
func (r *RangeRemap) Bands() []Band {
	out := make([]Band, len(r.bands))
	copy(out, r.bands)
	return out
}

// Lookup returns the code for v.
func (r *RangeRemap) Lookup(v float64) int {
	if v < r.bands[0].Low {
		return r.bands[0].Code
	}
	for _, b := range r.bands {
		if b.contains(v) {
			return b.Code
		}
	}
	for i := len(r.bands) - 1; i >= 0; i-- {
		if !r.bands[i].empty() {
			return r.bands[i].Code
		}
	}
	// Collapsed domain: every band is zero width.
	return r.bands[0].Code
}

// ReclassifyRange returns a grid of codes from r. No-data stays no-data.
func (g *Grid) ReclassifyRange(r *RangeRemap) *Grid {
	return g.Map(func(v float64) float64 {
		return float64(r.Lookup(v))
	})
}

// ValueRemap maps discrete input values to output codes.
type ValueRemap map[float64]int

// ReclassifyValue returns a grid of codes from table. No-data stays no-data.
// The first valid cell (in row-major order) whose value is missing from the
// table fails the whole remap with UnmappedValueError.
func (g *Grid) ReclassifyValue(table ValueRemap) (*Grid, error) {
	out := blank(g.meta)
	w := g.meta.Width
	firstBad := make([]int, g.meta.Height)

	parallel.Line(g.meta.Height, func(start, end int) {
		for row := start; row < end; row++ {
			firstBad[row] = -1
			for i := row * w; i < (row+1)*w; i++ {
				if !g.valid[i] {
					continue
				}
				code, ok := table[g.data[i]]
				if !ok {
					if firstBad[row] < 0 {
						firstBad[row] = i
					}
					continue
				}
				out.data[i] = float64(code)
				out.valid[i] = true
			}
		}
	})

	for _, i := range firstBad {
		if i >= 0 {
			return nil, &UnmappedValueError{Op: "reclassify", Value: g.data[i], Row: i / w, Col: i % w}
		}
	}
	out.count = g.count
	return out, nil
}
