package raster

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Map returns a grid holding fn(v) for every valid cell of g. A NaN result is
// stored as no-data.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := blank(g.meta)
	w := g.meta.Width

	parallel.Line(g.meta.Height, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			if !g.valid[i] {
				continue
			}
			v := fn(g.data[i])
			if math.IsNaN(v) {
				continue
			}
			out.data[i] = v
			out.valid[i] = true
		}
	})

	out.recount()
	return out
}

// Combine returns a grid holding fn(a, b) cell-wise. A cell is no-data when
// either operand cell is no-data or fn returns NaN. The result keeps a's
// geometry and sentinel.
func Combine(op string, a, b *Grid, fn func(x, y float64) float64) (*Grid, error) {
	if err := CheckShape(op, a, b); err != nil {
		return nil, err
	}

	out := blank(a.meta)
	w := a.meta.Width

	parallel.Line(a.meta.Height, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			if !a.valid[i] || !b.valid[i] {
				continue
			}
			v := fn(a.data[i], b.data[i])
			if math.IsNaN(v) {
				continue
			}
			out.data[i] = v
			out.valid[i] = true
		}
	})

	out.recount()
	return out, nil
}

// Subtract returns a − b cell-wise.
func Subtract(a, b *Grid) (*Grid, error) {
	return Combine("subtract", a, b, func(x, y float64) float64 { return x - y })
}

// Add returns a + b cell-wise.
func Add(a, b *Grid) (*Grid, error) {
	return Combine("add", a, b, func(x, y float64) float64 { return x + y })
}

func (g *Grid) recount() {
	g.count = 0
	for _, ok := range g.valid {
		if ok {
			g.count++
		}
	}
}
