// Package render draws quicklook images and histograms of grids.
package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette colours a cell value. ok is false for values it cannot colour,
// which are drawn transparent.
type Palette interface {
	Color(v float64) (c color.Color, ok bool)
}

// Classes colours integer class codes.
type Classes map[int]colorful.Color

// Color implements Palette.
func (p Classes) Color(v float64) (color.Color, bool) {
	c, ok := p[int(v)]
	if !ok || float64(int(v)) != v {
		return nil, false
	}
	return c.Clamped(), true
}

// LandformPalette runs from blue drainages through tan plains to brown and
// white summits.
func LandformPalette() Classes {
	return hexClasses(map[int]string{
		1:  "#08306b",
		2:  "#2171b5",
		3:  "#6baed6",
		4:  "#74c476",
		5:  "#f7f4b7",
		6:  "#fdae6b",
		7:  "#d94801",
		8:  "#a63603",
		9:  "#7f2704",
		10: "#f0f0f0",
	})
}

// SlopePositionPalette runs from brown ridges to blue valleys.
func SlopePositionPalette() Classes {
	return hexClasses(map[int]string{
		1: "#8c510a",
		2: "#d8b365",
		3: "#f6e8c3",
		4: "#c7eae5",
		5: "#5ab4ac",
		6: "#01665e",
	})
}

func hexClasses(hex map[int]string) Classes {
	out := make(Classes, len(hex))
	for code, h := range hex {
		out[code] = colorful.MustParseHex(h)
	}
	return out
}

// Ramp is a diverging colour ramp centred on zero, blended in CIE L*a*b*.
type Ramp struct {
	Low, Mid, High colorful.Color
	// Extent is the absolute value mapped to Low and High.
	Extent float64
}

// DivergingRamp returns a blue-white-red ramp reaching full colour at
// ±max(|min|, |max|).
func DivergingRamp(min, max float64) Ramp {
	return Ramp{
		Low:    colorful.MustParseHex("#2166ac"),
		Mid:    colorful.MustParseHex("#f7f7f7"),
		High:   colorful.MustParseHex("#b2182b"),
		Extent: math.Max(math.Abs(min), math.Abs(max)),
	}
}

// Color implements Palette.
func (r Ramp) Color(v float64) (color.Color, bool) {
	if math.IsNaN(v) {
		return nil, false
	}
	if r.Extent == 0 {
		return r.Mid.Clamped(), true
	}
	t := math.Abs(v) / r.Extent
	switch {
	case t == 0:
		return r.Mid.Clamped(), true
	case t >= 1 && v < 0:
		return r.Low.Clamped(), true
	case t >= 1:
		return r.High.Clamped(), true
	case v < 0:
		return r.Mid.BlendLab(r.Low, t).Clamped(), true
	default:
		return r.Mid.BlendLab(r.High, t).Clamped(), true
	}
}
