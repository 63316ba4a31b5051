// Package classify turns TPI grids into categorical terrain maps: the
// six-class slope position and the ten-class landform of Weiss (2001).
package classify

import (
	"github.com/rotisserie/eris"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// Slope position classes.
const (
	Ridge      = 1
	UpperSlope = 2
	MidSlope   = 3
	FlatSlope  = 4
	LowerSlope = 5
	Valley     = 6
)

var slopePositionNames = map[int]string{
	Ridge:      "Ridge",
	UpperSlope: "Upper slope",
	MidSlope:   "Middle slope",
	FlatSlope:  "Flat slope",
	LowerSlope: "Lower slope",
	Valley:     "Valley",
}

// SlopePositionClasses returns the class names keyed by code.
func SlopePositionClasses() map[int]string {
	return copyNames(slopePositionNames)
}

// SlopePositionParams configures SlopePosition.
type SlopePositionParams struct {
	// FlatThreshold is the slope, in degrees, at or below which a mid-slope
	// cell is reported as flat.
	FlatThreshold float64 `json:"flat_slope_threshold" yaml:"flat_slope_threshold"`
}

// DefaultSlopePositionParams returns a 5 degree flat threshold.
func DefaultSlopePositionParams() SlopePositionParams {
	return SlopePositionParams{FlatThreshold: 5}
}

// SlopePosition classifies tpi into slope positions using breaks at half and
// one standard deviation either side of the TPI mean. Mid-slope cells whose
// slope (degrees) is at or below the flat threshold become FlatSlope. A cell
// is no-data where tpi or slope is no-data.
//
// If every TPI cell holds the same value, all of them fall in the mid-slope
// band.
func SlopePosition(tpi, slope *raster.Grid, p SlopePositionParams) (*raster.Grid, error) {
	if err := raster.CheckShape("slope position", tpi, slope); err != nil {
		return nil, err
	}
	if p.FlatThreshold < 0 {
		return nil, eris.Errorf("classify: flat slope threshold %g is negative", p.FlatThreshold)
	}

	s, err := raster.ComputeStats(tpi)
	if err != nil {
		return nil, err
	}

	var banded *raster.Grid
	if s.StdDev == 0 {
		banded = tpi.Map(func(float64) float64 { return MidSlope })
	} else {
		bands, err := raster.BandsFromBreaks(s.Min, s.Max,
			[]float64{s.Mean - s.StdDev, s.Mean - 0.5*s.StdDev, s.Mean + 0.5*s.StdDev, s.Mean + s.StdDev},
			[]int{Valley, LowerSlope, MidSlope, UpperSlope, Ridge},
		)
		if err != nil {
			return nil, err
		}
		remap, err := raster.NewRangeRemap(bands)
		if err != nil {
			return nil, err
		}
		banded = tpi.ReclassifyRange(remap)
	}

	return raster.Combine("slope position", banded, slope, func(code, deg float64) float64 {
		if code == MidSlope && deg <= p.FlatThreshold {
			return code + 1
		}
		return code
	})
}

func copyNames(in map[int]string) map[int]string {
	out := make(map[int]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
