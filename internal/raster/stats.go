package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the valid cells of a grid. StdDev is the population
// standard deviation (divides by N).
type Stats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Count  int     `json:"count" yaml:"count"`
}

// ComputeStats returns mean, population standard deviation, min and max over
// the valid cells of g. It fails with EmptyRasterError when g has no valid
// cells.
func ComputeStats(g *Grid) (Stats, error) {
	values := g.ValidValues()
	if len(values) == 0 {
		return Stats{}, &EmptyRasterError{Op: "stats"}
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	s := Stats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Count:  len(values),
	}

	// Rounding can push the mean a hair outside [min, max] on near-constant grids.
	if s.Mean < s.Min {
		s.Mean = s.Min
	}
	if s.Mean > s.Max {
		s.Mean = s.Max
	}
	return s, nil
}
