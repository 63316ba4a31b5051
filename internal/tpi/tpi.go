// Package tpi computes the Topographic Position Index: elevation minus the
// mean elevation of an annulus around each cell. Positive values are higher
// than their surroundings (ridges), negative values lower (valleys).
package tpi

import (
	"context"

	"go.uber.org/zap"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// Params defines the neighbourhood used for the focal mean.
type Params struct {
	Outer float64    `json:"outer_radius" yaml:"outer_radius"`
	Inner float64    `json:"inner_radius" yaml:"inner_radius"`
	Unit  focal.Unit `json:"unit" yaml:"unit"`
}

// Annulus returns the validated neighbourhood for p.
func (p Params) Annulus() (focal.Annulus, error) {
	return focal.NewAnnulus(p.Inner, p.Outer, p.Unit)
}

// Compute returns dem minus its annulus focal mean. A cell is no-data when
// the DEM cell is no-data or no valid cell falls inside its annulus.
func Compute(ctx context.Context, dem *raster.Grid, p Params, opts ...focal.Option) (*raster.Grid, error) {
	a, err := p.Annulus()
	if err != nil {
		return nil, err
	}

	meta := dem.Meta()
	inner, outer := a.GroundRadii(meta.CellSizeX, meta.CellSizeY)
	zap.L().Info("computing TPI",
		zap.Float64("outer_radius", p.Outer),
		zap.Float64("inner_radius", p.Inner),
		zap.String("unit", p.Unit.String()),
		zap.Float64("outer_ground", outer),
		zap.Float64("inner_ground", inner),
		zap.Float64("swath", 2*outer),
	)

	mean, err := focal.Mean(ctx, dem, a, opts...)
	if err != nil {
		return nil, err
	}
	return raster.Subtract(dem, mean)
}
