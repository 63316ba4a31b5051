package classify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// openSlopeOffset is added to cells that are flat at both scales but steep.
const openSlopeOffset = 10

// LandformTable maps the combined small/large scale code to a landform class.
// Small-scale codes are -1, 0, 1 and large-scale codes -1000, 0, 1000; 10
// marks an open slope.
var LandformTable = raster.ValueRemap{
	-1001: 1,
	-1000: 4,
	-999:  8,
	-1:    2,
	0:     5,
	1:     9,
	10:    6,
	999:   3,
	1000:  7,
	1001:  10,
}

var landformNames = map[int]string{
	1:  "Canyons, deeply incised streams",
	2:  "Midslope drainages, shallow valleys",
	3:  "Upland drainages, headwaters",
	4:  "U-shaped valleys",
	5:  "Plains",
	6:  "Open slopes",
	7:  "Upper slopes, mesas",
	8:  "Local ridges, hills in valleys",
	9:  "Midslope ridges, small hills in plains",
	10: "Mountain tops, high ridges",
}

// LandformClasses returns the class names keyed by code.
func LandformClasses() map[int]string {
	return copyNames(landformNames)
}

// LandformParams configures Landform.
type LandformParams struct {
	// StdDevThreshold splits standardized TPI into low, neutral and high.
	StdDevThreshold float64 `json:"stdev_threshold" yaml:"stdev_threshold"`
	// SlopeThreshold (degrees) above which a doubly neutral cell is an open slope.
	SlopeThreshold float64 `json:"slope_threshold" yaml:"slope_threshold"`
}

// DefaultLandformParams returns a one standard deviation split and a 5 degree
// slope threshold.
func DefaultLandformParams() LandformParams {
	return LandformParams{StdDevThreshold: 1, SlopeThreshold: 5}
}

// Landform classifies terrain from a small- and a large-neighbourhood TPI and
// a slope grid in degrees. Both TPI grids are standardized and split at
// ±StdDevThreshold; the resulting codes are summed, open slopes are marked,
// and the sum is mapped through LandformTable.
func Landform(ctx context.Context, small, large, slope *raster.Grid, p LandformParams) (*raster.Grid, error) {
	if err := raster.CheckShape("landform", small, large, slope); err != nil {
		return nil, err
	}
	if p.StdDevThreshold < 0 {
		return nil, eris.Errorf("classify: standard deviation threshold %g is negative", p.StdDevThreshold)
	}

	var smallCodes, largeCodes *raster.Grid
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		smallCodes, err = scaleCodes(gctx, small, p.StdDevThreshold, 1)
		return err
	})
	g.Go(func() error {
		var err error
		largeCodes, err = scaleCodes(gctx, large, p.StdDevThreshold, 1000)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined, err := raster.Add(smallCodes, largeCodes)
	if err != nil {
		return nil, err
	}

	final, err := raster.Combine("landform", combined, slope, func(code, deg float64) float64 {
		if code == 0 && deg > p.SlopeThreshold {
			return code + openSlopeOffset
		}
		return code
	})
	if err != nil {
		return nil, err
	}

	out, err := final.ReclassifyValue(LandformTable)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("landform classified", zap.Int("valid_cells", out.ValidCount()))
	return out, nil
}

// scaleCodes standardizes tpi and bands it into -weight, 0 and +weight.
func scaleCodes(ctx context.Context, tpi *raster.Grid, threshold float64, weight int) (*raster.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	z, err := Standardize(tpi)
	if err != nil {
		return nil, err
	}
	s, err := raster.ComputeStats(z)
	if err != nil {
		return nil, err
	}

	bands, err := raster.BandsFromBreaks(s.Min, s.Max,
		[]float64{-threshold, threshold},
		[]int{-weight, 0, weight},
	)
	if err != nil {
		return nil, err
	}
	remap, err := raster.NewRangeRemap(bands)
	if err != nil {
		return nil, err
	}
	return z.ReclassifyRange(remap), nil
}

// Standardize returns (g - mean) / sd over the valid cells of g. It fails with
// DegenerateRasterError when every valid cell holds the same value.
func Standardize(g *raster.Grid) (*raster.Grid, error) {
	s, err := raster.ComputeStats(g)
	if err != nil {
		return nil, err
	}
	if s.StdDev == 0 {
		return nil, &raster.DegenerateRasterError{Op: "standardize", StdDev: s.StdDev}
	}
	return g.Map(func(v float64) float64 {
		return (v - s.Mean) / s.StdDev
	}), nil
}
