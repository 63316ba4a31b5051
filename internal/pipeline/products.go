package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samlevin11/TopographicPositionIndex/internal/classify"
	"github.com/samlevin11/TopographicPositionIndex/internal/mask"
	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
	"github.com/samlevin11/TopographicPositionIndex/internal/render"
	"github.com/samlevin11/TopographicPositionIndex/internal/tpi"
)

// TPIRequest computes a TPI grid from a DEM.
type TPIRequest struct {
	DEM    string       `json:"dem" yaml:"dem"`
	Params tpi.Params   `json:"params" yaml:"params"`
	Mask   mask.Options `json:"mask" yaml:"mask"`
	Out    Outputs      `json:"outputs" yaml:"outputs"`
}

// SlopePositionRequest classifies slope position. TPI may name a precomputed
// grid; otherwise it is derived from DEM with TPIParams.
type SlopePositionRequest struct {
	DEM       string                       `json:"dem,omitempty" yaml:"dem,omitempty"`
	TPI       string                       `json:"tpi,omitempty" yaml:"tpi,omitempty"`
	Slope     string                       `json:"slope" yaml:"slope"`
	TPIParams tpi.Params                   `json:"tpi_params" yaml:"tpi_params"`
	Params    classify.SlopePositionParams `json:"params" yaml:"params"`
	Mask      mask.Options                 `json:"mask" yaml:"mask"`
	Out       Outputs                      `json:"outputs" yaml:"outputs"`
}

// LandformRequest classifies landforms. SmallTPI and LargeTPI may name
// precomputed grids; when both are empty the two scales are derived from DEM
// concurrently.
type LandformRequest struct {
	DEM      string                  `json:"dem,omitempty" yaml:"dem,omitempty"`
	SmallTPI string                  `json:"small_tpi,omitempty" yaml:"small_tpi,omitempty"`
	LargeTPI string                  `json:"large_tpi,omitempty" yaml:"large_tpi,omitempty"`
	Slope    string                  `json:"slope" yaml:"slope"`
	Small    tpi.Params              `json:"small" yaml:"small"`
	Large    tpi.Params              `json:"large" yaml:"large"`
	Params   classify.LandformParams `json:"params" yaml:"params"`
	Mask     mask.Options            `json:"mask" yaml:"mask"`
	Out      Outputs                 `json:"outputs" yaml:"outputs"`
}

// RunTPI computes and writes a TPI grid.
func (r *Runner) RunTPI(ctx context.Context, req TPIRequest) (*model.RunResult, error) {
	return r.execute(ctx, model.RunKindTPI, req, req.Out, func(ctx context.Context, log *zap.Logger) (*product, error) {
		if _, err := req.Params.Annulus(); err != nil {
			return nil, err
		}
		in, err := r.inputs(ctx, req.Mask)
		if err != nil {
			return nil, err
		}
		crs := readCRS(log, req.DEM)
		warnUnits(log, crs, req.Params.Unit)

		dem, err := in.load(ctx, "dem", req.DEM)
		if err != nil {
			return nil, err
		}
		g, err := tpi.Compute(ctx, dem, req.Params, r.focalOptions()...)
		if err != nil {
			return nil, err
		}
		return &product{
			grid:    g,
			sources: map[string]string{"dem": req.DEM},
			crs:     crs,
		}, nil
	})
}

// RunSlopePosition computes and writes a slope position grid.
func (r *Runner) RunSlopePosition(ctx context.Context, req SlopePositionRequest) (*model.RunResult, error) {
	return r.execute(ctx, model.RunKindSlopePosition, req, req.Out, func(ctx context.Context, log *zap.Logger) (*product, error) {
		if req.TPI == "" && req.DEM == "" {
			return nil, eris.New("pipeline: slope position needs a TPI grid or a DEM")
		}
		in, err := r.inputs(ctx, req.Mask)
		if err != nil {
			return nil, err
		}

		sources := map[string]string{"slope": req.Slope}
		var tpiGrid *raster.Grid
		var crs rasterio.CRS
		if req.TPI != "" {
			sources["tpi"] = req.TPI
			crs = readCRS(log, req.TPI)
			if tpiGrid, err = in.load(ctx, "tpi", req.TPI); err != nil {
				return nil, err
			}
		} else {
			sources["dem"] = req.DEM
			crs = readCRS(log, req.DEM)
			warnUnits(log, crs, req.TPIParams.Unit)
			dem, err := in.load(ctx, "dem", req.DEM)
			if err != nil {
				return nil, err
			}
			if tpiGrid, err = tpi.Compute(ctx, dem, req.TPIParams, r.focalOptions()...); err != nil {
				return nil, err
			}
		}

		slope, err := in.load(ctx, "slope", req.Slope)
		if err != nil {
			return nil, err
		}
		g, err := classify.SlopePosition(tpiGrid, slope, req.Params)
		if err != nil {
			return nil, err
		}
		return &product{
			grid:    g,
			classes: classify.SlopePositionClasses(),
			palette: render.SlopePositionPalette(),
			sources: sources,
			crs:     crs,
		}, nil
	})
}

// RunLandform computes and writes a landform grid.
func (r *Runner) RunLandform(ctx context.Context, req LandformRequest) (*model.RunResult, error) {
	return r.execute(ctx, model.RunKindLandform, req, req.Out, func(ctx context.Context, log *zap.Logger) (*product, error) {
		precomputed := req.SmallTPI != "" || req.LargeTPI != ""
		if precomputed && (req.SmallTPI == "" || req.LargeTPI == "") {
			return nil, eris.New("pipeline: landform needs both small and large TPI grids")
		}
		if !precomputed && req.DEM == "" {
			return nil, eris.New("pipeline: landform needs TPI grids or a DEM")
		}
		in, err := r.inputs(ctx, req.Mask)
		if err != nil {
			return nil, err
		}

		sources := map[string]string{"slope": req.Slope}
		var small, large *raster.Grid
		var crs rasterio.CRS
		if precomputed {
			crs = readCRS(log, req.SmallTPI)
			sources["small_tpi"] = req.SmallTPI
			sources["large_tpi"] = req.LargeTPI
			if small, err = in.load(ctx, "small tpi", req.SmallTPI); err != nil {
				return nil, err
			}
			if large, err = in.load(ctx, "large tpi", req.LargeTPI); err != nil {
				return nil, err
			}
		} else {
			sources["dem"] = req.DEM
			crs = readCRS(log, req.DEM)
			warnUnits(log, crs, req.Small.Unit, req.Large.Unit)
			if small, large, err = r.twoScales(ctx, in, req); err != nil {
				return nil, err
			}
		}

		slope, err := in.load(ctx, "slope", req.Slope)
		if err != nil {
			return nil, err
		}
		g, err := classify.Landform(ctx, small, large, slope, req.Params)
		if err != nil {
			return nil, err
		}
		return &product{
			grid:    g,
			classes: classify.LandformClasses(),
			palette: render.LandformPalette(),
			sources: sources,
			crs:     crs,
		}, nil
	})
}

// twoScales loads the DEM once and computes both TPI scales concurrently.
func (r *Runner) twoScales(ctx context.Context, in *inputs, req LandformRequest) (*raster.Grid, *raster.Grid, error) {
	if _, err := req.Small.Annulus(); err != nil {
		return nil, nil, err
	}
	if _, err := req.Large.Annulus(); err != nil {
		return nil, nil, err
	}
	dem, err := in.load(ctx, "dem", req.DEM)
	if err != nil {
		return nil, nil, err
	}

	var small, large *raster.Grid
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		small, err = tpi.Compute(gctx, dem, req.Small, r.focalOptions()...)
		return err
	})
	g.Go(func() error {
		var err error
		large, err = tpi.Compute(gctx, dem, req.Large, r.focalOptions()...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return small, large, nil
}
