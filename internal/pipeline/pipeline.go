// Package pipeline runs terrain products end to end: load and mask inputs,
// compute, write outputs and record the run in the catalog.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samlevin11/TopographicPositionIndex/internal/config"
	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/mask"
	"github.com/samlevin11/TopographicPositionIndex/internal/model"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
	"github.com/samlevin11/TopographicPositionIndex/internal/render"
	"github.com/samlevin11/TopographicPositionIndex/internal/report"
	"github.com/samlevin11/TopographicPositionIndex/internal/store"
)

// Outputs names the files a run writes. Only Grid is required.
type Outputs struct {
	Grid      string `json:"grid" yaml:"grid"`
	Quicklook string `json:"quicklook,omitempty" yaml:"quicklook,omitempty"`
	Histogram string `json:"histogram,omitempty" yaml:"histogram,omitempty"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Runner executes product requests against one catalog.
type Runner struct {
	cfg   *config.Config
	store store.Store
}

// New creates a Runner. st may be nil, in which case runs are not recorded.
func New(cfg *config.Config, st store.Store) *Runner {
	return &Runner{cfg: cfg, store: st}
}

// product is what a compute step hands to the writer.
type product struct {
	grid    *raster.Grid
	classes map[int]string // nil for continuous products
	palette render.Palette // nil selects a diverging ramp over the value range
	sources map[string]string
	crs     rasterio.CRS
}

// execute wraps compute with catalog bookkeeping and output writing.
func (r *Runner) execute(
	ctx context.Context,
	kind model.RunKind,
	params any,
	out Outputs,
	compute func(ctx context.Context, log *zap.Logger) (*product, error),
) (*model.RunResult, error) {
	if out.Grid == "" {
		return nil, eris.New("pipeline: output grid path is required")
	}

	log := zap.L().With(zap.String("kind", string(kind)), zap.String("output", out.Grid))

	var runID string
	if r.store != nil {
		run, err := r.store.CreateRun(ctx, kind, params)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		log = log.With(zap.String("run_id", runID))
	}
	log.Info("pipeline: starting run")

	start := time.Now()
	result, err := r.produce(ctx, log, kind, runID, params, out, compute)
	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		if r.store != nil {
			// The run context may already be cancelled.
			if failErr := r.store.FailRun(context.WithoutCancel(ctx), runID, err); failErr != nil {
				log.Warn("pipeline: failed to record failure", zap.Error(failErr))
			}
		}
		return nil, err
	}
	result.ElapsedMS = time.Since(start).Milliseconds()

	if r.store != nil {
		if err := r.store.CompleteRun(ctx, runID, result); err != nil {
			return nil, eris.Wrap(err, "pipeline: complete run")
		}
	}
	log.Info("pipeline: run complete",
		zap.Int("valid_cells", result.Stats.Count),
		zap.Int64("elapsed_ms", result.ElapsedMS),
	)
	return result, nil
}

func (r *Runner) produce(
	ctx context.Context,
	log *zap.Logger,
	kind model.RunKind,
	runID string,
	params any,
	out Outputs,
	compute func(ctx context.Context, log *zap.Logger) (*product, error),
) (*model.RunResult, error) {
	p, err := compute(ctx, log)
	if err != nil {
		return nil, err
	}

	stats, err := raster.ComputeStats(p.grid)
	if err != nil {
		return nil, err
	}

	result := &model.RunResult{
		Output: out.Grid,
		Grid:   p.grid.Meta(),
		Stats:  &stats,
	}

	if err := rasterio.WriteASCIIFile(out.Grid, p.grid); err != nil {
		return nil, err
	}
	result.Artifacts = append(result.Artifacts, out.Grid)

	if p.classes != nil {
		summary := report.Summarize(string(kind), p.grid, p.classes)
		result.Classes = summary.ClassCounts()
		if out.Summary != "" {
			if err := report.WriteXLSX(out.Summary, summary); err != nil {
				return nil, err
			}
			result.Artifacts = append(result.Artifacts, out.Summary)
		}
	}

	if out.Quicklook != "" {
		palette := p.palette
		if palette == nil {
			palette = render.DivergingRamp(stats.Min, stats.Max)
		}
		img := render.Quicklook(p.grid, palette, r.cfg.Render.QuicklookMaxSize)
		if err := render.SavePNG(out.Quicklook, img); err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, out.Quicklook)
	}
	if out.Histogram != "" {
		if err := render.Histogram(p.grid, r.cfg.Render.HistogramBins, string(kind), out.Histogram); err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, out.Histogram)
	}

	sidecar := rasterio.MetadataPath(out.Grid)
	md := rasterio.Metadata{
		Product:    string(kind),
		RunID:      runID,
		CreatedAt:  time.Now().UTC(),
		Sources:    p.sources,
		CRS:        p.crs,
		Grid:       p.grid.Meta(),
		Stats:      &stats,
		Parameters: params,
		Classes:    result.Classes,
	}
	if err := rasterio.WriteMetadata(sidecar, md); err != nil {
		return nil, err
	}
	result.Artifacts = append(result.Artifacts, sidecar)

	log.Debug("pipeline: outputs written", zap.Strings("artifacts", result.Artifacts))
	return result, nil
}

func (r *Runner) openOptions() rasterio.OpenOptions {
	return OpenOptions(r.cfg)
}

// OpenOptions maps the fetch settings onto rasterio. Zero retries means a
// single attempt.
func OpenOptions(cfg *config.Config) rasterio.OpenOptions {
	retry := rasterio.DefaultRetryPolicy()
	retry.Attempts = cfg.Fetch.Retries + 1
	if cfg.Fetch.RetryBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(cfg.Fetch.RetryBackoffMs) * time.Millisecond
	}
	return rasterio.OpenOptions{Timeout: cfg.Fetch.Timeout(), Retry: retry}
}

func (r *Runner) focalOptions() []focal.Option {
	return []focal.Option{
		focal.WithWorkers(r.cfg.Processing.Workers),
		focal.WithProgressInterval(r.cfg.Processing.ProgressInterval()),
	}
}

// inputs opens grids through one masker.
type inputs struct {
	r      *Runner
	masker mask.Masker
}

func (r *Runner) inputs(ctx context.Context, opts mask.Options) (*inputs, error) {
	m, err := mask.Load(ctx, opts, r.openOptions())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load mask")
	}
	return &inputs{r: r, masker: m}, nil
}

// load opens locator and applies the mask.
func (in *inputs) load(ctx context.Context, role, locator string) (*raster.Grid, error) {
	if locator == "" {
		return nil, eris.Errorf("pipeline: %s input is required", role)
	}
	g, err := rasterio.Open(ctx, locator, in.r.openOptions())
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: open %s", role)
	}
	masked, err := in.masker.Apply(g)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("pipeline: input loaded",
		zap.String("role", role),
		zap.String("locator", locator),
		zap.Int("width", masked.Meta().Width),
		zap.Int("height", masked.Meta().Height),
		zap.Int("valid_cells", masked.ValidCount()),
	)
	return masked, nil
}

// readCRS reads the .prj of a local input. Remote inputs have no sidecar to
// read and give an unknown CRS.
func readCRS(log *zap.Logger, locator string) rasterio.CRS {
	if locator == "" || strings.Contains(locator, "://") {
		return rasterio.CRS{}
	}
	crs, err := rasterio.DescribeCRS(locator)
	if err != nil {
		log.Warn("pipeline: could not read coordinate system", zap.Error(err))
		return rasterio.CRS{}
	}
	return crs
}

// warnUnits logs when radii in unit do not suit crs. It never fails a run.
func warnUnits(log *zap.Logger, crs rasterio.CRS, units ...focal.Unit) {
	for _, u := range units {
		if msg := rasterio.CheckUnits(crs, u); msg != "" {
			log.Warn(msg, zap.String("crs", crs.Name), zap.Stringer("unit", u))
			return
		}
	}
	if len(units) > 0 {
		log.Debug("pipeline: neighborhood units", zap.String("radius_unit", rasterio.UnitLabel(crs, units[0])))
	}
}
