package focal

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

type options struct {
	workers          int
	progressInterval time.Duration
}

// Option tunes Mean.
type Option func(*options)

// WithWorkers bounds the number of rows processed at once. Zero or less means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgressInterval sets how often progress is logged. Zero disables
// progress logging.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) { o.progressInterval = d }
}

// Mean returns the annulus focal mean of g. Each output cell is the mean of
// the valid cells of g inside the ring around it; cells past the grid edge
// simply do not contribute. A cell with no valid contributors is no-data.
//
// Rows are processed concurrently and ctx is checked before each row.
func Mean(ctx context.Context, g *raster.Grid, a Annulus, opts ...Option) (*raster.Grid, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	o := options{progressInterval: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	meta := g.Meta()
	offsets := a.Offsets(meta.CellSizeX, meta.CellSizeY)
	if len(offsets) == 0 {
		return nil, &InvalidNeighborhoodError{Inner: a.Inner, Outer: a.Outer, Reason: "ring contains no cell centres at this cell size"}
	}
	runs := spans(offsets)

	log := zap.L().With(
		zap.String("unit", a.Unit.String()),
		zap.Float64("inner", a.Inner),
		zap.Float64("outer", a.Outer),
		zap.Int("neighbours", len(offsets)),
	)
	log.Debug("focal mean starting", zap.Int("width", meta.Width), zap.Int("height", meta.Height))

	p := newPrefix(g)
	b := raster.NewBuilder(meta)
	w, h := meta.Width, meta.Height

	progress := rate.Sometimes{Interval: o.progressInterval}
	var done atomic.Int64
	start := time.Now()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.workers)
	for row := 0; row < h; row++ {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for col := 0; col < w; col++ {
				var sum float64
				var n int
				for _, s := range runs {
					r := row + s.DRow
					if r < 0 || r >= h {
						continue
					}
					lo, hi := max(col+s.Lo, 0), min(col+s.Hi, w-1)
					if lo > hi {
						continue
					}
					ps, pn := p.rangeSum(r, lo, hi)
					sum += ps
					n += pn
				}
				if n > 0 {
					b.Set(row, col, p.shift+sum/float64(n))
				}
			}

			finished := done.Add(1)
			if o.progressInterval > 0 {
				progress.Do(func() {
					log.Info("focal mean progress",
						zap.Int64("rows_done", finished),
						zap.Int("rows_total", h),
						zap.Duration("elapsed", time.Since(start)),
					)
				})
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Debug("focal mean complete", zap.Duration("elapsed", time.Since(start)))
	return b.Grid(), nil
}

// prefix holds per-row cumulative sums of valid values and valid counts, so a
// column run costs two lookups. Values are shifted by the first valid value
// to keep the running sums small.
type prefix struct {
	width  int
	shift  float64
	sums   []float64
	counts []int32
}

func newPrefix(g *raster.Grid) *prefix {
	w, h := g.Width(), g.Height()
	p := &prefix{
		width:  w,
		sums:   make([]float64, h*(w+1)),
		counts: make([]int32, h*(w+1)),
	}
	found := false
	for r := 0; r < h && !found; r++ {
		for c := 0; c < w; c++ {
			if v, ok := g.At(r, c); ok {
				p.shift, found = v, true
				break
			}
		}
	}

	for r := 0; r < h; r++ {
		base := r * (w + 1)
		for c := 0; c < w; c++ {
			s, n := p.sums[base+c], p.counts[base+c]
			if v, ok := g.At(r, c); ok {
				s += v - p.shift
				n++
			}
			p.sums[base+c+1] = s
			p.counts[base+c+1] = n
		}
	}
	return p
}

func (p *prefix) rangeSum(row, lo, hi int) (float64, int) {
	base := row * (p.width + 1)
	return p.sums[base+hi+1] - p.sums[base+lo], int(p.counts[base+hi+1] - p.counts[base+lo])
}
