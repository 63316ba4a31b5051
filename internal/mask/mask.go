package mask

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
)

// Masker restricts a grid to a region.
type Masker interface {
	Apply(g *raster.Grid) (*raster.Grid, error)
}

// Options names the region of interest. Both fields are optional; when both
// are set a cell must fall inside the polygons and on a valid mask cell.
type Options struct {
	Shapefile string `json:"shapefile,omitempty" yaml:"shapefile,omitempty"`
	Raster    string `json:"raster,omitempty" yaml:"raster,omitempty"`
}

// Empty reports whether no region is configured.
func (o Options) Empty() bool {
	return o.Shapefile == "" && o.Raster == ""
}

// Load builds the masker described by opts. Empty options give a masker that
// returns grids unchanged.
func Load(ctx context.Context, opts Options, open rasterio.OpenOptions) (Masker, error) {
	var chain chained
	if opts.Shapefile != "" {
		p, err := LoadShapefile(opts.Shapefile)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}
	if opts.Raster != "" {
		g, err := rasterio.Open(ctx, opts.Raster, open)
		if err != nil {
			return nil, eris.Wrap(err, "mask: load raster mask")
		}
		chain = append(chain, NewGrid(g))
	}
	return chain, nil
}

// Grid masks with the valid cells of another grid of the same shape.
type Grid struct {
	mask *raster.Grid
}

// NewGrid returns a masker backed by m.
func NewGrid(m *raster.Grid) Grid {
	return Grid{mask: m}
}

// Apply implements Masker.
func (m Grid) Apply(g *raster.Grid) (*raster.Grid, error) {
	return ApplyRaster(g, m.mask)
}

// ApplyRaster sets to no-data every cell of g whose counterpart in m is
// no-data. The two grids must share a shape.
func ApplyRaster(g, m *raster.Grid) (*raster.Grid, error) {
	return raster.Combine("mask", g, m, func(v, _ float64) float64 { return v })
}

type chained []Masker

func (c chained) Apply(g *raster.Grid) (*raster.Grid, error) {
	var err error
	for _, m := range c {
		if g, err = m.Apply(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}
