package render

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// Histogram plots the distribution of g's valid values into bins and saves it
// to path (format by extension).
func Histogram(g *raster.Grid, bins int, title, path string) error {
	values := g.ValidValues()
	if len(values) == 0 {
		return &raster.EmptyRasterError{Op: "histogram"}
	}
	if bins <= 0 {
		bins = 50
	}

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return eris.Wrap(err, "render: histogram")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "cells"
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}
	return nil
}
