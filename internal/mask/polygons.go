// Package mask restricts grids to a region of interest. Cells outside the
// region become no-data; nothing else changes. The region comes from polygon
// shapefiles or from the valid cells of another grid.
package mask

import (
	"github.com/anthonynsimon/bild/parallel"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// Polygons is a set of polygon features. Each feature keeps every shapefile
// ring as its own part; a point is inside a feature when it falls inside an
// odd number of its rings, so holes need no orientation handling.
type Polygons struct {
	features []*geom.MultiPolygon
	bounds   []*geom.Bounds
}

// LoadShapefile reads every polygon feature of a shapefile. Non-polygon shapes
// are skipped.
func LoadShapefile(path string) (*Polygons, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mask: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var shapes []shp.Shape
	for reader.Next() {
		_, shape := reader.Shape()
		shapes = append(shapes, shape)
	}

	p, err := FromShapes(shapes)
	if err != nil {
		return nil, eris.Wrapf(err, "mask: %s", path)
	}
	return p, nil
}

// FromShapes builds a polygon set from decoded shapefile shapes.
func FromShapes(shapes []shp.Shape) (*Polygons, error) {
	p := &Polygons{}
	var skipped int
	for _, s := range shapes {
		poly, ok := s.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		mp := toMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		p.features = append(p.features, mp)
		p.bounds = append(p.bounds, mp.Bounds())
	}

	if skipped > 0 {
		zap.L().Debug("mask: skipped shapes", zap.Int("skipped", skipped))
	}
	if len(p.features) == 0 {
		return nil, eris.New("mask: no polygon features")
	}
	return p, nil
}

// toMultiPolygon converts a shapefile polygon into one single-ring polygon per
// part.
func toMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if first, last := p.Points[start], p.Points[end-1]; first != last {
			flat = append(flat, first.X, first.Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("mask: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("mask: skipping malformed part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Len returns the number of features.
func (p *Polygons) Len() int { return len(p.features) }

// Contains reports whether (x, y) lies inside any feature.
func (p *Polygons) Contains(x, y float64) bool {
	for i, mp := range p.features {
		b := p.bounds[i]
		if x < b.Min(0) || x > b.Max(0) || y < b.Min(1) || y > b.Max(1) {
			continue
		}
		inside := false
		pt := geom.Coord{x, y}
		for j := 0; j < mp.NumPolygons(); j++ {
			if xy.IsPointInRing(geom.XY, pt, mp.Polygon(j).LinearRing(0).FlatCoords()) {
				inside = !inside
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// Apply returns g with every cell whose centre lies outside all features set
// to no-data.
func (p *Polygons) Apply(g *raster.Grid) (*raster.Grid, error) {
	meta := g.Meta()
	b := raster.NewBuilder(meta)

	parallel.Line(meta.Height, func(start, end int) {
		for r := start; r < end; r++ {
			for c := 0; c < meta.Width; c++ {
				v, ok := g.At(r, c)
				if !ok {
					continue
				}
				if p.Contains(meta.CellCenter(r, c)) {
					b.Set(r, c, v)
				}
			}
		}
	})

	out := b.Grid()
	zap.L().Debug("mask: applied polygons",
		zap.Int("features", p.Len()),
		zap.Int("valid_before", g.ValidCount()),
		zap.Int("valid_after", out.ValidCount()),
	)
	return out, nil
}
