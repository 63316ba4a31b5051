package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// Quicklook draws g one pixel per cell, north up, with no-data transparent.
// Images larger than maxSize on either side are shrunk to fit, keeping the
// aspect ratio; maxSize <= 0 disables shrinking.
func Quicklook(g *raster.Grid, p Palette, maxSize int) image.Image {
	w, h := g.Width(), g.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			v, ok := g.At(r, c)
			if !ok {
				img.Set(c, r, color.Transparent)
				continue
			}
			col, ok := p.Color(v)
			if !ok {
				img.Set(c, r, color.Transparent)
				continue
			}
			img.Set(c, r, col)
		}
	}

	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	// Nearest neighbour keeps class colours exact.
	if w >= h {
		return imaging.Resize(img, maxSize, 0, imaging.NearestNeighbor)
	}
	return imaging.Resize(img, 0, maxSize, imaging.NearestNeighbor)
}

// SavePNG writes img to path. The format follows the file extension.
func SavePNG(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}
	return nil
}
