package render

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

const nd = raster.DefaultNoData

func TestPalettes_CoverClasses(t *testing.T) {
	lf := LandformPalette()
	for code := 1; code <= 10; code++ {
		_, ok := lf.Color(float64(code))
		assert.True(t, ok, "landform %d", code)
	}
	_, ok := lf.Color(11)
	assert.False(t, ok)

	sp := SlopePositionPalette()
	for code := 1; code <= 6; code++ {
		_, ok := sp.Color(float64(code))
		assert.True(t, ok, "slope position %d", code)
	}
	_, ok = sp.Color(2.5)
	assert.False(t, ok)
}

func TestRamp(t *testing.T) {
	r := DivergingRamp(-4, 2)
	assert.Equal(t, 4.0, r.Extent)

	low, ok := r.Color(-4)
	require.True(t, ok)
	assert.Equal(t, color.NRGBAModel.Convert(r.Low.Clamped()), color.NRGBAModel.Convert(low))

	mid, _ := r.Color(0)
	assert.Equal(t, color.NRGBAModel.Convert(r.Mid.Clamped()), color.NRGBAModel.Convert(mid))

	beyond, _ := r.Color(100)
	assert.Equal(t, color.NRGBAModel.Convert(r.High.Clamped()), color.NRGBAModel.Convert(beyond))

	flat := DivergingRamp(0, 0)
	_, ok = flat.Color(0)
	assert.True(t, ok)
}

func TestQuicklook(t *testing.T) {
	g, err := raster.FromRows(raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: nd},
		[][]float64{{1, 2, nd}, {5, 10, 99}})
	require.NoError(t, err)

	img := Quicklook(g, LandformPalette(), 0)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	_, _, _, a := img.At(2, 0).RGBA()
	assert.Zero(t, a, "no-data is transparent")
	_, _, _, a = img.At(2, 1).RGBA()
	assert.Zero(t, a, "unknown class is transparent")
	_, _, _, a = img.At(0, 0).RGBA()
	assert.NotZero(t, a)
}

func TestQuicklook_Shrinks(t *testing.T) {
	meta := raster.Meta{Width: 40, Height: 20, CellSizeX: 1, CellSizeY: 1, NoData: nd}
	g, err := raster.Filled(meta, 3)
	require.NoError(t, err)

	img := Quicklook(g, SlopePositionPalette(), 10)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())
}

func TestSavePNG(t *testing.T) {
	g, err := raster.FromRows(raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: nd}, [][]float64{{-2, 0, 2}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tpi.png")
	require.NoError(t, SavePNG(path, Quicklook(g, DivergingRamp(-2, 2), 0)))

	back, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Bounds().Dx())
}

func TestHistogram(t *testing.T) {
	g, err := raster.FromRows(raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: nd},
		[][]float64{{1, 2, 2, 3}, {3, 3, 4, nd}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, Histogram(g, 4, "TPI", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestHistogram_Empty(t *testing.T) {
	g, err := raster.FromRows(raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: nd}, [][]float64{{nd}})
	require.NoError(t, err)

	err = Histogram(g, 10, "empty", filepath.Join(t.TempDir(), "h.png"))
	var empty *raster.EmptyRasterError
	assert.True(t, errors.As(err, &empty))
}
