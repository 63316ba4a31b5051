package mask

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/rasterio"
)

// squareWithHole covers [0,40]x[0,40] minus the hole [10,30]x[10,30].
func squareWithHole() *shp.Polygon {
	return &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 40}, {X: 40, Y: 40}, {X: 40, Y: 0}, {X: 0, Y: 0},
			{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 30}, {X: 10, Y: 30}, {X: 10, Y: 10},
		},
	}
}

func island() *shp.Polygon {
	return &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 100, Y: 100}, {X: 100, Y: 110}, {X: 110, Y: 110}, {X: 110, Y: 100}, {X: 100, Y: 100},
		},
	}
}

func TestPolygons_Contains(t *testing.T) {
	p, err := FromShapes([]shp.Shape{squareWithHole(), &shp.Point{X: 1, Y: 1}, island()})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside shell", 5, 5, true},
		{"inside hole", 20, 20, false},
		{"outside", 50, 50, false},
		{"second feature", 105, 101, true},
		{"between features", 70, 70, false},
		{"on shell edge", 0, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Contains(tt.x, tt.y))
		})
	}
}

func TestPolygons_ContainsOpenRing(t *testing.T) {
	// Last point does not repeat the first; the ring is closed on load.
	open := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points:   []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}},
	}
	p, err := FromShapes([]shp.Shape{open})
	require.NoError(t, err)

	assert.True(t, p.Contains(5, 5))
	assert.False(t, p.Contains(15, 5))
}

func TestFromShapes_NoPolygons(t *testing.T) {
	_, err := FromShapes([]shp.Shape{&shp.Point{X: 1, Y: 1}})
	assert.Error(t, err)
}

func TestPolygons_Apply(t *testing.T) {
	// 4x4 grid of 10 m cells covering [0,40]x[0,40]; the hole removes the
	// four central cells.
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = []float64{1, 2, 3, 4}
	}
	rows[0][0] = raster.DefaultNoData
	g, err := raster.FromRows(raster.Meta{CellSizeX: 10, CellSizeY: 10, OriginX: 0, OriginY: 40, NoData: raster.DefaultNoData}, rows)
	require.NoError(t, err)

	p, err := FromShapes([]shp.Shape{squareWithHole()})
	require.NoError(t, err)

	out, err := p.Apply(g)
	require.NoError(t, err)

	assert.Equal(t, 11, out.ValidCount())
	assert.False(t, out.Valid(1, 1))
	assert.False(t, out.Valid(2, 2))
	assert.True(t, out.Valid(0, 1))
	assert.Equal(t, 15, g.ValidCount(), "input unchanged")
}

func TestApplyRaster(t *testing.T) {
	meta := raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: -1}
	g, err := raster.FromRows(meta, [][]float64{{5, 6, 7}})
	require.NoError(t, err)
	m, err := raster.FromRows(meta, [][]float64{{1, -1, 1}})
	require.NoError(t, err)

	out, err := ApplyRaster(g, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, -1, 7}, out.Values())

	other, err := raster.FromRows(meta, [][]float64{{1, 1}})
	require.NoError(t, err)
	_, err = ApplyRaster(g, other)
	var mismatch *raster.ShapeMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestLoad(t *testing.T) {
	meta := raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: -9999}
	g, err := raster.FromRows(meta, [][]float64{{5, 6}, {7, 8}})
	require.NoError(t, err)

	t.Run("empty options leave grid unchanged", func(t *testing.T) {
		assert.True(t, Options{}.Empty())
		m, err := Load(context.Background(), Options{}, rasterio.OpenOptions{})
		require.NoError(t, err)

		out, err := m.Apply(g)
		require.NoError(t, err)
		assert.Equal(t, g.Values(), out.Values())
	})

	t.Run("raster mask", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roi.asc")
		src := "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\nNODATA_value -9999\n1 -9999\n-9999 1\n"
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

		m, err := Load(context.Background(), Options{Raster: path}, rasterio.OpenOptions{})
		require.NoError(t, err)

		out, err := m.Apply(g)
		require.NoError(t, err)
		assert.Equal(t, []float64{5, -9999, -9999, 8}, out.Values())
	})

	t.Run("missing shapefile", func(t *testing.T) {
		_, err := Load(context.Background(), Options{Shapefile: filepath.Join(t.TempDir(), "none.shp")}, rasterio.OpenOptions{})
		assert.Error(t, err)
	})
}
