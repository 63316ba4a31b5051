package rasterio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
	"github.com/samlevin11/TopographicPositionIndex/internal/tpi"
)

func TestWriteMetadata(t *testing.T) {
	path := MetadataPath(filepath.Join(t.TempDir(), "tpi.asc"))
	md := Metadata{
		Product:   "tpi",
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Sources:   map[string]string{"dem": "dem.asc"},
		Grid:      raster.Meta{Width: 3, Height: 2, CellSizeX: 10, CellSizeY: 10, NoData: -9999},
		Stats:     &raster.Stats{Mean: 0.5, StdDev: 2, Min: -3, Max: 4, Count: 6},
		Parameters: tpi.Params{
			Outer: 10, Inner: 2, Unit: focal.UnitGround,
		},
		Classes: []ClassCount{{Code: 1, Name: "Ridge", Cells: 2, Area: 200, Percent: 33.3}},
	}

	require.NoError(t, WriteMetadata(path, md))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "unit: GROUND")
	assert.Contains(t, string(raw), "outer_radius: 10")

	back, err := ReadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, md.Product, back.Product)
	assert.Equal(t, md.Grid, back.Grid)
	assert.Equal(t, *md.Stats, *back.Stats)
	assert.Equal(t, md.Classes, back.Classes)
	assert.True(t, md.CreatedAt.Equal(back.CreatedAt))
}
