package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

const nd = raster.DefaultNoData

func rowGrid(t *testing.T, rows ...[]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(raster.Meta{CellSizeX: 30, CellSizeY: 30, NoData: nd}, rows)
	require.NoError(t, err)
	return g
}

func filledLike(t *testing.T, g *raster.Grid, v float64) *raster.Grid {
	t.Helper()
	out, err := raster.Filled(g.Meta(), v)
	require.NoError(t, err)
	return out
}
