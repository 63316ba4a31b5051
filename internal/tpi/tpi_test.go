package tpi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/focal"
	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

const nd = raster.DefaultNoData

func demOf(t *testing.T, rows [][]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(raster.Meta{CellSizeX: 1, CellSizeY: 1, NoData: nd}, rows)
	require.NoError(t, err)
	return g
}

func TestCompute_FlatGridIsZero(t *testing.T) {
	rows := make([][]float64, 5)
	for i := range rows {
		rows[i] = []float64{100, 100, 100, 100, 100}
	}

	out, err := Compute(context.Background(), demOf(t, rows), Params{Outer: 1, Inner: 0, Unit: focal.UnitCell})
	require.NoError(t, err)

	assert.Equal(t, 25, out.ValidCount())
	for _, v := range out.Values() {
		assert.Equal(t, 0.0, v)
	}
}

func TestCompute_PeakAndPit(t *testing.T) {
	dem := demOf(t, [][]float64{
		{10, 10, 10, 10, 10},
		{10, 50, 10, 10, 10},
		{10, 10, 10, 10, 10},
		{10, 10, 10, 0, 10},
		{10, 10, 10, 10, 10},
	})

	out, err := Compute(context.Background(), dem, Params{Outer: 1.5, Inner: 1, Unit: focal.UnitCell})
	require.NoError(t, err)

	peak, _ := out.At(1, 1)
	assert.InDelta(t, 40.0, peak, 1e-9)
	pit, _ := out.At(3, 3)
	assert.InDelta(t, -10.0, pit, 1e-9)
}

func TestCompute_NoDataPropagates(t *testing.T) {
	dem := demOf(t, [][]float64{
		{1, 2, 3},
		{4, nd, 6},
		{7, 8, 9},
	})

	out, err := Compute(context.Background(), dem, Params{Outer: 1, Unit: focal.UnitCell})
	require.NoError(t, err)

	assert.False(t, out.Valid(1, 1))
	assert.Equal(t, 8, out.ValidCount())
}

func TestCompute_InvalidNeighborhood(t *testing.T) {
	dem := demOf(t, [][]float64{{1}})

	_, err := Compute(context.Background(), dem, Params{Outer: 2, Inner: 2, Unit: focal.UnitCell})
	var invalid *focal.InvalidNeighborhoodError
	assert.True(t, errors.As(err, &invalid))
}
