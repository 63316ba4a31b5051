package focal

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

const nd = raster.DefaultNoData

func gridOf(t *testing.T, cell float64, rows [][]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(raster.Meta{CellSizeX: cell, CellSizeY: cell, NoData: nd}, rows)
	require.NoError(t, err)
	return g
}

func TestMean_FlatGrid(t *testing.T) {
	rows := make([][]float64, 5)
	for i := range rows {
		rows[i] = []float64{100, 100, 100, 100, 100}
	}
	g := gridOf(t, 1, rows)

	out, err := Mean(context.Background(), g, Annulus{Inner: 0, Outer: 1, Unit: UnitCell})
	require.NoError(t, err)

	assert.Equal(t, 25, out.ValidCount(), "corners and edges still compute")
	for _, v := range out.Values() {
		assert.Equal(t, 100.0, v)
	}
}

func TestMean_EdgesUseFewerCells(t *testing.T) {
	g := gridOf(t, 1, [][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})

	out, err := Mean(context.Background(), g, Annulus{Inner: 0, Outer: 1, Unit: UnitCell}, WithWorkers(2))
	require.NoError(t, err)

	corner, ok := out.At(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 7.0/3.0, corner, 1e-12) // 1, 2, 4

	centre, ok := out.At(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 5.0, centre, 1e-12) // 2, 4, 5, 6, 8

	want := []float64{
		7.0 / 3, 11.0 / 4, 11.0 / 3,
		17.0 / 4, 5, 23.0 / 4,
		19.0 / 3, 29.0 / 4, 23.0 / 3,
	}
	if diff := cmp.Diff(want, out.Values(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Mean() mismatch (-want +got):\n%s", diff)
	}
}

func TestMean_RingSkipsFocalCell(t *testing.T) {
	g := gridOf(t, 1, [][]float64{
		{0, 0, 0},
		{0, 90, 0},
		{0, 0, 0},
	})

	out, err := Mean(context.Background(), g, Annulus{Inner: 1, Outer: 1.5, Unit: UnitCell})
	require.NoError(t, err)

	centre, _ := out.At(1, 1)
	assert.Equal(t, 0.0, centre)
	corner, _ := out.At(0, 0)
	assert.InDelta(t, 30.0, corner, 1e-12) // (0 + 0 + 90) / 3
}

func TestMean_NoDataOnlyWithoutContributors(t *testing.T) {
	g := gridOf(t, 1, [][]float64{
		{5, nd, nd, nd, nd},
		{nd, nd, nd, nd, nd},
		{nd, nd, nd, nd, nd},
	})

	out, err := Mean(context.Background(), g, Annulus{Inner: 0, Outer: 1, Unit: UnitCell})
	require.NoError(t, err)

	assert.True(t, out.Valid(0, 0))
	assert.True(t, out.Valid(0, 1))
	assert.True(t, out.Valid(1, 0))
	assert.False(t, out.Valid(1, 1))
	assert.False(t, out.Valid(2, 4))
	assert.Equal(t, 3, out.ValidCount())
}

func TestMean_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	annuli := []Annulus{
		{Inner: 0, Outer: 1, Unit: UnitCell},
		{Inner: 0, Outer: 3, Unit: UnitCell},
		{Inner: 2, Outer: 4, Unit: UnitCell},
		{Inner: 0, Outer: 25, Unit: UnitGround},
		{Inner: 12, Outer: 31, Unit: UnitGround},
	}

	for trial := 0; trial < 5; trial++ {
		meta := raster.Meta{
			Width: 4 + rng.IntN(15), Height: 4 + rng.IntN(15),
			CellSizeX: 10, CellSizeY: 10 + float64(rng.IntN(2))*5,
			NoData: nd,
		}
		values := make([]float64, meta.Cells())
		for i := range values {
			if rng.Float64() < 0.3 {
				values[i] = nd
				continue
			}
			values[i] = 800 + rng.Float64()*400
		}
		g, err := raster.New(meta, values)
		require.NoError(t, err)

		for _, a := range annuli {
			out, err := Mean(context.Background(), g, a, WithWorkers(3))
			require.NoError(t, err)
			assertBruteForce(t, g, out, a)
		}
	}
}

func assertBruteForce(t *testing.T, g, out *raster.Grid, a Annulus) {
	t.Helper()
	meta := g.Meta()
	inner, outer := a.GroundRadii(meta.CellSizeX, meta.CellSizeY)
	eps := 1e-9 * outer

	for r := 0; r < meta.Height; r++ {
		for c := 0; c < meta.Width; c++ {
			var sum float64
			var n int
			for rr := 0; rr < meta.Height; rr++ {
				for cc := 0; cc < meta.Width; cc++ {
					d := math.Hypot(float64(rr-r)*meta.CellSizeY, float64(cc-c)*meta.CellSizeX)
					if d < inner-eps || d > outer+eps {
						continue
					}
					if v, ok := g.At(rr, cc); ok {
						sum += v
						n++
					}
				}
			}

			got, ok := out.At(r, c)
			if n == 0 {
				assert.False(t, ok, "cell (%d,%d) with %v should be no-data", r, c, a)
				continue
			}
			require.True(t, ok, "cell (%d,%d) with %v should be valid", r, c, a)
			assert.InDelta(t, sum/float64(n), got, 1e-9)
		}
	}
}

func TestMean_EmptyRing(t *testing.T) {
	g := gridOf(t, 1, [][]float64{{1, 2}, {3, 4}})

	_, err := Mean(context.Background(), g, Annulus{Inner: 0.2, Outer: 0.5, Unit: UnitCell})
	var invalid *InvalidNeighborhoodError
	assert.True(t, errors.As(err, &invalid))
}

func TestMean_Cancelled(t *testing.T) {
	g := gridOf(t, 1, [][]float64{{1, 2}, {3, 4}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Mean(ctx, g, Annulus{Inner: 0, Outer: 1, Unit: UnitCell})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPrefix_ShiftIsFirstValidCell(t *testing.T) {
	g := gridOf(t, 1, [][]float64{
		{nd, 0, 5},
		{7, 8, 9},
	})

	p := newPrefix(g)
	assert.Equal(t, 0.0, p.shift)

	out, err := Mean(context.Background(), g, Annulus{Inner: 0, Outer: 1, Unit: UnitCell})
	require.NoError(t, err)
	v, ok := out.At(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 3.5, v, 1e-12) // 0, 7
}
