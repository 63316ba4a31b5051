package classify

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

func TestSlopePosition_Bands(t *testing.T) {
	// mean 0, sd sqrt(50) ≈ 7.07
	tpi := rowGrid(t, []float64{-10, -5, 0, 5, 10})

	tests := []struct {
		name  string
		slope float64
		want  []float64
	}{
		{"steep", 10, []float64{Valley, LowerSlope, MidSlope, UpperSlope, Ridge}},
		{"gentle", 2, []float64{Valley, LowerSlope, FlatSlope, UpperSlope, Ridge}},
		{"at threshold counts as flat", 5, []float64{Valley, LowerSlope, FlatSlope, UpperSlope, Ridge}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SlopePosition(tpi, filledLike(t, tpi, tt.slope), DefaultSlopePositionParams())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Values())
		})
	}
}

func TestSlopePosition_BreaksOnExtremes(t *testing.T) {
	// mean 1, sd 1: the minimum sits on mean-sd and the maximum on mean+sd.
	tpi := rowGrid(t, []float64{0, 2}, []float64{0, 2})

	out, err := SlopePosition(tpi, filledLike(t, tpi, 30), DefaultSlopePositionParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{LowerSlope, Ridge, LowerSlope, Ridge}, out.Values())
}

func TestSlopePosition_ConstantTPIIsMidSlope(t *testing.T) {
	tpi := rowGrid(t, []float64{0, 0, 0})
	slope := rowGrid(t, []float64{1, 9, nd})

	out, err := SlopePosition(tpi, slope, DefaultSlopePositionParams())
	require.NoError(t, err)
	assert.Equal(t, []float64{FlatSlope, MidSlope, nd}, out.Values())
}

func TestSlopePosition_NoDataPropagates(t *testing.T) {
	tpi := rowGrid(t, []float64{-3, nd, 4, 1})
	slope := rowGrid(t, []float64{2, 2, nd, 2})

	out, err := SlopePosition(tpi, slope, DefaultSlopePositionParams())
	require.NoError(t, err)
	assert.False(t, out.Valid(0, 1))
	assert.False(t, out.Valid(0, 2))
	assert.Equal(t, 2, out.ValidCount())
}

func TestSlopePosition_CodesInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	rows := make([][]float64, 20)
	slopeRows := make([][]float64, 20)
	for r := range rows {
		rows[r] = make([]float64, 20)
		slopeRows[r] = make([]float64, 20)
		for c := range rows[r] {
			rows[r][c] = rng.NormFloat64() * 15
			slopeRows[r][c] = rng.Float64() * 40
		}
	}

	out, err := SlopePosition(rowGrid(t, rows...), rowGrid(t, slopeRows...), DefaultSlopePositionParams())
	require.NoError(t, err)
	assert.Equal(t, 400, out.ValidCount())
	for _, v := range out.ValidValues() {
		assert.Contains(t, []float64{1, 2, 3, 4, 5, 6}, v)
	}
}

func TestSlopePosition_Errors(t *testing.T) {
	t.Run("shape mismatch", func(t *testing.T) {
		_, err := SlopePosition(rowGrid(t, []float64{1, 2}), rowGrid(t, []float64{1}), DefaultSlopePositionParams())
		var mismatch *raster.ShapeMismatchError
		assert.True(t, errors.As(err, &mismatch))
	})

	t.Run("empty tpi", func(t *testing.T) {
		tpi := rowGrid(t, []float64{nd, nd})
		_, err := SlopePosition(tpi, filledLike(t, tpi, 3), DefaultSlopePositionParams())
		var empty *raster.EmptyRasterError
		assert.True(t, errors.As(err, &empty))
	})
}

func TestSlopePositionClasses(t *testing.T) {
	names := SlopePositionClasses()
	assert.Len(t, names, 6)
	assert.Equal(t, "Flat slope", names[FlatSlope])
}
