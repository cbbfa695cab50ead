package cormat

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/core"
)

var target = [][]float64{
	{1, 0.3, 0.6},
	{0.3, 1, 0},
	{0.6, 0, 1},
}

func TestFullToPartial_KnownValues(t *testing.T) {
	p, err := FullToPartial(FromRows(target))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, p.At(0, 0), 1e-12)
	assert.InDelta(t, 0.375, p.At(0, 1), 1e-12)
	assert.InDelta(t, 0.628970902, p.At(0, 2), 1e-9)
	assert.InDelta(t, -0.235864088, p.At(1, 2), 1e-9)
}

func TestPartialToFull_RoundTrip(t *testing.T) {
	r := FromRows(target)
	p, err := FullToPartial(r)
	require.NoError(t, err)
	back, err := PartialToFull(p)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, target[i][j], back.At(i, j), 1e-9, "(%d, %d)", i, j)
		}
	}
}

func TestPartialToFull_TwoVariablesIsIdentity(t *testing.T) {
	full, err := PartialToFull(FromRows([][]float64{{1, -0.42}, {-0.42, 1}}))
	require.NoError(t, err)
	assert.InDelta(t, -0.42, full.At(0, 1), 1e-12)
}

func TestInverse_Failures(t *testing.T) {
	singular := FromRows([][]float64{{1, 1}, {1, 1}})
	_, err := FullToPartial(singular)
	assert.True(t, errors.Is(err, core.ErrDegenerateVariance))

	missing := FromRows([][]float64{{1, math.NaN()}, {math.NaN(), 1}})
	_, err = PartialToFull(missing)
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestToSemiPartial(t *testing.T) {
	sp, err := ToSemiPartial(FromRows(target))
	require.NoError(t, err)

	k, err := inverse(FromRows(target))
	require.NoError(t, err)
	pr := 0.375
	assert.InDelta(t, pr/math.Sqrt(k.At(0, 0)*(1-pr*pr)), sp.At(0, 1), 1e-12)
	assert.Equal(t, 1.0, sp.At(2, 2))
	// Semi-partials never exceed partials in magnitude
	assert.LessOrEqual(t, math.Abs(sp.At(0, 1)), pr)

	// With two variables there is nothing to partial out
	two, err := ToSemiPartial(FromRows([][]float64{{1, 0.5}, {0.5, 1}}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, two.At(0, 1), 1e-12)
	assert.InDelta(t, 0.5, two.At(1, 0), 1e-12)
}

func TestSmooth_RepairsIndefiniteMatrix(t *testing.T) {
	bad := FromRows([][]float64{
		{1, 0.9, -0.9},
		{0.9, 1, 0.9},
		{-0.9, 0.9, 1},
	})
	require.False(t, IsPositiveDefinite(bad))

	fixed, err := Smooth(bad, 1e-4)
	require.NoError(t, err)
	assert.True(t, IsPositiveDefinite(fixed))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, fixed.At(i, i), 1e-12)
	}

	good, err := Smooth(FromRows(target), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, good.At(0, 1), 1e-9)
}

func TestToCovariance(t *testing.T) {
	cov, err := ToCovariance(FromRows(target), []float64{2, 3, 1})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 1.8, cov.At(0, 1), 1e-12)
	assert.InDelta(t, 1.2, cov.At(0, 2), 1e-12)

	_, err = ToCovariance(FromRows(target), []float64{1})
	assert.ErrorIs(t, err, core.ErrInvalidOption)
}

func TestFisherZ(t *testing.T) {
	assert.InDelta(t, 0.5493061, FisherZ(0.5), 1e-7)
	assert.InDelta(t, 0.5, FisherZInverse(FisherZ(0.5)), 1e-12)
	assert.Equal(t, [][]float64{{1, 0.3}, {0.3, 1}}, ToRows(FromRows([][]float64{{1, 0.3}, {0.3, 1}})))
}
