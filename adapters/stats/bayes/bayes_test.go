package bayes

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/core"
	"gocorr/domain/correlation"
)

func TestFromR_StrongEvidence(t *testing.T) {
	s := FromR(0.8, 50, correlation.PriorMedium, 0.95, rand.New(rand.NewSource(1)))

	assert.InDelta(t, 0.78, s.Median, 0.05)
	assert.Less(t, s.CILow, s.Median)
	assert.Greater(t, s.CIHigh, s.Median)
	assert.Greater(t, s.BF10, 1e6)
	assert.Equal(t, 1.0, s.PD)
	assert.Equal(t, 0.0, s.ROPEPercentage)
	assert.InDelta(t, 3.0, s.Shape, 1e-12)
}

func TestFromR_NullFavoursH0(t *testing.T) {
	s := FromR(0, 50, correlation.PriorMedium, 0.95, rand.New(rand.NewSource(1)))
	assert.InDelta(t, 0.318, s.BF10, 0.01)
	assert.InDelta(t, 0, s.Median, 0.03)
	assert.Less(t, s.PD, 0.7)
	assert.Greater(t, s.ROPEPercentage, 0.1)

	// Wider priors spread mass away from zero and favour the null more
	wide := FromR(0, 50, correlation.PriorWide, 0.95, rand.New(rand.NewSource(1)))
	ultra := FromR(0, 50, correlation.PriorUltrawide, 0.95, rand.New(rand.NewSource(1)))
	assert.Less(t, wide.BF10, s.BF10)
	assert.Less(t, ultra.BF10, wide.BF10)
}

func TestFromR_SeedReproducible(t *testing.T) {
	a := FromR(0.3, 30, correlation.PriorMedium, 0.9, rand.New(rand.NewSource(42)))
	b := FromR(0.3, 30, correlation.PriorMedium, 0.9, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)

	neg := FromR(-0.3, 30, correlation.PriorMedium, 0.9, rand.New(rand.NewSource(42)))
	assert.InDelta(t, a.BF10, neg.BF10, 1e-9)
	assert.Less(t, neg.Median, 0.0)
}

func TestCorrelation_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := Correlation([]float64{1, 2}, []float64{1, 2}, correlation.PriorMedium, 0.95, rng)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = Correlation([]float64{1, 2, 3}, []float64{4, 4, 4}, correlation.PriorMedium, 0.95, rng)
	assert.True(t, errors.Is(err, core.ErrDegenerateVariance))

	_, err = Correlation([]float64{1, 2, 3}, []float64{1, 3, 2}, correlation.Prior{Scale: 0}, 0.95, rng)
	assert.True(t, errors.Is(err, core.ErrInvalidOption))

	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7}
	s, err := Correlation(x, y, correlation.PriorMedium, 0.95, rng)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(s.Median))
	assert.Greater(t, s.Median, 0.0)
}
