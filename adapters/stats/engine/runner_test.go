package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"gocorr/adapters/rng"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	"gocorr/internal"
)

func newRunner() *Runner { return NewRunner(rng.New(), internal.NewNopLogger()) }

func pearsonSpec() correlation.TestSpec {
	return correlation.TestSpec{
		Method:      correlation.MethodPearson,
		Alternative: correlation.TwoSided,
		CI:          0.95,
		Prior:       correlation.PriorMedium,
		Tuning:      correlation.DefaultTuning(),
		Seed:        42,
	}
}

func pairData(x, y []float64) PairData {
	return PairData{
		Pair:  correlation.VariablePair{X: "x", Y: "y"},
		X:     x,
		Y:     y,
		XType: dataset.TypeNumeric,
		YType: dataset.TypeNumeric,
	}
}

func TestRunner_Diagonal(t *testing.T) {
	in := pairData([]float64{1, 2, 3}, nil)
	in.Pair.Y = "x"
	res := newRunner().Run(context.Background(), in, pearsonSpec())
	assert.Equal(t, 1.0, res.Estimate)
	assert.Equal(t, 0.0, res.P)
	assert.False(t, res.Failed())

	flat := Diagonal("k", "", []float64{4, 4, math.NaN(), 4}, pearsonSpec())
	assert.True(t, math.IsNaN(flat.Estimate))
	assert.Equal(t, 3, flat.NObs)
	assert.Contains(t, flat.Note, "constant")
}

func TestRunner_PairwiseComplete(t *testing.T) {
	nan := math.NaN()
	x := []float64{1, 2, nan, 4, 5, 6}
	y := []float64{2, 4, 1, nan, 10, 12}
	res := newRunner().Run(context.Background(), pairData(x, y), pearsonSpec())
	assert.Equal(t, 4, res.NObs)
	assert.InDelta(t, 1.0, res.Estimate, 1e-12)
}

func TestRunner_NumericFailuresBecomeNA(t *testing.T) {
	r := newRunner()

	res := r.Run(context.Background(), pairData([]float64{1, 2}, []float64{3, 4}), pearsonSpec())
	assert.Equal(t, core.KindInsufficientData, res.ErrorKind)
	assert.True(t, math.IsNaN(res.P))

	res = r.Run(context.Background(), pairData([]float64{1, 2, 3, 4}, []float64{7, 7, 7, 7}), pearsonSpec())
	assert.Equal(t, core.KindDegenerateVariance, res.ErrorKind)
	assert.True(t, math.IsNaN(res.Estimate))
	assert.NotEmpty(t, res.Note)
}

func TestRunner_RankTransform(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{1, 4, 9, 16, 25, 36, 49, 1000}
	spec := pearsonSpec()
	spec.RankTransform = true
	res := newRunner().Run(context.Background(), pairData(x, y), spec)
	assert.InDelta(t, 1.0, res.Estimate, 1e-12)
	assert.Equal(t, "rho", res.EstimateName)
}

func TestRunner_Bayesian(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7, 10, 9, 12, 11}
	spec := pearsonSpec()
	spec.Bayesian = true

	a := newRunner().Run(context.Background(), pairData(x, y), spec)
	b := newRunner().Run(context.Background(), pairData(x, y), spec)
	assert.False(t, a.Failed(), a.Note)
	assert.Equal(t, a.Estimate, b.Estimate, "seeded streams are reproducible")
	assert.Greater(t, a.Estimate, 0.5)
	assert.Greater(t, a.BF10, 10.0)
	assert.Equal(t, "beta", a.PriorName)
	assert.InDelta(t, 3.0, a.PriorScale, 1e-12)
	assert.True(t, math.IsNaN(a.P))
	assert.Equal(t, "Bayesian Pearson correlation", a.Method)
}
