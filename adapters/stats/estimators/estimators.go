// Package estimators holds the numeric delegate behind every correlation
// method. Each method is one file; the registry below maps the closed
// correlation.Method enumeration onto its implementation.
package estimators

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"gocorr/adapters/stats/inference"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
)

// Request is one pair of complete observations plus the resolved test
type Request struct {
	X     []float64
	Y     []float64
	XType dataset.ColumnType
	YType dataset.ColumnType
	Spec  correlation.TestSpec
	// RNG is the pair's private stream, used by stochastic estimators only
	RNG *rand.Rand
}

// N returns the number of observations
func (r Request) N() int { return len(r.X) }

// with returns a copy of the request over new data
func (r Request) with(x, y []float64) Request {
	r.X, r.Y = x, y
	return r
}

// Estimate is the output of a delegate: the coefficient plus inference
type Estimate struct {
	Value float64
	inference.Result
	// NObs is the number of observations the coefficient was computed on
	NObs int
}

// Estimator couples an optional data transform with the coefficient
// computation. Bayesian tests reuse Transform and replace Compute with a
// posterior over the transformed data.
type Estimator struct {
	Method correlation.Method
	// Transform maps complete observations onto the scale the coefficient
	// is computed on. Nil means identity.
	Transform func(req Request) (x, y []float64, err error)
	Compute   func(req Request) (Estimate, error)
}

// Prepare applies Transform when present
func (e Estimator) Prepare(req Request) ([]float64, []float64, error) {
	if e.Transform == nil {
		return req.X, req.Y, nil
	}
	return e.Transform(req)
}

// Run prepares the data and computes the estimate
func (e Estimator) Run(req Request) (Estimate, error) {
	x, y, err := e.Prepare(req)
	if err != nil {
		return Estimate{}, err
	}
	if len(x) < 3 {
		return Estimate{}, core.NewInsufficientDataError(len(x))
	}
	est, err := e.Compute(req.with(x, y))
	if err != nil {
		return Estimate{}, err
	}
	if est.NObs == 0 {
		est.NObs = len(x)
	}
	return est, nil
}

var registry = map[correlation.Method]Estimator{
	correlation.MethodPearson:        {Compute: pearsonEstimate},
	correlation.MethodSpearman:       {Transform: rankBoth, Compute: spearmanEstimate},
	correlation.MethodKendall:        {Compute: kendallEstimate},
	correlation.MethodBiweight:       {Compute: biweightEstimate},
	correlation.MethodDistance:       {Compute: distanceEstimate},
	correlation.MethodPercentageBend: {Compute: percentageBendEstimate},
	correlation.MethodShepherd:       {Transform: shepherdTransform, Compute: spearmanEstimate},
	correlation.MethodBlomqvist:      {Compute: blomqvistEstimate},
	correlation.MethodHoeffding:      {Compute: hoeffdingEstimate},
	correlation.MethodGamma:          {Compute: gammaEstimate},
	correlation.MethodGaussian:       {Transform: gaussianRankBoth, Compute: pearsonEstimate},
	correlation.MethodBiserial:       {Compute: biserialEstimate},
	correlation.MethodPointBiserial:  {Transform: requireBinary, Compute: pearsonEstimate},
	correlation.MethodWinsorized:     {Transform: winsorizeBoth, Compute: winsorizedEstimate},
	correlation.MethodPolychoric:     {Compute: polychoricEstimate},
	correlation.MethodTetrachoric:    {Compute: tetrachoricEstimate},
}

// For returns the estimator of a concrete method
func For(m correlation.Method) (Estimator, error) {
	e, ok := registry[m]
	if !ok {
		return Estimator{}, fmt.Errorf("no estimator registered for method %s", m)
	}
	e.Method = m
	return e, nil
}

// pearson is the product-moment correlation, failing on zero variance
func pearson(x, y []float64) (float64, error) {
	if len(x) < 3 {
		return math.NaN(), core.NewInsufficientDataError(len(x))
	}
	if stat.Variance(x, nil) <= 0 {
		return math.NaN(), core.NewDegenerateError("x")
	}
	if stat.Variance(y, nil) <= 0 {
		return math.NaN(), core.NewDegenerateError("y")
	}
	return clamp(stat.Correlation(x, y, nil)), nil
}

func pearsonEstimate(req Request) (Estimate, error) {
	r, err := pearson(req.X, req.Y)
	if err != nil {
		return Estimate{}, err
	}
	return pearsonFamily(r, req), nil
}

// pearsonFamily attaches the t test and Fisher interval to r
func pearsonFamily(r float64, req Request) Estimate {
	s := req.Spec
	return Estimate{
		Value:  r,
		Result: inference.Pearson(r, req.N(), s.Covariates, s.CI, s.Alternative),
	}
}

// clamp removes floating point excursions past +-1
func clamp(r float64) float64 {
	switch {
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}

// sign returns -1, 0 or 1
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
