// Package bayes computes posterior summaries of a correlation under a
// stretched beta prior.
//
// The likelihood of rho given the sample correlation r is approximated by
// (1-rho^2)^((n-1)/2) / (1-rho*r)^(n-3/2), which is exact in its dependence
// on rho up to a hypergeometric correction of order 1/n. The posterior is
// tabulated on a grid and sampled by inverse CDF with the caller's RNG, so
// a fixed seed reproduces every summary.
package bayes

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"gocorr/domain/core"
	"gocorr/domain/correlation"
)

const (
	gridSize = 2001
	draws    = 4000
	// ropeHalfWidth bounds the region of practical equivalence around zero
	ropeHalfWidth = 0.05
)

// Summary describes the posterior of rho
type Summary struct {
	Median         float64
	CILow          float64
	CIHigh         float64
	PD             float64
	ROPEPercentage float64
	BF10           float64
	// Shape is the beta parameter of the prior, 1/scale
	Shape float64
}

// PriorShape converts a prior width into the beta(a, a) parameter
func PriorShape(p correlation.Prior) float64 { return 1 / p.Scale }

// Correlation summarises the posterior of rho for paired data
func Correlation(x, y []float64, prior correlation.Prior, ci float64, rng *rand.Rand) (Summary, error) {
	n := len(x)
	if n < 3 {
		return Summary{}, core.NewInsufficientDataError(n)
	}
	if !(prior.Scale > 0) {
		return Summary{}, core.NewInvalidOptionError("bayesian_prior", fmt.Sprintf("scale %v must be positive", prior.Scale))
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return Summary{}, core.NewDegenerateError("x, y")
	}
	return FromR(r, n, prior, ci, rng), nil
}

// FromR summarises the posterior given the sufficient pair (r, n)
func FromR(r float64, n int, prior correlation.Prior, ci float64, rng *rand.Rand) Summary {
	a := PriorShape(prior)
	logBeta := 2*lgamma(a) - lgamma(2*a)

	grid := make([]float64, gridSize)
	logPost := make([]float64, gridSize)
	maxLog := math.Inf(-1)
	for i := range grid {
		rho := -1 + 2*float64(i+1)/float64(gridSize+1)
		grid[i] = rho
		lp := (a-1)*math.Log1p(-rho*rho) - (2*a-1)*math.Ln2 - logBeta
		logPost[i] = logLikelihoodRatio(rho, r, n) + lp
		if logPost[i] > maxLog {
			maxLog = logPost[i]
		}
	}
	dens := make([]float64, gridSize)
	for i, v := range logPost {
		dens[i] = math.Exp(v - maxLog)
	}
	mass := integrate.Simpsons(grid, dens)

	s := Summary{Shape: a, BF10: math.Exp(maxLog) * mass}

	cdf := cumulative(grid, dens)
	samples := make([]float64, draws)
	for i := range samples {
		samples[i] = invert(grid, cdf, rng.Float64())
	}
	sort.Float64s(samples)
	s.Median = stat.Quantile(0.5, stat.Empirical, samples, nil)
	s.CILow = stat.Quantile((1-ci)/2, stat.Empirical, samples, nil)
	s.CIHigh = stat.Quantile((1+ci)/2, stat.Empirical, samples, nil)

	var pos, neg, inCI, inROPE float64
	for _, v := range samples {
		switch {
		case v > 0:
			pos++
		case v < 0:
			neg++
		}
		if v >= s.CILow && v <= s.CIHigh {
			inCI++
			if math.Abs(v) <= ropeHalfWidth {
				inROPE++
			}
		}
	}
	s.PD = math.Max(pos, neg) / draws
	if inCI > 0 {
		s.ROPEPercentage = inROPE / inCI
	}
	return s
}

// logLikelihoodRatio is log L(rho) - log L(0)
func logLikelihoodRatio(rho, r float64, n int) float64 {
	fn := float64(n)
	return (fn-1)/2*math.Log1p(-rho*rho) - (fn-1.5)*math.Log1p(-rho*r)
}

// cumulative integrates dens by the trapezoid rule and normalises to 1
func cumulative(x, dens []float64) []float64 {
	cdf := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		cdf[i] = cdf[i-1] + (x[i]-x[i-1])*(dens[i]+dens[i-1])/2
	}
	total := cdf[len(cdf)-1]
	for i := range cdf {
		cdf[i] /= total
	}
	return cdf
}

// invert maps a uniform draw through the tabulated CDF
func invert(x, cdf []float64, u float64) float64 {
	i := sort.SearchFloat64s(cdf, u)
	switch {
	case i <= 0:
		return x[0]
	case i >= len(x):
		return x[len(x)-1]
	}
	span := cdf[i] - cdf[i-1]
	if span <= 0 {
		return x[i]
	}
	return x[i-1] + (u-cdf[i-1])/span*(x[i]-x[i-1])
}

func lgamma(v float64) float64 {
	l, _ := math.Lgamma(v)
	return l
}
