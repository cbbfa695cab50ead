package estimators

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"gocorr/domain/core"
	"gocorr/domain/dataset"
)

// minCellProb keeps the log-likelihood finite for empty or tiny cells
const minCellProb = 1e-300

// discrete reports whether a variable is analysed through latent thresholds
func discrete(values []float64, typ dataset.ColumnType) bool {
	return typ.IsFactor() || isBinary(values)
}

// codes maps the sorted distinct values of x onto 0..k-1
func codes(x []float64) ([]int, int) {
	levels := distinct(x)
	index := make(map[float64]int, len(levels))
	for i, v := range levels {
		index[v] = i
	}
	out := make([]int, len(x))
	for i, v := range x {
		out[i] = index[v]
	}
	return out, len(levels)
}

// thresholds are the normal quantiles of the cumulative marginal
// proportions, padded with -Inf and +Inf
func thresholds(c []int, k int) []float64 {
	counts := make([]float64, k)
	for _, v := range c {
		counts[v]++
	}
	n := float64(len(c))
	tau := make([]float64, k+1)
	tau[0] = math.Inf(-1)
	tau[k] = math.Inf(1)
	cum := 0.0
	for i := 0; i < k-1; i++ {
		cum += counts[i]
		tau[i+1] = distuv.UnitNormal.Quantile(cum / n)
	}
	return tau
}

func polychoricEstimate(req Request) (Estimate, error) {
	dx, dy := discrete(req.X, req.XType), discrete(req.Y, req.YType)
	switch {
	case dx && dy:
		rho, err := polychoric(req.X, req.Y)
		if err != nil {
			return Estimate{}, err
		}
		return pearsonFamily(rho, req), nil
	case dx:
		rho, err := polyserial(req.Y, req.X)
		if err != nil {
			return Estimate{}, err
		}
		return pearsonFamily(rho, req), nil
	case dy:
		rho, err := polyserial(req.X, req.Y)
		if err != nil {
			return Estimate{}, err
		}
		return pearsonFamily(rho, req), nil
	}
	return Estimate{}, core.NewUnsupportedError("polychoric correlation needs an ordinal, categorical or binary variable")
}

// tetrachoricEstimate is the polychoric correlation of two dichotomies
func tetrachoricEstimate(req Request) (Estimate, error) {
	if !isBinary(req.X) || !isBinary(req.Y) {
		return Estimate{}, core.NewUnsupportedError("tetrachoric correlation needs two binary variables")
	}
	rho, err := polychoric(req.X, req.Y)
	if err != nil {
		return Estimate{}, err
	}
	return pearsonFamily(rho, req), nil
}

// polychoric is the two-step maximum likelihood estimate: thresholds from
// the margins, then rho maximising the contingency table likelihood under
// a bivariate normal.
func polychoric(x, y []float64) (float64, error) {
	cx, kx := codes(x)
	cy, ky := codes(y)
	if kx < 2 {
		return math.NaN(), core.NewDegenerateError("x")
	}
	if ky < 2 {
		return math.NaN(), core.NewDegenerateError("y")
	}
	table := make([][]float64, kx)
	for i := range table {
		table[i] = make([]float64, ky)
	}
	for i := range cx {
		table[cx[i]][cy[i]]++
	}
	a, b := thresholds(cx, kx), thresholds(cy, ky)

	negLogLik := func(theta []float64) float64 {
		rho := math.Tanh(theta[0])
		var ll float64
		for i := 0; i < kx; i++ {
			for j := 0; j < ky; j++ {
				if table[i][j] == 0 {
					continue
				}
				p := BivariateNormalCDF(a[i+1], b[j+1], rho) -
					BivariateNormalCDF(a[i], b[j+1], rho) -
					BivariateNormalCDF(a[i+1], b[j], rho) +
					BivariateNormalCDF(a[i], b[j], rho)
				ll += table[i][j] * math.Log(math.Max(p, minCellProb))
			}
		}
		return -ll
	}

	start := 0.0
	if r, err := pearson(x, y); err == nil {
		start = math.Atanh(math.Max(-0.95, math.Min(0.95, r)))
	}
	res, err := optimize.Minimize(optimize.Problem{Func: negLogLik}, []float64{start}, nil, &optimize.NelderMead{})
	if err != nil {
		return math.NaN(), core.NewConvergenceError("polychoric likelihood", err)
	}
	rho := math.Tanh(res.X[0])
	if math.IsNaN(rho) || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return math.NaN(), core.NewConvergenceError("polychoric likelihood", nil)
	}
	return rho, nil
}

// polyserial is the ad hoc two-step estimator of Olsson, Drasgow and
// Dorans: r(x, codes) * sd(codes) / sum(phi(tau_j)).
func polyserial(x, ordinal []float64) (float64, error) {
	c, k := codes(ordinal)
	if k < 2 {
		return math.NaN(), core.NewDegenerateError("ordinal variable")
	}
	scores := make([]float64, len(c))
	for i, v := range c {
		scores[i] = float64(v)
	}
	r, err := pearson(x, scores)
	if err != nil {
		return math.NaN(), err
	}
	sd, err := stats.StandardDeviationPopulation(scores)
	if err != nil {
		return math.NaN(), core.NewInsufficientDataError(len(scores))
	}
	tau := thresholds(c, k)
	var density float64
	for _, t := range tau[1:k] {
		density += distuv.UnitNormal.Prob(t)
	}
	if density == 0 {
		return math.NaN(), core.NewDegenerateError("ordinal variable")
	}
	return clamp(r * sd / density), nil
}
