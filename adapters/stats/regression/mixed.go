package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"gocorr/domain/core"
)

// log variance ratios are kept inside this box so the mixed model
// equations stay well conditioned near a zero variance component
const (
	minLogRatio = -15.0
	maxLogRatio = 15.0
)

// Grouping is one random-intercept factor: a level code per row
type Grouping struct {
	Name   string
	Codes  []int
	Levels int
}

// NewGrouping codes the distinct values of a factor column in order of
// first appearance
func NewGrouping(name string, values []float64) Grouping {
	index := make(map[float64]int)
	codes := make([]int, len(values))
	for i, v := range values {
		c, ok := index[v]
		if !ok {
			c = len(index)
			index[v] = c
		}
		codes[i] = c
	}
	return Grouping{Name: name, Codes: codes, Levels: len(index)}
}

// MixedFit is a linear mixed model with independent random intercepts,
// estimated by REML
type MixedFit struct {
	Fixed []float64
	// Random holds the predicted intercepts, grouping by grouping
	Random [][]float64
	// Ratios are the variance ratios sigma_g^2 / sigma^2
	Ratios    []float64
	Sigma2    float64
	Residuals []float64
}

// FitRandomIntercept fits y = X beta + sum_g Z_g u_g + e. Residuals are
// conditional on the predicted random effects.
func FitRandomIntercept(y []float64, x *mat.Dense, groups []Grouping) (*MixedFit, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("response has %d rows, design has %d", len(y), n)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("random intercept model needs at least one grouping")
	}
	if n <= p {
		return nil, core.NewInsufficientDataError(n)
	}
	q := 0
	for _, g := range groups {
		if len(g.Codes) != n {
			return nil, fmt.Errorf("grouping %s has %d rows, want %d", g.Name, len(g.Codes), n)
		}
		q += g.Levels
	}

	// W = [X Z]
	w := mat.NewDense(n, p+q, nil)
	w.Slice(0, n, 0, p).(*mat.Dense).Copy(x)
	offset := p
	for _, g := range groups {
		for i, c := range g.Codes {
			w.Set(i, offset+c, 1)
		}
		offset += g.Levels
	}
	var base mat.SymDense
	base.SymOuterK(1, w.T())
	yv := mat.NewVecDense(n, y)
	var rhs mat.VecDense
	rhs.MulVec(w.T(), yv)
	yy := mat.Dot(yv, yv)

	type solution struct {
		sol    mat.VecDense
		sigma2 float64
		reml   float64
	}
	solve := func(theta []float64) (*solution, bool) {
		c := mat.NewSymDense(p+q, nil)
		c.CopySym(&base)
		logDetLambda := 0.0
		offset := p
		for k, g := range groups {
			t := math.Max(minLogRatio, math.Min(maxLogRatio, theta[k]))
			for j := 0; j < g.Levels; j++ {
				c.SetSym(offset+j, offset+j, c.At(offset+j, offset+j)+math.Exp(-t))
			}
			logDetLambda += float64(g.Levels) * t
			offset += g.Levels
		}
		var chol mat.Cholesky
		if !chol.Factorize(c) {
			return nil, false
		}
		s := &solution{}
		if err := chol.SolveVecTo(&s.sol, &rhs); err != nil {
			return nil, false
		}
		s.sigma2 = (yy - mat.Dot(&s.sol, &rhs)) / float64(n-p)
		if !(s.sigma2 > 0) {
			return nil, false
		}
		s.reml = float64(n-p)*math.Log(s.sigma2) + logDetLambda + chol.LogDet()
		return s, true
	}

	objective := func(theta []float64) float64 {
		s, ok := solve(theta)
		if !ok {
			return math.Inf(1)
		}
		return s.reml
	}
	start := make([]float64, len(groups))
	res, err := optimize.Minimize(optimize.Problem{Func: objective}, start, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, core.NewConvergenceError("random intercept REML", err)
	}
	best, ok := solve(res.X)
	if !ok {
		return nil, core.NewConvergenceError("random intercept REML", nil)
	}

	fit := &MixedFit{
		Fixed:     make([]float64, p),
		Random:    make([][]float64, len(groups)),
		Ratios:    make([]float64, len(groups)),
		Sigma2:    best.sigma2,
		Residuals: make([]float64, n),
	}
	for j := 0; j < p; j++ {
		fit.Fixed[j] = best.sol.AtVec(j)
	}
	offset = p
	for k, g := range groups {
		fit.Ratios[k] = math.Exp(math.Max(minLogRatio, math.Min(maxLogRatio, res.X[k])))
		fit.Random[k] = make([]float64, g.Levels)
		for j := range fit.Random[k] {
			fit.Random[k][j] = best.sol.AtVec(offset + j)
		}
		offset += g.Levels
	}
	var fitted mat.VecDense
	fitted.MulVec(w, &best.sol)
	for i := range y {
		fit.Residuals[i] = y[i] - fitted.AtVec(i)
	}
	return fit, nil
}
