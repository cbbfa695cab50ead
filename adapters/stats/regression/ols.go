// Package regression fits the linear models used to residualize variables
// before partial and multilevel correlations.
package regression

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"gocorr/domain/core"
)

// Design builds a model matrix with an intercept column followed by the
// given predictors. Every predictor must have n values.
func Design(n int, predictors ...[]float64) *mat.Dense {
	x := mat.NewDense(n, 1+len(predictors), nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, p := range predictors {
			x.Set(i, j+1, p[i])
		}
	}
	return x
}

// DummyCode expands a factor into treatment contrasts: one indicator per
// level except the lowest
func DummyCode(values []float64) [][]float64 {
	seen := make(map[float64]struct{})
	var levels []float64
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			levels = append(levels, v)
		}
	}
	sort.Float64s(levels)
	if len(levels) < 2 {
		return nil
	}
	out := make([][]float64, len(levels)-1)
	for j, level := range levels[1:] {
		col := make([]float64, len(values))
		for i, v := range values {
			if v == level {
				col[i] = 1
			}
		}
		out[j] = col
	}
	return out
}

// OLS is a least squares fit through a QR decomposition
type OLS struct {
	Coefficients []float64
	Fitted       []float64
	Residuals    []float64
}

// FitOLS regresses y on the columns of x
func FitOLS(y []float64, x *mat.Dense) (*OLS, error) {
	n, p := x.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("response has %d rows, design has %d", len(y), n)
	}
	if n <= p {
		return nil, core.NewInsufficientDataError(n)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: collinear predictors (condition %.3g)", core.ErrDegenerateVariance, float64(cond))
		}
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	out := &OLS{
		Coefficients: make([]float64, p),
		Fitted:       make([]float64, n),
		Residuals:    make([]float64, n),
	}
	for j := 0; j < p; j++ {
		out.Coefficients[j] = beta.AtVec(j)
	}
	for i := 0; i < n; i++ {
		out.Fitted[i] = fitted.AtVec(i)
		out.Residuals[i] = y[i] - out.Fitted[i]
		if math.IsNaN(out.Residuals[i]) {
			return nil, fmt.Errorf("%w: non-finite fit", core.ErrDegenerateVariance)
		}
	}
	return out, nil
}

// Residualize returns the OLS residuals of y on an intercept plus the
// predictors
func Residualize(y []float64, predictors ...[]float64) ([]float64, error) {
	fit, err := FitOLS(y, Design(len(y), predictors...))
	if err != nil {
		return nil, err
	}
	return fit.Residuals, nil
}
