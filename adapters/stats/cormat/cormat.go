// Package cormat converts between correlation matrix parameterisations
package cormat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gocorr/domain/core"
)

// ErrNotInvertible is returned when a matrix has no usable inverse
var ErrNotInvertible = fmt.Errorf("%w: matrix is not positive definite", core.ErrDegenerateVariance)

// FromRows builds a symmetric matrix from a square slice
func FromRows(rows [][]float64) *mat.SymDense {
	n := len(rows)
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, rows[i][j])
		}
	}
	return s
}

// ToRows copies a symmetric matrix into a square slice
func ToRows(s mat.Symmetric) [][]float64 {
	n := s.SymmetricDim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = s.At(i, j)
		}
	}
	return out
}

// inverse returns the inverse of a positive definite matrix
func inverse(s mat.Symmetric) (*mat.SymDense, error) {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.IsNaN(s.At(i, j)) {
				return nil, fmt.Errorf("%w: missing entry (%d, %d)", ErrNotInvertible, i, j)
			}
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return nil, ErrNotInvertible
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInvertible, err)
	}
	return &inv, nil
}

// standardize rescales a positive definite matrix to unit diagonal,
// negating the off-diagonal when flip is set.
func standardize(s mat.Symmetric, flip bool) *mat.SymDense {
	n := s.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			v := s.At(i, j) / math.Sqrt(s.At(i, i)*s.At(j, j))
			if flip {
				v = -v
			}
			out.SetSym(i, j, v)
		}
	}
	return out
}

// FullToPartial converts zero-order correlations into partial correlations
// of each pair given every other variable: -K_ij / sqrt(K_ii K_jj), K = R^-1.
func FullToPartial(r mat.Symmetric) (*mat.SymDense, error) {
	k, err := inverse(r)
	if err != nil {
		return nil, err
	}
	return standardize(k, true), nil
}

// PartialToFull inverts FullToPartial. The unit-diagonal matrix with
// off-diagonal -P is a rescaled precision matrix; its inverse rescaled to
// unit diagonal is the zero-order correlation matrix.
func PartialToFull(p mat.Symmetric) (*mat.SymDense, error) {
	n := p.SymmetricDim()
	omega := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		omega.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			omega.SetSym(i, j, -p.At(i, j))
		}
	}
	sigma, err := inverse(omega)
	if err != nil {
		return nil, err
	}
	return standardize(sigma, false), nil
}

// ToSemiPartial returns semi-partial (part) correlations. Entry (i, j) is
// the correlation of variable i with variable j after j alone has been
// residualized on the remaining variables, so the result is not symmetric.
func ToSemiPartial(r mat.Symmetric) (*mat.Dense, error) {
	k, err := inverse(r)
	if err != nil {
		return nil, err
	}
	p := standardize(k, true)
	n := r.SymmetricDim()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			pr := p.At(i, j)
			out.Set(i, j, pr/math.Sqrt(k.At(i, i)*(1-pr*pr)))
		}
	}
	return out, nil
}

// IsPositiveDefinite reports whether a Cholesky factorisation exists
func IsPositiveDefinite(s mat.Symmetric) bool {
	var chol mat.Cholesky
	return chol.Factorize(s)
}

// Smooth repairs a non positive definite correlation matrix by raising
// eigenvalues below tol to tol and rescaling to unit diagonal.
func Smooth(r mat.Symmetric, tol float64) (*mat.SymDense, error) {
	if tol <= 0 {
		tol = 1e-8
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(r, true); !ok {
		return nil, fmt.Errorf("%w: eigendecomposition failed", core.ErrModelConvergence)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	n := len(values)
	for i, v := range values {
		if v < tol {
			values[i] = tol
		}
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += vectors.At(i, k) * values[k] * vectors.At(j, k)
			}
			out.SetSym(i, j, sum)
		}
	}
	return standardize(out, false), nil
}

// ToCovariance scales a correlation matrix by standard deviations
func ToCovariance(r mat.Symmetric, sd []float64) (*mat.SymDense, error) {
	n := r.SymmetricDim()
	if len(sd) != n {
		return nil, core.NewInvalidOptionError("sd", fmt.Sprintf("has %d entries, matrix has %d", len(sd), n))
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, r.At(i, j)*sd[i]*sd[j])
		}
	}
	return out, nil
}

// FisherZ is the variance stabilising transform atanh(r)
func FisherZ(r float64) float64 { return math.Atanh(r) }

// FisherZInverse maps z back onto the correlation scale
func FisherZInverse(z float64) float64 { return math.Tanh(z) }
