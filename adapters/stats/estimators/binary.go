package estimators

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gocorr/domain/core"
)

// distinct returns the sorted distinct values of x
func distinct(x []float64) []float64 {
	seen := make(map[float64]struct{}, 8)
	var out []float64
	for _, v := range x {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func isBinary(x []float64) bool { return len(distinct(x)) == 2 }

// dichotomy recodes a two-valued variable to 0 (lower) and 1 (higher)
func dichotomy(x []float64) []float64 {
	levels := distinct(x)
	out := make([]float64, len(x))
	for i, v := range x {
		if v == levels[1] {
			out[i] = 1
		}
	}
	return out
}

// binaryPair orders the pair as (dichotomous, other). X wins when both are
// binary.
func binaryPair(req Request) (bin, other []float64, err error) {
	switch {
	case isBinary(req.X):
		return dichotomy(req.X), req.Y, nil
	case isBinary(req.Y):
		return dichotomy(req.Y), req.X, nil
	}
	return nil, nil, core.NewUnsupportedError("%s needs a binary variable in the pair", req.Spec.Method)
}

// requireBinary keeps point-biserial tests to pairs with a dichotomy
func requireBinary(req Request) ([]float64, []float64, error) {
	return binaryPair(req)
}

// biserialEstimate assumes the dichotomy cuts an underlying normal variable:
// rb = (m1 - m0) / sd * p q / phi(z_p). It can leave [-1, 1] in small samples.
func biserialEstimate(req Request) (Estimate, error) {
	bin, y, err := binaryPair(req)
	if err != nil {
		return Estimate{}, err
	}
	sd := stat.StdDev(y, nil)
	if !(sd > 0) {
		return Estimate{}, core.NewDegenerateError("continuous variable")
	}
	var m0, m1, n1 float64
	for i, b := range bin {
		if b == 1 {
			m1 += y[i]
			n1++
		} else {
			m0 += y[i]
		}
	}
	n := float64(len(bin))
	m1 /= n1
	m0 /= n - n1
	p := n1 / n
	q := 1 - p
	h := distuv.UnitNormal.Prob(distuv.UnitNormal.Quantile(q))
	rb := (m1 - m0) / sd * p * q / h
	if math.IsNaN(rb) {
		return Estimate{}, core.NewDegenerateError("binary variable")
	}
	return pearsonFamily(rb, req), nil
}
