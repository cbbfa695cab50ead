package estimators

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rank returns fractional ranks (1-based, ties averaged)
func Rank(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && x[idx[j]] == x[idx[i]] {
			j++
		}
		// positions i..j-1 share the average rank
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// GaussianRank maps ranks onto standard normal quantiles, qnorm(rank/(n+1))
func GaussianRank(x []float64) []float64 {
	r := Rank(x)
	n := float64(len(x))
	for i, v := range r {
		r[i] = distuv.UnitNormal.Quantile(v / (n + 1))
	}
	return r
}

// Winsorize clips the lowest and highest g = floor(trim*n) values to the
// nearest retained order statistic.
func Winsorize(x []float64, trim float64) []float64 {
	n := len(x)
	out := append([]float64(nil), x...)
	g := int(math.Floor(trim * float64(n)))
	if g <= 0 || 2*g >= n {
		return out
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	lo, hi := sorted[g], sorted[n-g-1]
	for i, v := range out {
		if v < lo {
			out[i] = lo
		} else if v > hi {
			out[i] = hi
		}
	}
	return out
}

func rankBoth(req Request) ([]float64, []float64, error) {
	return Rank(req.X), Rank(req.Y), nil
}

func gaussianRankBoth(req Request) ([]float64, []float64, error) {
	return GaussianRank(req.X), GaussianRank(req.Y), nil
}

func winsorizeBoth(req Request) ([]float64, []float64, error) {
	return Winsorize(req.X, req.Spec.Tuning.Trim), Winsorize(req.Y, req.Spec.Tuning.Trim), nil
}
