package inference

import (
	"math"
	"sort"

	"gocorr/domain/correlation"
)

// Adjust applies a multiple-comparison correction. NaN p-values are left
// untouched and excluded from the family size.
func Adjust(p []float64, method correlation.PAdjust) []float64 {
	out := append([]float64(nil), p...)
	idx := make([]int, 0, len(p))
	for i, v := range p {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	n := len(idx)
	if n <= 1 || method == correlation.AdjustNone {
		return out
	}
	vals := make([]float64, n)
	for i, j := range idx {
		vals[i] = p[j]
	}

	var adj []float64
	switch method {
	case correlation.AdjustBonferroni:
		adj = make([]float64, n)
		for i, v := range vals {
			adj[i] = math.Min(1, float64(n)*v)
		}
	case correlation.AdjustHolm:
		adj = holm(vals)
	case correlation.AdjustHochberg:
		adj = stepUp(vals, func(i int) float64 { return float64(i + 1) })
	case correlation.AdjustHommel:
		if n == 2 {
			adj = stepUp(vals, func(i int) float64 { return float64(i + 1) })
		} else {
			adj = hommel(vals)
		}
	case correlation.AdjustBH:
		adj = stepUp(vals, func(i int) float64 { return float64(n) / float64(n-i) })
	case correlation.AdjustBY:
		q := 0.0
		for i := 1; i <= n; i++ {
			q += 1 / float64(i)
		}
		adj = stepUp(vals, func(i int) float64 { return q * float64(n) / float64(n-i) })
	default:
		return out
	}
	for i, j := range idx {
		out[j] = adj[i]
	}
	return out
}

// order returns indices sorting p ascending (stable)
func order(p []float64, descending bool) []int {
	o := make([]int, len(p))
	for i := range o {
		o[i] = i
	}
	sort.SliceStable(o, func(a, b int) bool {
		if descending {
			return p[o[a]] > p[o[b]]
		}
		return p[o[a]] < p[o[b]]
	})
	return o
}

func holm(p []float64) []float64 {
	n := len(p)
	o := order(p, false)
	out := make([]float64, n)
	running := 0.0
	for rank, i := range o {
		v := float64(n-rank) * p[i]
		if v > running {
			running = v
		}
		out[i] = math.Min(1, running)
	}
	return out
}

// stepUp walks p in decreasing order applying a cumulative minimum of
// factor(i)*p, where i counts from the largest p-value (0-based).
func stepUp(p []float64, factor func(i int) float64) []float64 {
	n := len(p)
	o := order(p, true)
	out := make([]float64, n)
	running := math.Inf(1)
	for rank, i := range o {
		v := factor(rank) * p[i]
		if v < running {
			running = v
		}
		out[i] = math.Min(1, running)
	}
	return out
}

func hommel(p0 []float64) []float64 {
	n := len(p0)
	o := order(p0, false)
	p := make([]float64, n)
	for rank, i := range o {
		p[rank] = p0[i]
	}

	start := math.Inf(1)
	for i := 0; i < n; i++ {
		start = math.Min(start, float64(n)*p[i]/float64(i+1))
	}
	q := make([]float64, n)
	pa := make([]float64, n)
	for i := range q {
		q[i], pa[i] = start, start
	}
	for m := n - 1; m >= 2; m-- {
		// i1 = 0..n-m, i2 = n-m+1..n-1
		q1 := math.Inf(1)
		for k, i := 2, n-m+1; i < n; k, i = k+1, i+1 {
			q1 = math.Min(q1, float64(m)*p[i]/float64(k))
		}
		for i := 0; i <= n-m; i++ {
			q[i] = math.Min(float64(m)*p[i], q1)
		}
		for i := n - m + 1; i < n; i++ {
			q[i] = q[n-m]
		}
		for i := range pa {
			pa[i] = math.Max(pa[i], q[i])
		}
	}
	out := make([]float64, n)
	for rank, i := range o {
		out[i] = math.Max(pa[rank], p[rank])
	}
	return out
}
