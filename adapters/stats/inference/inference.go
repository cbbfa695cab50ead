// Package inference turns correlation estimates into test statistics,
// p-values and confidence intervals.
package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gocorr/domain/correlation"
)

// SEKind selects the Fisher z standard error approximation
type SEKind int

const (
	// SEPearson is 1/sqrt(n-3)
	SEPearson SEKind = iota
	// SESpearman is the Bonett-Wright sqrt(1.06/(n-3))
	SESpearman
	// SEKendall is the Fieller sqrt(0.437/(n-4))
	SEKendall
)

// Result is the inferential part of a test result
type Result struct {
	Statistic     float64
	StatisticName string
	DF            float64
	P             float64
	CILow         float64
	CIHigh        float64
}

// NA returns a result with every field missing
func NA() Result {
	nan := math.NaN()
	return Result{Statistic: nan, DF: nan, P: nan, CILow: nan, CIHigh: nan}
}

// PFromT returns the p-value of a t statistic
func PFromT(t, df float64, alt correlation.Alternative) float64 {
	if math.IsNaN(t) || !(df > 0) {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	switch alt {
	case correlation.Greater:
		return dist.Survival(t)
	case correlation.Less:
		return dist.CDF(t)
	default:
		return math.Min(1, 2*dist.Survival(math.Abs(t)))
	}
}

// PFromZ returns the p-value of a standard normal statistic
func PFromZ(z float64, alt correlation.Alternative) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	switch alt {
	case correlation.Greater:
		return distuv.UnitNormal.Survival(z)
	case correlation.Less:
		return distuv.UnitNormal.CDF(z)
	default:
		return math.Min(1, 2*distuv.UnitNormal.Survival(math.Abs(z)))
	}
}

// TStatistic is r*sqrt(df/(1-r^2)), infinite for perfect correlation
func TStatistic(r, df float64) float64 {
	if math.IsNaN(r) || !(df > 0) {
		return math.NaN()
	}
	denom := 1 - r*r
	if denom <= 0 {
		return math.Copysign(math.Inf(1), r)
	}
	return r * math.Sqrt(df/denom)
}

// TTest is the t-based test of a correlation from n observations with k
// covariates partialled out (df = n - 2 - k).
func TTest(r float64, n, k int, alt correlation.Alternative) (t, df, p float64) {
	df = float64(n - 2 - k)
	if df <= 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	t = TStatistic(r, df)
	return t, df, PFromT(t, df, alt)
}

// FisherCI is the confidence interval of r on the Fisher z scale. n is the
// effective sample size (observations minus partialled covariates).
func FisherCI(r float64, n int, level float64, kind SEKind) (low, high float64) {
	nan := math.NaN()
	if math.IsNaN(r) || !(level > 0 && level < 1) {
		return nan, nan
	}
	var se float64
	switch kind {
	case SESpearman:
		if n <= 3 {
			return nan, nan
		}
		se = math.Sqrt(1.06 / float64(n-3))
	case SEKendall:
		if n <= 4 {
			return nan, nan
		}
		se = math.Sqrt(0.437 / float64(n-4))
	default:
		if n <= 3 {
			return nan, nan
		}
		se = 1 / math.Sqrt(float64(n-3))
	}
	z := FisherZ(r)
	crit := distuv.UnitNormal.Quantile((1 + level) / 2)
	return math.Tanh(z - crit*se), math.Tanh(z + crit*se)
}

// FisherZ is atanh(r), clamped so |r| = 1 maps to a finite value
func FisherZ(r float64) float64 {
	const edge = 1 - 1e-15
	if r >= edge {
		r = edge
	} else if r <= -edge {
		r = -edge
	}
	return math.Atanh(r)
}

// Pearson is the t test and Fisher interval used by the Pearson family
func Pearson(r float64, n, k int, level float64, alt correlation.Alternative) Result {
	t, df, p := TTest(r, n, k, alt)
	lo, hi := FisherCI(r, n-k, level, SEPearson)
	return Result{Statistic: t, StatisticName: "t", DF: df, P: p, CILow: lo, CIHigh: hi}
}

// Spearman reports the S statistic with a t-approximated p-value
func Spearman(rho float64, n, k int, level float64, alt correlation.Alternative) Result {
	_, df, p := TTest(rho, n, k, alt)
	fn := float64(n)
	s := (fn*fn*fn - fn) * (1 - rho) / 6
	lo, hi := FisherCI(rho, n-k, level, SESpearman)
	return Result{Statistic: s, StatisticName: "S", DF: df, P: p, CILow: lo, CIHigh: hi}
}

// Kendall is the normal approximation z = 3 tau sqrt(n(n-1)) / sqrt(2(2n+5))
func Kendall(tau float64, n, k int, level float64, alt correlation.Alternative) Result {
	ne := float64(n - k)
	res := NA()
	res.StatisticName = "z"
	if ne < 2 {
		return res
	}
	z := 3 * tau * math.Sqrt(ne*(ne-1)) / math.Sqrt(2*(2*ne+5))
	res.Statistic = z
	res.P = PFromZ(z, alt)
	res.CILow, res.CIHigh = FisherCI(tau, n-k, level, SEKendall)
	return res
}

// Recompute rebuilds inference for a method from (r, n, k). It is used
// when an estimate is replaced after the fact, e.g. partial-to-zero-order
// conversion.
func Recompute(method correlation.Method, r float64, n, k int, level float64, alt correlation.Alternative) Result {
	switch method {
	case correlation.MethodSpearman, correlation.MethodShepherd:
		return Spearman(r, n, k, level, alt)
	case correlation.MethodKendall:
		return Kendall(r, n, k, level, alt)
	default:
		return Pearson(r, n, k, level, alt)
	}
}

// CompareCorrelations tests the difference of two correlations from
// independent samples on the Fisher z scale.
func CompareCorrelations(r1 float64, n1 int, r2 float64, n2 int, alt correlation.Alternative) (z, p float64) {
	if n1 <= 3 || n2 <= 3 {
		return math.NaN(), math.NaN()
	}
	se := math.Sqrt(1/float64(n1-3) + 1/float64(n2-3))
	z = (FisherZ(r1) - FisherZ(r2)) / se
	return z, PFromZ(z, alt)
}
