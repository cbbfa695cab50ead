package estimators

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gocorr/adapters/stats/inference"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
)

// Satterthwaite approximation of the Blum-Kiefer-Rosenblatt law:
// BKR ~ c * chi2(nu) with matching first two moments
const (
	bkrScale = 1.0 / 225.0
	bkrDF    = 6.25
)

// distanceEstimate is the bias-corrected distance correlation of Szekely
// and Rizzo, tested with their t approximation (one-sided by construction).
func distanceEstimate(req Request) (Estimate, error) {
	n := req.N()
	if n < 4 {
		return Estimate{}, core.NewInsufficientDataError(n)
	}
	a := uCentered(req.X)
	b := uCentered(req.Y)
	ab, aa, bb := uProduct(a, b), uProduct(a, a), uProduct(b, b)
	if aa <= 0 {
		return Estimate{}, core.NewDegenerateError("x")
	}
	if bb <= 0 {
		return Estimate{}, core.NewDegenerateError("y")
	}
	r := clamp(ab / math.Sqrt(aa*bb))

	s := req.Spec
	res := inference.NA()
	res.StatisticName = "t"
	m := float64(n) * float64(n-3) / 2
	if df := m - 1; df > 0 {
		res.DF = df
		res.Statistic = inference.TStatistic(r, df)
		res.P = inference.PFromT(res.Statistic, df, correlation.Greater)
	}
	res.CILow, res.CIHigh = inference.FisherCI(r, n-s.Covariates, s.CI, inference.SEPearson)
	return Estimate{Value: r, Result: res}, nil
}

// uCentered returns the U-centered pairwise distance matrix of x
func uCentered(x []float64) [][]float64 {
	n := len(x)
	d := make([][]float64, n)
	rows := make([]float64, n)
	var total float64
	for i := range d {
		d[i] = make([]float64, n)
		for j := range d[i] {
			d[i][j] = math.Abs(x[i] - x[j])
			rows[i] += d[i][j]
		}
		total += rows[i]
	}
	fn := float64(n)
	for i := range d {
		for j := range d[i] {
			if i == j {
				d[i][j] = 0
				continue
			}
			d[i][j] += -rows[i]/(fn-2) - rows[j]/(fn-2) + total/((fn-1)*(fn-2))
		}
	}
	return d
}

func uProduct(a, b [][]float64) float64 {
	n := len(a)
	var sum float64
	for i := range a {
		for j := range a[i] {
			if i != j {
				sum += a[i][j] * b[i][j]
			}
		}
	}
	return sum / (float64(n) * float64(n-3))
}

// hoeffdingEstimate computes Hoeffding's D on the x30 scale (range -0.5 to
// 1). Tied observations contribute fractional bivariate ranks.
func hoeffdingEstimate(req Request) (Estimate, error) {
	x, y := req.X, req.Y
	n := len(x)
	if n < 5 {
		return Estimate{}, core.NewInsufficientDataError(n)
	}
	rx, ry := Rank(x), Rank(y)

	var d1, d2, d3 float64
	for i := 0; i < n; i++ {
		q := 1.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			switch {
			case x[j] < x[i] && y[j] < y[i]:
				q++
			case x[j] == x[i] && y[j] == y[i]:
				q += 0.25
			case x[j] == x[i] && y[j] < y[i], x[j] < x[i] && y[j] == y[i]:
				q += 0.5
			}
		}
		d1 += (q - 1) * (q - 2)
		d2 += (rx[i] - 1) * (rx[i] - 2) * (ry[i] - 1) * (ry[i] - 2)
		d3 += (rx[i] - 2) * (ry[i] - 2) * (q - 1)
	}
	fn := float64(n)
	d := 30 * ((fn-2)*(fn-3)*d1 + d2 - 2*(fn-2)*d3) /
		(fn * (fn - 1) * (fn - 2) * (fn - 3) * (fn - 4))

	res := inference.NA()
	res.StatisticName = "BKR"
	bkr := fn*d/30 + 1.0/36.0
	res.Statistic = bkr
	res.DF = bkrDF
	res.P = distuv.ChiSquared{K: bkrDF}.Survival(math.Max(0, bkr/bkrScale))
	return Estimate{Value: d, Result: res}, nil
}
