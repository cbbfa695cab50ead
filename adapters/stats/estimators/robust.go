package estimators

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	gstat "gonum.org/v1/gonum/stat"

	"gocorr/adapters/stats/inference"
	"gocorr/domain/core"
)

// shepherdCutoff is the squared Mahalanobis distance above which a point
// is treated as a bivariate outlier
const shepherdCutoff = 6.0

func median(x []float64) (float64, error) {
	m, err := stats.Median(x)
	if err != nil {
		return math.NaN(), core.NewInsufficientDataError(len(x))
	}
	return m, nil
}

// biweightEstimate is the biweight midcorrelation: observations are
// weighted by (1-u^2)^2 with u = (x - median) / (9 MAD).
func biweightEstimate(req Request) (Estimate, error) {
	a, err := biweightScores(req.X)
	if err != nil {
		return Estimate{}, core.NewDegenerateError("x (zero MAD)")
	}
	b, err := biweightScores(req.Y)
	if err != nil {
		return Estimate{}, core.NewDegenerateError("y (zero MAD)")
	}
	var ab, aa, bb float64
	for i := range a {
		ab += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	if aa == 0 || bb == 0 {
		return Estimate{}, core.NewDegenerateError("x, y (no weighted spread)")
	}
	return pearsonFamily(clamp(ab/math.Sqrt(aa*bb)), req), nil
}

func biweightScores(x []float64) ([]float64, error) {
	med, err := stats.Median(x)
	if err != nil {
		return nil, err
	}
	mad, err := stats.MedianAbsoluteDeviation(x)
	if err != nil {
		return nil, err
	}
	if mad == 0 {
		return nil, core.ErrDegenerateVariance
	}
	out := make([]float64, len(x))
	for i, v := range x {
		u := (v - med) / (9 * mad)
		if math.Abs(u) >= 1 {
			continue
		}
		w := (1 - u*u) * (1 - u*u)
		out[i] = (v - med) * w
	}
	return out, nil
}

// percentageBendEstimate follows Wilcox: each variable is bent at the
// (1-beta) quantile of its absolute deviations from the median.
func percentageBendEstimate(req Request) (Estimate, error) {
	beta := req.Spec.Tuning.Beta
	a, err := bendScores(req.X, beta)
	if err != nil {
		return Estimate{}, core.NewDegenerateError("x (zero bend scale)")
	}
	b, err := bendScores(req.Y, beta)
	if err != nil {
		return Estimate{}, core.NewDegenerateError("y (zero bend scale)")
	}
	var ab, aa, bb float64
	for i := range a {
		ab += a[i] * b[i]
		aa += a[i] * a[i]
		bb += b[i] * b[i]
	}
	if aa == 0 || bb == 0 {
		return Estimate{}, core.NewDegenerateError("x, y (no bent spread)")
	}
	return pearsonFamily(clamp(ab/math.Sqrt(aa*bb)), req), nil
}

func bendScores(x []float64, beta float64) ([]float64, error) {
	n := len(x)
	med, err := stats.Median(x)
	if err != nil {
		return nil, err
	}
	dev := make([]float64, n)
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	m := int(math.Floor((1 - beta) * float64(n)))
	if m < 1 {
		m = 1
	}
	omega := dev[m-1]
	if omega == 0 {
		return nil, core.ErrDegenerateVariance
	}

	var below, above, inner float64
	for _, v := range x {
		psi := (v - med) / omega
		switch {
		case psi < -1:
			below++
		case psi > 1:
			above++
		default:
			inner += v
		}
	}
	if float64(n)-below-above == 0 {
		return nil, core.ErrDegenerateVariance
	}
	phi := (omega*(above-below) + inner) / (float64(n) - below - above)

	out := make([]float64, n)
	for i, v := range x {
		out[i] = math.Max(-1, math.Min(1, (v-phi)/omega))
	}
	return out, nil
}

// winsorizedEstimate expects winsorized data. Degrees of freedom shrink by
// the 2g clipped observations.
func winsorizedEstimate(req Request) (Estimate, error) {
	r, err := pearson(req.X, req.Y)
	if err != nil {
		return Estimate{}, err
	}
	s := req.Spec
	n := req.N()
	g := int(math.Floor(s.Tuning.Trim * float64(n)))
	res := inference.NA()
	res.StatisticName = "t"
	if df := float64(n - 2*g - 2 - s.Covariates); df > 0 {
		res.DF = df
		res.Statistic = inference.TStatistic(r, df)
		res.P = inference.PFromT(res.Statistic, df, s.Alternative)
	}
	res.CILow, res.CIHigh = inference.FisherCI(r, n-s.Covariates, s.CI, inference.SEPearson)
	return Estimate{Value: r, Result: res}, nil
}

// shepherdTransform drops bivariate outliers flagged by the bootstrapped
// Mahalanobis distance, then ranks what is left.
func shepherdTransform(req Request) ([]float64, []float64, error) {
	n := req.N()
	data := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		data.Set(i, 0, req.X[i])
		data.Set(i, 1, req.Y[i])
	}

	boots := req.Spec.Tuning.Bootstraps
	dist := make([][]float64, n)
	sample := mat.NewDense(n, 2, nil)
	for b := 0; b < boots; b++ {
		for i := 0; i < n; i++ {
			j := i
			if req.RNG != nil {
				j = req.RNG.Intn(n)
			}
			sample.SetRow(i, data.RawRowView(j))
		}
		d, ok := mahalanobis(data, sample)
		if !ok {
			continue
		}
		for i := range d {
			dist[i] = append(dist[i], d[i])
		}
	}
	if len(dist[0]) == 0 {
		d, ok := mahalanobis(data, data)
		if !ok {
			return nil, nil, core.NewDegenerateError("x, y (singular covariance)")
		}
		for i := range d {
			dist[i] = append(dist[i], d[i])
		}
	}

	var x, y []float64
	for i := 0; i < n; i++ {
		d, _ := stats.Median(dist[i])
		if d < shepherdCutoff {
			x = append(x, req.X[i])
			y = append(y, req.Y[i])
		}
	}
	if len(x) < 3 {
		return x, y, core.NewInsufficientDataError(len(x))
	}
	return Rank(x), Rank(y), nil
}

// mahalanobis returns the squared distance of every row of data from the
// mean of ref, under the covariance of ref
func mahalanobis(data, ref *mat.Dense) ([]float64, bool) {
	var cov mat.SymDense
	gstat.CovarianceMatrix(&cov, ref, nil)
	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return nil, false
	}
	center := mat.NewVecDense(2, []float64{
		gstat.Mean(mat.Col(nil, 0, ref), nil),
		gstat.Mean(mat.Col(nil, 1, ref), nil),
	})
	n, _ := data.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		d := gstat.Mahalanobis(data.RowView(i), center, &chol)
		if math.IsNaN(d) {
			return nil, false
		}
		out[i] = d * d
	}
	return out, true
}
