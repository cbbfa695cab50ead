package engine

import (
	"context"
	"fmt"
	"math"

	"gocorr/adapters/stats/bayes"
	"gocorr/adapters/stats/estimators"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	"gocorr/internal"
	"gocorr/ports"
)

// PairData is the input of one pairwise test
type PairData struct {
	Pair  correlation.VariablePair
	Group string
	X     []float64
	Y     []float64
	XType dataset.ColumnType
	YType dataset.ColumnType
}

// Runner computes one TestResult per pair. Numeric failures never escape
// as errors; they become NA rows carrying the error kind.
type Runner struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewRunner creates a runner drawing stochastic streams from rng
func NewRunner(rng ports.RNGPort, logger *internal.Logger) *Runner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{rng: rng, logger: logger}
}

// Run tests one pair under a resolved spec
func (r *Runner) Run(ctx context.Context, in PairData, spec correlation.TestSpec) correlation.TestResult {
	res := correlation.NewResult(in.Pair, in.Group, spec)
	if in.Pair.X == in.Pair.Y {
		return Diagonal(in.Pair.X, in.Group, in.X, spec)
	}

	x, y := CompleteCases(in.X, in.Y)
	res.NObs = len(x)
	if err := r.run(ctx, &res, in, x, y, spec); err != nil {
		res.Fail(err)
		r.logger.Warn("pair %s [%s]: %v", in.Pair, in.Group, err)
	}
	return res
}

func (r *Runner) run(ctx context.Context, res *correlation.TestResult, in PairData, x, y []float64, spec correlation.TestSpec) error {
	if len(x) < 3 {
		return core.NewInsufficientDataError(len(x))
	}
	if constant(x) {
		return core.NewDegenerateError(in.Pair.X)
	}
	if constant(y) {
		return core.NewDegenerateError(in.Pair.Y)
	}
	if spec.RankTransform {
		x, y = estimators.Rank(x), estimators.Rank(y)
	}

	est, err := estimators.For(spec.Method)
	if err != nil {
		return err
	}
	stream, err := r.rng.Stream(ctx, in.Pair.Key(in.Group), spec.Seed)
	if err != nil {
		return err
	}
	req := estimators.Request{X: x, Y: y, XType: in.XType, YType: in.YType, Spec: spec, RNG: stream}

	if spec.Bayesian {
		return r.bayesian(res, est, req)
	}

	out, err := est.Run(req)
	if err != nil {
		return err
	}
	res.Estimate = out.Value
	res.CILow, res.CIHigh = out.CILow, out.CIHigh
	res.Statistic, res.StatisticName = out.Statistic, out.StatisticName
	res.DF, res.P = out.DF, out.P
	res.NObs = out.NObs
	return nil
}

// bayesian replaces the frequentist computation with a posterior over the
// method's transformed data
func (r *Runner) bayesian(res *correlation.TestResult, est estimators.Estimator, req estimators.Request) error {
	x, y, err := est.Prepare(req)
	if err != nil {
		return err
	}
	post, err := bayes.Correlation(x, y, req.Spec.Prior, req.Spec.CI, req.RNG)
	if err != nil {
		return err
	}
	res.Estimate = post.Median
	res.CILow, res.CIHigh = post.CILow, post.CIHigh
	res.PD = post.PD
	res.ROPEPercentage = post.ROPEPercentage
	res.BF10 = post.BF10
	res.PriorName = "beta"
	res.PriorLocation = post.Shape
	res.PriorScale = post.Shape
	res.NObs = len(x)
	return nil
}

// Diagonal is the result of a variable with itself: 1, or NA when the
// variable is constant
func Diagonal(name, group string, values []float64, spec correlation.TestSpec) correlation.TestResult {
	res := correlation.NewResult(correlation.VariablePair{X: name, Y: name}, group, spec)
	var present []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	res.NObs = len(present)
	if constant(present) {
		res.Note = fmt.Sprintf("%s is constant", name)
		return res
	}
	res.Estimate, res.CILow, res.CIHigh = 1, 1, 1
	res.P = 0
	return res
}

// CompleteCases drops rows where either value is missing
func CompleteCases(x, y []float64) ([]float64, []float64) {
	cx := make([]float64, 0, len(x))
	cy := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		cx = append(cx, x[i])
		cy = append(cy, y[i])
	}
	return cx, cy
}

// constant reports fewer than two distinct values, up to rounding noise
// left behind by residualization
func constant(x []float64) bool {
	if len(x) == 0 {
		return true
	}
	lo, hi := x[0], x[0]
	for _, v := range x {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	scale := math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
	return hi-lo <= 1e-12*scale
}
