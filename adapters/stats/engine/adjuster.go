package engine

import (
	"fmt"
	"math"

	"gocorr/adapters/stats/regression"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
)

// Adjustment is the residualized target plus the number of fixed-effect
// predictors it was adjusted for
type Adjustment struct {
	Residuals  []float64
	Covariates int
	Model      string
}

// Adjuster removes covariate effects from a target column
type Adjuster struct{}

// Covariates returns the fixed-effect covariates of a pair: the requested
// list when given, else every other analysed variable. The pair itself
// and any random-effect factor are never covariates.
func (Adjuster) Covariates(opts correlation.Options, pair correlation.VariablePair, variables []string) []string {
	source := variables
	if len(opts.Covariates) > 0 {
		source = opts.Covariates
	}
	skip := map[string]bool{pair.X: true, pair.Y: true}
	for _, r := range opts.RandomFactors() {
		skip[r] = true
	}
	var out []string
	for _, v := range source {
		if !skip[v] {
			out = append(out, v)
		}
	}
	return out
}

// Residualize regresses target on an intercept plus covariates, by OLS or,
// when random effects are given, by a random-intercept mixed model whose
// conditional residuals are returned. Rows missing any input, or any of
// the columns named in also, are NaN in the output and left out of the fit.
func (Adjuster) Residualize(ds *dataset.Dataset, target string, covariates, randomEffects []string, also ...string) (Adjustment, error) {
	col, err := ds.Column(target)
	if err != nil {
		return Adjustment{}, err
	}
	inputs := []*dataset.Column{col}
	for _, name := range append(append([]string(nil), covariates...), randomEffects...) {
		c, err := ds.Column(name)
		if err != nil {
			return Adjustment{}, err
		}
		inputs = append(inputs, c)
	}
	required := append([]*dataset.Column(nil), inputs...)
	for _, name := range also {
		c, err := ds.Column(name)
		if err != nil {
			return Adjustment{}, err
		}
		required = append(required, c)
	}

	rows := completeRows(ds.Rows(), required)
	pick := func(c *dataset.Column) []float64 {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = c.At(r)
		}
		return out
	}

	y := pick(col)
	var predictors [][]float64
	for _, c := range inputs[1 : 1+len(covariates)] {
		if c.Type() == dataset.TypeCategorical {
			predictors = append(predictors, regression.DummyCode(pick(c))...)
			continue
		}
		predictors = append(predictors, pick(c))
	}

	if len(rows) <= len(predictors)+1 {
		return Adjustment{}, fmt.Errorf("adjusting %s: %w", target, core.NewInsufficientDataError(len(rows)))
	}

	adj := Adjustment{Covariates: len(predictors), Model: "ols"}
	var fitted []float64
	if len(randomEffects) == 0 {
		fitted, err = regression.Residualize(y, predictors...)
		if err != nil {
			return Adjustment{}, fmt.Errorf("adjusting %s: %w", target, err)
		}
	} else {
		groups := make([]regression.Grouping, len(randomEffects))
		for i, c := range inputs[1+len(covariates):] {
			groups[i] = regression.NewGrouping(c.Name(), pick(c))
		}
		fit, err := regression.FitRandomIntercept(y, regression.Design(len(y), predictors...), groups)
		if err != nil {
			return Adjustment{}, fmt.Errorf("adjusting %s: %w", target, err)
		}
		fitted = fit.Residuals
		adj.Model = "random intercept"
	}

	adj.Residuals = make([]float64, ds.Rows())
	for i := range adj.Residuals {
		adj.Residuals[i] = math.NaN()
	}
	for i, r := range rows {
		adj.Residuals[r] = fitted[i]
	}
	return adj, nil
}

// completeRows lists the rows where every column is present
func completeRows(n int, cols []*dataset.Column) []int {
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ok := true
		for _, c := range cols {
			if math.IsNaN(c.At(i)) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}
