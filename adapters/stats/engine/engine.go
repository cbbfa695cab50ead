// Package engine runs correlation requests: it resolves a test per pair,
// residualizes when asked, fans pairs out to workers and assembles the
// table.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	"gocorr/internal"
	"gocorr/ports"
)

// Engine computes correlation tables
type Engine struct {
	runner   *Runner
	adjuster Adjuster
	logger   *internal.Logger
}

// New creates an engine
func New(rng ports.RNGPort, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{runner: NewRunner(rng, logger), logger: logger}
}

// plan is the validated, resolved form of a request
type plan struct {
	variables []string
	pairs     []correlation.VariablePair
	specs     []correlation.TestSpec
	groups    []Group
	random    []string
}

// Correlate computes every pair of eligible variables in every group.
// Configuration errors are returned before any computation starts;
// per-pair numeric failures become NA rows.
func (e *Engine) Correlate(ctx context.Context, ds *dataset.Dataset, opts correlation.Options) (*correlation.Table, error) {
	start := time.Now()
	p, err := e.plan(ds, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("correlate: %d variables, %d pairs, %d groups", len(p.variables), len(p.pairs), len(p.groups))

	asm := NewAssembler(Labels(p.groups), p.variables, p.pairs, p.specs)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for gi := range p.groups {
		for pi := range p.pairs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				asm.Put(gi, pi, e.pair(gctx, p, opts, gi, pi))
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := asm.Finalize(opts)
	if err != nil {
		return nil, err
	}
	table.Fingerprint = ds.Fingerprint()
	table.Constant = constants(p)
	e.logger.Info("correlate: %d rows, %d NA in %s", table.Len(), len(table.Failures()), time.Since(start).Round(time.Millisecond))
	return table, nil
}

// pair produces the row of one pair in one group
func (e *Engine) pair(ctx context.Context, p *plan, opts correlation.Options, gi, pi int) correlation.TestResult {
	group := p.groups[gi]
	pair := p.pairs[pi]
	spec := p.specs[pi]

	cx, _ := group.Data.Column(pair.X)
	cy, _ := group.Data.Column(pair.Y)
	in := PairData{
		Pair:  pair,
		Group: group.Label,
		X:     cx.Values(),
		Y:     cy.Values(),
		XType: cx.Type(),
		YType: cy.Type(),
	}

	if opts.Adjusted() {
		covs := e.adjuster.Covariates(opts, pair, p.variables)
		// both fits use the rows complete on X, Y and every adjustment input
		ax, err := e.adjuster.Residualize(group.Data, pair.X, covs, p.random, pair.Y)
		if err == nil {
			var ay Adjustment
			ay, err = e.adjuster.Residualize(group.Data, pair.Y, covs, p.random, pair.X)
			in.X, in.Y = ax.Residuals, ay.Residuals
			spec.Covariates = ax.Covariates
		}
		if err != nil {
			row := correlation.NewResult(pair, group.Label, spec)
			row.Fail(err)
			e.logger.Warn("pair %s [%s]: %v", pair, group.Label, err)
			return row
		}
		in.XType, in.YType = dataset.TypeNumeric, dataset.TypeNumeric
	}
	return e.runner.Run(ctx, in, spec)
}

// plan validates options against the dataset and resolves every pair
func (e *Engine) plan(ds *dataset.Dataset, opts correlation.Options) (*plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, name := range append(append(append([]string(nil), opts.GroupBy...), opts.RandomEffects...), opts.Covariates...) {
		if !ds.Has(name) {
			return nil, core.NewVariableNotFoundError(name)
		}
	}

	variables, err := eligible(ds, opts)
	if err != nil {
		return nil, err
	}
	if len(variables) < 2 {
		return nil, core.NewInvalidOptionError("select", fmt.Sprintf("need at least two eligible variables, have %d", len(variables)))
	}

	p := &plan{variables: variables, random: opts.RandomFactors()}
	for i := 0; i < len(variables); i++ {
		for j := i + 1; j < len(variables); j++ {
			pair := correlation.VariablePair{X: variables[i], Y: variables[j]}
			cx, _ := ds.Column(pair.X)
			cy, _ := ds.Column(pair.Y)
			spec, err := Resolve(opts, cx, cy)
			if err != nil {
				return nil, fmt.Errorf("pair %s: %w", pair, err)
			}
			p.pairs = append(p.pairs, pair)
			p.specs = append(p.specs, spec)
		}
	}

	p.groups, err = Stratify(ds, opts.PartitionKeys())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// eligible lists the analysed variables in column order: numeric columns
// always, factors only with IncludeFactors, never grouping columns
func eligible(ds *dataset.Dataset, opts correlation.Options) ([]string, error) {
	excluded := make(map[string]bool)
	for _, n := range opts.GroupBy {
		excluded[n] = true
	}
	for _, n := range opts.RandomEffects {
		excluded[n] = true
	}

	names := ds.Names()
	if len(opts.Select) > 0 {
		wanted := make(map[string]bool, len(opts.Select))
		for _, n := range opts.Select {
			c, err := ds.Column(n)
			if err != nil {
				return nil, err
			}
			if c.Type().IsFactor() && !opts.IncludeFactors {
				return nil, core.NewInvalidOptionError("select", fmt.Sprintf("%s is a %s column; set include_factors", n, c.Type()))
			}
			wanted[n] = true
		}
		names = names[:0:0]
		for _, n := range ds.Names() {
			if wanted[n] {
				names = append(names, n)
			}
		}
	}

	var out []string
	for _, n := range names {
		if excluded[n] {
			continue
		}
		c, _ := ds.Column(n)
		if c.Type().IsFactor() && !opts.IncludeFactors {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// constants lists the zero-variance variables of each group
func constants(p *plan) map[string][]string {
	out := make(map[string][]string)
	for _, g := range p.groups {
		for _, v := range p.variables {
			c, _ := g.Data.Column(v)
			if c.IsConstant() {
				out[g.Label] = append(out[g.Label], v)
			}
		}
	}
	return out
}
