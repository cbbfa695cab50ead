package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gocorr/adapters/stats/cormat"
	"gocorr/adapters/stats/inference"
	"gocorr/domain/correlation"
)

// Assembler owns the result rows of one request. Producers write their
// own (group, pair) slot, so concurrent Put calls never touch the same
// memory and the final order does not depend on scheduling.
type Assembler struct {
	groups    []string
	variables []string
	pairs     []correlation.VariablePair
	specs     []correlation.TestSpec
	slots     []correlation.TestResult
	filled    []bool
}

// NewAssembler allocates one slot per (group, pair)
func NewAssembler(groups, variables []string, pairs []correlation.VariablePair, specs []correlation.TestSpec) *Assembler {
	n := len(groups) * len(pairs)
	return &Assembler{
		groups:    groups,
		variables: variables,
		pairs:     pairs,
		specs:     specs,
		slots:     make([]correlation.TestResult, n),
		filled:    make([]bool, n),
	}
}

// Put stores the row of pair p in group g
func (a *Assembler) Put(g, p int, row correlation.TestResult) {
	i := g*len(a.pairs) + p
	a.slots[i] = row
	a.filled[i] = true
}

// Complete reports whether every slot has been written
func (a *Assembler) Complete() bool {
	for _, f := range a.filled {
		if !f {
			return false
		}
	}
	return true
}

// Finalize orders the rows group-outer, pair-inner, converts multilevel
// partial estimates back to zero-order correlations when requested and
// applies the p-value adjustment within each group. Multilevel partial
// output keeps its rows and records the implied zero-order matrices.
func (a *Assembler) Finalize(opts correlation.Options) (*correlation.Table, error) {
	if !a.Complete() {
		return nil, fmt.Errorf("assembler: %d of %d rows missing", a.missing(), len(a.slots))
	}
	table := &correlation.Table{
		Rows:      append([]correlation.TestResult(nil), a.slots...),
		Options:   opts,
		Groups:    a.groups,
		Variables: a.variables,
	}

	for g, label := range a.groups {
		rows := table.Rows[g*len(a.pairs) : (g+1)*len(a.pairs)]
		if opts.Multilevel && opts.Partial && len(opts.Covariates) == 0 {
			// rows stay partial; the implied zero-order matrix is kept for pivoting
			if full, err := a.impliedFull(rows); err == nil {
				if table.ZeroOrder == nil {
					table.ZeroOrder = make(map[string][][]float64)
				}
				table.ZeroOrder[label] = cormat.ToRows(full)
			}
		}
		if opts.Multilevel && !opts.Partial {
			if err := a.toZeroOrder(rows); err == nil {
				table.PartialConverted = true
			} else {
				for i := range rows {
					if !rows[i].Failed() {
						rows[i].Note = "partial estimate kept: " + err.Error()
					}
				}
			}
		}
		adjustGroup(rows, opts.PAdjust)
	}
	return table, nil
}

func (a *Assembler) missing() int {
	n := 0
	for _, f := range a.filled {
		if !f {
			n++
		}
	}
	return n
}

// impliedFull converts the partial estimates of one group into the
// zero-order correlation matrix they imply, indexed like variables
func (a *Assembler) impliedFull(rows []correlation.TestResult) (*mat.SymDense, error) {
	index := a.index()
	n := len(a.variables)
	partial := make([][]float64, n)
	for i := range partial {
		partial[i] = make([]float64, n)
		partial[i][i] = 1
	}
	for _, r := range rows {
		i, j := index[r.Parameter1], index[r.Parameter2]
		partial[i][j], partial[j][i] = r.Estimate, r.Estimate
	}
	return cormat.PartialToFull(cormat.FromRows(partial))
}

func (a *Assembler) index() map[string]int {
	index := make(map[string]int, len(a.variables))
	for i, v := range a.variables {
		index[v] = i
	}
	return index
}

// toZeroOrder replaces the partial estimates of one group by the
// zero-order correlations implied by the full partial matrix and
// recomputes inference without covariates
func (a *Assembler) toZeroOrder(rows []correlation.TestResult) error {
	full, err := a.impliedFull(rows)
	if err != nil {
		return err
	}
	index := a.index()
	for k := range rows {
		r := &rows[k]
		if r.Failed() {
			continue
		}
		spec := a.specs[k]
		est := full.At(index[r.Parameter1], index[r.Parameter2])
		res := inference.Recompute(spec.Method, est, r.NObs, 0, spec.CI, spec.Alternative)
		r.Estimate = est
		r.CILow, r.CIHigh = res.CILow, res.CIHigh
		r.Statistic, r.StatisticName = res.Statistic, res.StatisticName
		r.DF, r.P = res.DF, res.P
	}
	return nil
}

// adjustGroup applies the p-value correction to the rows of one group
func adjustGroup(rows []correlation.TestResult, method correlation.PAdjust) {
	if method == correlation.AdjustNone || len(rows) == 0 {
		return
	}
	p := make([]float64, len(rows))
	for i, r := range rows {
		p[i] = r.P
	}
	adj := inference.Adjust(p, method)
	for i := range rows {
		if !math.IsNaN(adj[i]) {
			rows[i].P = adj[i]
		}
	}
}
