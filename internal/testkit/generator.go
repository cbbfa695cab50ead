// Package testkit generates datasets with known correlation structure for
// tests and the CLI demo command.
package testkit

import (
	"fmt"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"gocorr/domain/dataset"
)

// GeneratorConfig configures the correlated data generator
type GeneratorConfig struct {
	// Rows per group
	Rows int `json:"rows"`
	// Names of the generated numeric columns
	Names []string `json:"names"`
	// Target is the exact sample correlation matrix of every group
	Target [][]float64 `json:"target"`
	// Groups is the number of groups; 0 or 1 means ungrouped
	Groups int `json:"groups"`
	// GroupColumn names the factor column holding the group label
	GroupColumn string `json:"group_column"`
	// GroupShift is the standard deviation of per-group mean shifts
	GroupShift float64 `json:"group_shift"`
	Seed       int64   `json:"seed"`
}

// DefaultGeneratorConfig returns the three-variable reference scenario:
// 500 rows, R = [[1,.3,.6],[.3,1,0],[.6,0,1]]
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:  500,
		Names: []string{"V1", "V2", "V3"},
		Target: [][]float64{
			{1, 0.3, 0.6},
			{0.3, 1, 0},
			{0.6, 0, 1},
		},
		GroupColumn: "Group",
		Seed:        42,
	}
}

// Generator produces datasets whose sample correlation equals a target
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a new generator
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

// Dataset generates the configured dataset. Each group is simulated
// separately, so the within-group sample correlation matrix is exactly
// Target; group means are then shifted by GroupShift noise.
func (g *Generator) Dataset() (*dataset.Dataset, error) {
	p := len(g.config.Names)
	if len(g.config.Target) != p {
		return nil, fmt.Errorf("target is %dx%d, want %d variables", len(g.config.Target), len(g.config.Target), p)
	}
	groups := g.config.Groups
	if groups < 1 {
		groups = 1
	}

	cols := make([][]float64, p)
	var labels []string
	for k := 0; k < groups; k++ {
		block, err := Exact(g.config.Rows, g.config.Target, g.rng)
		if err != nil {
			return nil, err
		}
		for j := range cols {
			shift := g.rng.NormFloat64() * g.config.GroupShift
			for _, v := range block[j] {
				cols[j] = append(cols[j], v+shift)
			}
		}
		for i := 0; i < g.config.Rows; i++ {
			labels = append(labels, "g"+strconv.Itoa(k+1))
		}
	}

	columns := make([]*dataset.Column, 0, p+1)
	for j, name := range g.config.Names {
		columns = append(columns, dataset.NewNumeric(name, cols[j]))
	}
	if groups > 1 {
		gc, err := dataset.NewFactor(g.config.GroupColumn, dataset.TypeCategorical, labels)
		if err != nil {
			return nil, err
		}
		columns = append(columns, gc)
	}
	return dataset.New(columns...)
}

// Exact returns n draws (as columns) whose sample correlation matrix is
// exactly r: standard normal noise is centered, whitened against its own
// sample covariance and coloured with the Cholesky factor of r.
func Exact(n int, r [][]float64, rng *rand.Rand) ([][]float64, error) {
	p := len(r)
	if n <= p {
		return nil, fmt.Errorf("need more than %d rows, have %d", p, n)
	}
	z := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		var mean float64
		col := make([]float64, n)
		for i := range col {
			col[i] = rng.NormFloat64()
			mean += col[i]
		}
		mean /= float64(n)
		for i := range col {
			z.Set(i, j, col[i]-mean)
		}
	}

	var s mat.SymDense
	s.SymOuterK(1/float64(n-1), z.T())
	var sc mat.Cholesky
	if !sc.Factorize(&s) {
		return nil, fmt.Errorf("noise covariance is singular")
	}
	var l, linv mat.TriDense
	sc.LTo(&l)
	if err := linv.InverseTri(&l); err != nil {
		return nil, err
	}

	target := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			target.SetSym(i, j, r[i][j])
		}
	}
	var tc mat.Cholesky
	if !tc.Factorize(target) {
		return nil, fmt.Errorf("target correlation matrix is not positive definite")
	}
	var a mat.TriDense
	tc.LTo(&a)

	// x = z L^-T A^T
	var w, x mat.Dense
	w.Mul(z, linv.T())
	x.Mul(&w, a.T())

	out := make([][]float64, p)
	for j := range out {
		out[j] = mat.Col(nil, j, &x)
	}
	return out, nil
}
