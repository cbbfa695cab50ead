package correlation

import (
	"fmt"
	"math"
	"strings"

	"gocorr/domain/core"
)

// NA is the missing value used throughout results
var NA = math.NaN()

// IsNA reports a missing value
func IsNA(v float64) bool { return math.IsNaN(v) }

// TestSpec is the resolved configuration of one pairwise test
type TestSpec struct {
	Method        Method
	Alternative   Alternative
	CI            float64
	Bayesian      bool
	Prior         Prior
	Partial       bool
	Multilevel    bool
	RankTransform bool
	// Covariates is the number of variables partialled out, used for df
	Covariates int
	Tuning     Tuning
	Seed       uint64
}

// Label is the human-readable method description used in the Method column
func (s TestSpec) Label() string {
	label := s.Method.Info().Label
	if s.Bayesian {
		label = "Bayesian " + label
	}
	if s.Multilevel {
		label += " (multilevel)"
	}
	return label
}

// EstimateName is the column name of the point estimate
func (s TestSpec) EstimateName() string {
	if s.RankTransform && s.Method == MethodPearson {
		return "rho"
	}
	return s.Method.Info().EstimateName
}

// VariablePair is an unordered pair of column names, stored in column order
type VariablePair struct {
	X string
	Y string
}

func (p VariablePair) String() string { return p.X + " - " + p.Y }

// Key identifies the pair inside a group, used to seed RNG streams
func (p VariablePair) Key(group string) string {
	if group == "" {
		return p.X + "\x00" + p.Y
	}
	return group + "\x00" + p.X + "\x00" + p.Y
}

// TestResult is one row of output: a fixed superset schema where fields
// that do not apply to the method are NA.
type TestResult struct {
	Parameter1 string `json:"parameter1"`
	Parameter2 string `json:"parameter2"`
	Group      string `json:"group,omitempty"`

	Estimate     float64 `json:"estimate"`
	EstimateName string  `json:"estimate_name"`
	CI           float64 `json:"ci"`
	CILow        float64 `json:"ci_low"`
	CIHigh       float64 `json:"ci_high"`

	Statistic     float64 `json:"statistic"`
	StatisticName string  `json:"statistic_name,omitempty"`
	DF            float64 `json:"df_error"`
	P             float64 `json:"p"`
	NObs          int     `json:"n_obs"`
	Method        string  `json:"method"`

	// Bayesian summaries
	PD             float64 `json:"pd"`
	ROPEPercentage float64 `json:"rope_percentage"`
	BF10           float64 `json:"bf10"`
	PriorName      string  `json:"prior_distribution,omitempty"`
	PriorLocation  float64 `json:"prior_location"`
	PriorScale     float64 `json:"prior_scale"`

	// ErrorKind and Note describe why a row is NA
	ErrorKind core.ErrorKind `json:"error_kind,omitempty"`
	Note      string         `json:"note,omitempty"`
}

// NewResult returns a row with every numeric field NA
func NewResult(pair VariablePair, group string, spec TestSpec) TestResult {
	return TestResult{
		Parameter1:     pair.X,
		Parameter2:     pair.Y,
		Group:          group,
		Estimate:       NA,
		EstimateName:   spec.EstimateName(),
		CI:             spec.CI,
		CILow:          NA,
		CIHigh:         NA,
		Statistic:      NA,
		DF:             NA,
		P:              NA,
		Method:         spec.Label(),
		PD:             NA,
		ROPEPercentage: NA,
		BF10:           NA,
		PriorLocation:  NA,
		PriorScale:     NA,
	}
}

// Fail marks the row NA with a diagnostic taken from err
func (r *TestResult) Fail(err error) {
	r.Estimate, r.CILow, r.CIHigh = NA, NA, NA
	r.Statistic, r.DF, r.P = NA, NA, NA
	r.PD, r.ROPEPercentage, r.BF10 = NA, NA, NA
	r.ErrorKind = core.KindOf(err)
	r.Note = err.Error()
}

// Failed reports whether the row carries an error
func (r TestResult) Failed() bool { return r.ErrorKind != core.KindNone }

// Pair returns the variable pair of the row
func (r TestResult) Pair() VariablePair { return VariablePair{X: r.Parameter1, Y: r.Parameter2} }

// Table is the assembled output: rows ordered group-outer, pair-inner
type Table struct {
	RunID       core.RunID
	Rows        []TestResult
	Options     Options
	Groups      []string
	Variables   []string
	Fingerprint core.Hash
	// Constant lists zero-variance variables per group; their diagonal is NA
	Constant map[string][]string
	// PartialConverted is set when multilevel partial estimates were
	// converted back to zero-order correlations
	PartialConverted bool
	// ZeroOrder holds, per group, the zero-order matrix implied by multilevel
	// partial estimates, indexed like Variables. Set only for partial output
	// conditioned on every other variable.
	ZeroOrder map[string][][]float64
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.Rows) }

// GroupRows returns the rows of one group, in table order
func (t *Table) GroupRows(group string) []TestResult {
	var out []TestResult
	for _, r := range t.Rows {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the row for a pair in a group, in either orientation
func (t *Table) Find(group, a, b string) (TestResult, bool) {
	for _, r := range t.Rows {
		if r.Group != group {
			continue
		}
		if (r.Parameter1 == a && r.Parameter2 == b) || (r.Parameter1 == b && r.Parameter2 == a) {
			return r, true
		}
	}
	return TestResult{}, false
}

// Failures returns the NA rows
func (t *Table) Failures() []TestResult {
	var out []TestResult
	for _, r := range t.Rows {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// MatrixValue selects the field pivoted into a matrix
type MatrixValue string

const (
	ValueEstimate  MatrixValue = "estimate"
	ValueP         MatrixValue = "p"
	ValueStatistic MatrixValue = "statistic"
	ValueCILow     MatrixValue = "ci_low"
	ValueCIHigh    MatrixValue = "ci_high"
	ValueN         MatrixValue = "n_obs"
	// ValueZeroOrder pivots Table.ZeroOrder instead of the row estimates
	ValueZeroOrder MatrixValue = "zero_order"
)

// ParseMatrixValue accepts a field name; "r" and "n" are shorthands
func ParseMatrixValue(s string) (MatrixValue, error) {
	switch v := MatrixValue(strings.ToLower(strings.TrimSpace(s))); v {
	case "", "r", ValueEstimate:
		return ValueEstimate, nil
	case "n", ValueN:
		return ValueN, nil
	case "full", ValueZeroOrder:
		return ValueZeroOrder, nil
	case ValueP, ValueStatistic, ValueCILow, ValueCIHigh:
		return v, nil
	}
	return "", core.NewInvalidOptionError("matrix value", fmt.Sprintf("unknown field %q", s))
}

func (v MatrixValue) of(r TestResult) float64 {
	switch v {
	case ValueP:
		return r.P
	case ValueStatistic:
		return r.Statistic
	case ValueCILow:
		return r.CILow
	case ValueCIHigh:
		return r.CIHigh
	case ValueN:
		return float64(r.NObs)
	default:
		return r.Estimate
	}
}

func (v MatrixValue) diagonal(constant bool) float64 {
	switch v {
	case ValueEstimate, ValueCILow, ValueCIHigh, ValueZeroOrder:
		if constant {
			return NA
		}
		return 1
	case ValueP:
		if constant {
			return NA
		}
		return 0
	default:
		return NA
	}
}

// Matrix is a pivoted view of one group. A redundant matrix is square with
// both triangles and the diagonal; otherwise RowNames drops the last
// variable, ColNames drops the first, and only the upper triangle is filled.
type Matrix struct {
	Group     string
	Value     MatrixValue
	Redundant bool
	RowNames  []string
	ColNames  []string
	Values    [][]float64
}

// At returns the cell by index
func (m *Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Get returns the cell by variable names
func (m *Matrix) Get(row, col string) (float64, bool) {
	i, j := indexOf(m.RowNames, row), indexOf(m.ColNames, col)
	if i < 0 || j < 0 {
		return NA, false
	}
	return m.Values[i][j], true
}

func indexOf(names []string, s string) int {
	for i, n := range names {
		if n == s {
			return i
		}
	}
	return -1
}

// Pivot builds the matrix view of a group from the table rows. The
// zero_order value reads Table.ZeroOrder and fails when it was not computed.
func (t *Table) Pivot(group string, value MatrixValue, redundant bool) (*Matrix, error) {
	if !containsString(t.Groups, group) {
		return nil, fmt.Errorf("%w: group %q", core.ErrVariableNotFound, group)
	}
	if value == "" {
		value = ValueEstimate
	}
	names := t.Variables
	n := len(names)
	full := make([][]float64, n)
	for i := range full {
		full[i] = make([]float64, n)
		for j := range full[i] {
			full[i][j] = NA
		}
	}
	constant := make(map[string]bool)
	for _, c := range t.Constant[group] {
		constant[c] = true
	}
	for i, name := range names {
		full[i][i] = value.diagonal(constant[name])
	}
	if value == ValueZeroOrder {
		src, ok := t.ZeroOrder[group]
		if !ok || len(src) != n {
			return nil, core.NewUnsupportedError("zero-order matrix of group %q: only available for multilevel partial output without a covariate subset", group)
		}
		for i := range names {
			for j := range names {
				if i != j {
					full[i][j] = src[i][j]
				}
			}
		}
	} else {
		for _, r := range t.Rows {
			if r.Group != group {
				continue
			}
			i, j := indexOf(names, r.Parameter1), indexOf(names, r.Parameter2)
			if i < 0 || j < 0 {
				continue
			}
			v := value.of(r)
			full[i][j] = v
			full[j][i] = v
		}
	}

	m := &Matrix{Group: group, Value: value, Redundant: redundant}
	if redundant {
		m.RowNames = append([]string(nil), names...)
		m.ColNames = append([]string(nil), names...)
		m.Values = full
		return m, nil
	}
	if n < 2 {
		return m, nil
	}
	m.RowNames = append([]string(nil), names[:n-1]...)
	m.ColNames = append([]string(nil), names[1:]...)
	m.Values = make([][]float64, n-1)
	for i := 0; i < n-1; i++ {
		m.Values[i] = make([]float64, n-1)
		for j := 0; j < n-1; j++ {
			if i <= j {
				m.Values[i][j] = full[i][j+1]
			} else {
				m.Values[i][j] = NA
			}
		}
	}
	return m, nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
