package correlation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/core"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"pearson", MethodPearson},
		{" Spearman ", MethodSpearman},
		{"percentage-bend", MethodPercentageBend},
		{"percentage", MethodPercentageBend},
		{"Point Biserial", MethodPointBiserial},
		{"shepherd_pi", MethodShepherd},
		{"dcor", MethodDistance},
		{"auto", MethodAuto},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMethod("magic")
	assert.True(t, errors.Is(err, core.ErrInvalidOption))
}

func TestMethods_ExcludesAuto(t *testing.T) {
	ms := Methods()
	assert.Len(t, ms, int(methodCount)-1)
	assert.NotContains(t, ms, MethodAuto)
	for _, m := range ms {
		assert.True(t, m.Valid())
		assert.NotEmpty(t, m.Info().Label)
	}
	assert.False(t, Method(99).Valid())
	assert.Equal(t, "method(99)", Method(99).String())
}

func TestMethod_TextRoundTrip(t *testing.T) {
	b, err := MethodKendall.MarshalText()
	require.NoError(t, err)
	var m Method
	require.NoError(t, m.UnmarshalText(b))
	assert.Equal(t, MethodKendall, m)
	assert.Error(t, m.UnmarshalText([]byte("nope")))
}

func TestParseOptions(t *testing.T) {
	p, err := ParsePAdjust("fdr")
	require.NoError(t, err)
	assert.Equal(t, AdjustBH, p)
	p, err = ParsePAdjust("")
	require.NoError(t, err)
	assert.Equal(t, AdjustNone, p)
	_, err = ParsePAdjust("tukey")
	assert.Error(t, err)

	a, err := ParseAlternative("two.sided")
	require.NoError(t, err)
	assert.Equal(t, TwoSided, a)
	a, err = ParseAlternative("Less")
	require.NoError(t, err)
	assert.Equal(t, Less, a)
	_, err = ParseAlternative("sideways")
	assert.Error(t, err)

	pr, err := ParsePrior("wide")
	require.NoError(t, err)
	assert.Equal(t, PriorWide, pr)
	pr, err = ParsePrior("0.5")
	require.NoError(t, err)
	assert.Equal(t, Prior{Name: "custom", Scale: 0.5}, pr)
	_, err = ParsePrior("-1")
	assert.True(t, errors.Is(err, core.ErrInvalidOption))

	v, err := ParseMatrixValue("r")
	require.NoError(t, err)
	assert.Equal(t, ValueEstimate, v)
	v, err = ParseMatrixValue("N")
	require.NoError(t, err)
	assert.Equal(t, ValueN, v)
	v, err = ParseMatrixValue("full")
	require.NoError(t, err)
	assert.Equal(t, ValueZeroOrder, v)
	_, err = ParseMatrixValue("bf10")
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		mutate func(o *Options)
		want   error
	}{
		{"ci out of range", func(o *Options) { o.CI = 1 }, core.ErrInvalidOption},
		{"trim too large", func(o *Options) { o.Tuning.Trim = 0.5 }, core.ErrInvalidOption},
		{"no bootstraps", func(o *Options) { o.Tuning.Bootstraps = 0 }, core.ErrInvalidOption},
		{"negative workers", func(o *Options) { o.Workers = -1 }, core.ErrInvalidOption},
		{"bayesian kendall", func(o *Options) { o.Bayesian, o.Method = true, MethodKendall }, core.ErrUnsupportedCombination},
		{"ranked polychoric", func(o *Options) { o.RankTransform, o.Method = true, MethodPolychoric }, core.ErrUnsupportedCombination},
		{"random effects without multilevel", func(o *Options) { o.RandomEffects = []string{"site"} }, core.ErrUnsupportedCombination},
		{"multilevel with both groupings", func(o *Options) {
			o.Multilevel = true
			o.RandomEffects = []string{"site"}
			o.GroupBy = []string{"wave"}
		}, core.ErrUnsupportedCombination},
		{"partial tetrachoric", func(o *Options) { o.Partial, o.Method = true, MethodTetrachoric }, core.ErrUnsupportedCombination},
		{"multilevel zero-order with covariates", func(o *Options) {
			o.Multilevel = true
			o.Covariates = []string{"c"}
		}, core.ErrUnsupportedCombination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "%v", err)
		})
	}
}

func TestOptions_Grouping(t *testing.T) {
	o := DefaultOptions()
	o.GroupBy = []string{"site"}
	assert.Equal(t, []string{"site"}, o.PartitionKeys())
	assert.Nil(t, o.RandomFactors())
	assert.False(t, o.Adjusted())

	o.Multilevel = true
	assert.Nil(t, o.PartitionKeys())
	assert.Equal(t, []string{"site"}, o.RandomFactors())
	assert.True(t, o.Adjusted())
}

func TestTestSpec_Labels(t *testing.T) {
	s := TestSpec{Method: MethodPearson, Bayesian: true, Multilevel: true}
	assert.Equal(t, "Bayesian Pearson correlation (multilevel)", s.Label())
	assert.Equal(t, "r", s.EstimateName())

	s = TestSpec{Method: MethodPearson, RankTransform: true}
	assert.Equal(t, "rho", s.EstimateName())
}

func TestResult_Fail(t *testing.T) {
	spec := TestSpec{Method: MethodPearson, CI: 0.95}
	r := NewResult(VariablePair{X: "a", Y: "b"}, "", spec)
	r.Estimate, r.P = 0.4, 0.01
	r.Fail(core.NewDegenerateError("a"))

	assert.True(t, r.Failed())
	assert.True(t, IsNA(r.Estimate))
	assert.True(t, IsNA(r.P))
	assert.Equal(t, core.KindOf(core.ErrDegenerateVariance), r.ErrorKind)
	assert.Contains(t, r.Note, "zero variance")
	assert.Equal(t, "a - b", r.Pair().String())
}

func table() *Table {
	spec := TestSpec{Method: MethodPearson, CI: 0.95}
	row := func(x, y string, est, p float64) TestResult {
		r := NewResult(VariablePair{X: x, Y: y}, "g1", spec)
		r.Estimate, r.P, r.NObs = est, p, 30
		return r
	}
	return &Table{
		Rows: []TestResult{
			row("a", "b", 0.5, 0.01),
			row("a", "c", -0.2, 0.3),
			row("b", "c", 0.1, 0.6),
		},
		Groups:    []string{"g1"},
		Variables: []string{"a", "b", "c"},
		Constant:  map[string][]string{"g1": {"c"}},
	}
}

func TestTable_Pivot(t *testing.T) {
	tbl := table()

	full, err := tbl.Pivot("g1", ValueEstimate, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, full.RowNames)
	assert.Equal(t, 1.0, full.At(0, 0))
	assert.True(t, IsNA(full.At(2, 2)), "constant variable has NA diagonal")
	v, ok := full.Get("c", "a")
	require.True(t, ok)
	assert.Equal(t, -0.2, v)

	upper, err := tbl.Pivot("g1", ValueEstimate, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, upper.RowNames)
	assert.Equal(t, []string{"b", "c"}, upper.ColNames)
	assert.Equal(t, 0.5, upper.At(0, 0))
	assert.Equal(t, 0.1, upper.At(1, 1))
	assert.True(t, IsNA(upper.At(1, 0)))

	n, err := tbl.Pivot("g1", ValueN, true)
	require.NoError(t, err)
	assert.Equal(t, 30.0, n.At(0, 1))
	assert.True(t, IsNA(n.At(0, 0)))

	_, err = tbl.Pivot("g9", ValueEstimate, true)
	assert.True(t, errors.Is(err, core.ErrVariableNotFound))
}

func TestTable_Lookups(t *testing.T) {
	tbl := table()
	tbl.Rows[2].Fail(core.NewInsufficientDataError(2))

	r, ok := tbl.Find("g1", "b", "a")
	require.True(t, ok)
	assert.Equal(t, 0.5, r.Estimate)
	_, ok = tbl.Find("g2", "a", "b")
	assert.False(t, ok)

	assert.Len(t, tbl.GroupRows("g1"), 3)
	assert.Equal(t, 3, tbl.Len())
	require.Len(t, tbl.Failures(), 1)
	assert.Equal(t, "b - c", tbl.Failures()[0].Pair().String())
}

func TestTable_PivotZeroOrder(t *testing.T) {
	tbl := table()
	_, err := tbl.Pivot("g1", ValueZeroOrder, true)
	assert.True(t, errors.Is(err, core.ErrUnsupportedCombination))

	tbl.ZeroOrder = map[string][][]float64{"g1": {
		{1, 0.3, 0.6},
		{0.3, 1, 0},
		{0.6, 0, 1},
	}}
	m, err := tbl.Pivot("g1", ValueZeroOrder, true)
	require.NoError(t, err)
	assert.Equal(t, 0.3, m.At(0, 1))
	assert.Equal(t, 0.6, m.At(2, 0))
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.True(t, IsNA(m.At(2, 2)), "constant variable has NA diagonal")

	upper, err := tbl.Pivot("g1", ValueZeroOrder, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, upper.At(1, 1))
}
