package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
)

func continuous(name string) *dataset.Column {
	return dataset.NewNumeric(name, []float64{1.5, 2, 3.2, 4, 5.1, 6})
}

func binary(name string) *dataset.Column {
	return dataset.NewNumeric(name, []float64{0, 1, 0, 1, 1, 0})
}

func factor(t *testing.T, name string, typ dataset.ColumnType) *dataset.Column {
	t.Helper()
	c, err := dataset.NewFactor(name, typ, []string{"a", "b", "c", "a", "b", "c"})
	require.NoError(t, err)
	return c
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindContinuous, KindOf(continuous("x")))
	assert.Equal(t, KindBinary, KindOf(binary("b")))
	assert.Equal(t, KindOrdinal, KindOf(factor(t, "o", dataset.TypeOrdinal)))
	assert.Equal(t, KindCategorical, KindOf(factor(t, "c", dataset.TypeCategorical)))

	two, err := dataset.NewFactor("two", dataset.TypeCategorical, []string{"y", "n", "y"})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, KindOf(two))
}

func TestAutoMethod_Table(t *testing.T) {
	tests := []struct {
		x, y VariableKind
		want correlation.Method
	}{
		{KindContinuous, KindContinuous, correlation.MethodPearson},
		{KindContinuous, KindBinary, correlation.MethodPointBiserial},
		{KindBinary, KindContinuous, correlation.MethodPointBiserial},
		{KindContinuous, KindOrdinal, correlation.MethodSpearman},
		{KindOrdinal, KindContinuous, correlation.MethodSpearman},
		{KindContinuous, KindCategorical, correlation.MethodPolychoric},
		{KindBinary, KindBinary, correlation.MethodTetrachoric},
		{KindBinary, KindOrdinal, correlation.MethodPolychoric},
		{KindOrdinal, KindOrdinal, correlation.MethodPolychoric},
		{KindCategorical, KindCategorical, correlation.MethodPolychoric},
	}
	for _, tt := range tests {
		t.Run(tt.x.String()+"_"+tt.y.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, AutoMethod(tt.x, tt.y))
			// the table is symmetric
			assert.Equal(t, AutoMethod(tt.x, tt.y), AutoMethod(tt.y, tt.x))
		})
	}
}

func TestResolve_Auto(t *testing.T) {
	opts := correlation.DefaultOptions()
	opts.Method = correlation.MethodAuto

	spec, err := Resolve(opts, continuous("x"), binary("b"))
	require.NoError(t, err)
	assert.Equal(t, correlation.MethodPointBiserial, spec.Method)
	assert.Equal(t, 0.95, spec.CI)

	// residuals are continuous, so adjusted requests fall back to pearson
	opts.Partial = true
	spec, err = Resolve(opts, continuous("x"), binary("b"))
	require.NoError(t, err)
	assert.Equal(t, correlation.MethodPearson, spec.Method)
	assert.True(t, spec.Partial)
}

func TestResolve_UnsupportedCombinations(t *testing.T) {
	ord := factor(t, "o", dataset.TypeOrdinal)
	cat := factor(t, "c", dataset.TypeCategorical)

	tests := []struct {
		name string
		edit func(*correlation.Options)
		x, y *dataset.Column
	}{
		{"polychoric on continuous pair", func(o *correlation.Options) { o.Method = correlation.MethodPolychoric }, continuous("x"), continuous("y")},
		{"tetrachoric with ordinal", func(o *correlation.Options) { o.Method = correlation.MethodTetrachoric }, binary("b"), ord},
		{"biserial without binary", func(o *correlation.Options) { o.Method = correlation.MethodBiserial }, continuous("x"), continuous("y")},
		{"pearson on categorical", func(o *correlation.Options) {}, continuous("x"), cat},
		{"bayesian kendall", func(o *correlation.Options) { o.Method = correlation.MethodKendall; o.Bayesian = true }, continuous("x"), continuous("y")},
		{"bayesian auto resolving to polychoric", func(o *correlation.Options) { o.Method = correlation.MethodAuto; o.Bayesian = true }, ord, ord},
		{"partial with categorical target", func(o *correlation.Options) { o.Partial = true; o.Method = correlation.MethodAuto }, continuous("x"), cat},
		{"bayesian multilevel zero-order", func(o *correlation.Options) { o.Bayesian = true; o.Multilevel = true }, continuous("x"), continuous("y")},
		{"partial point-biserial", func(o *correlation.Options) { o.Method = correlation.MethodPointBiserial; o.Partial = true }, continuous("x"), binary("b")},
		{"multilevel biserial", func(o *correlation.Options) { o.Method = correlation.MethodBiserial; o.Multilevel = true }, binary("b"), continuous("y")},
		{"multilevel zero-order with covariate subset", func(o *correlation.Options) { o.Multilevel = true; o.Covariates = []string{"z"} }, continuous("x"), continuous("y")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := correlation.DefaultOptions()
			tt.edit(&opts)
			_, err := Resolve(opts, tt.x, tt.y)
			assert.True(t, errors.Is(err, core.ErrUnsupportedCombination), "got %v", err)
		})
	}
}

func TestResolve_AllowedOnCategorical(t *testing.T) {
	cat := factor(t, "c", dataset.TypeCategorical)
	for _, m := range []correlation.Method{correlation.MethodPolychoric, correlation.MethodSpearman, correlation.MethodKendall} {
		opts := correlation.DefaultOptions()
		opts.Method = m
		spec, err := Resolve(opts, continuous("x"), cat)
		require.NoError(t, err, "method %s", m)
		assert.Equal(t, m, spec.Method)
	}
}

func TestResolve_InvalidOptions(t *testing.T) {
	opts := correlation.DefaultOptions()
	opts.CI = 1.5
	_, err := Resolve(opts, continuous("x"), continuous("y"))
	assert.True(t, errors.Is(err, core.ErrInvalidOption))
}
