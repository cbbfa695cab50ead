package coercer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/dataset"
)

func TestParseNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" -3.5 ", -3.5, true},
		{"(120)", -120, true},
		{"$1,000", 1000, true},
		{"1.234,5", 1234.5, true},
		{"3,5", 3.5, true},
		{"45%", 45, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{"", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.ParseNumeric(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, "input %q", tt.in)
		}
	}
}

func TestInfer(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	assert.Equal(t, KindNumeric, c.Infer([]string{"1", "2.5", "NA", "4"}))
	assert.Equal(t, KindBoolean, c.Infer([]string{"yes", "no", "", "yes"}))
	assert.Equal(t, KindCategorical, c.Infer([]string{"red", "blue", "red"}))
	assert.Equal(t, KindEmpty, c.Infer([]string{"", "null"}))

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = "id-" + string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	assert.Equal(t, KindText, c.Infer(ids))
}

func TestBuild(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	headers := []string{"age", "smoker", "site", "notes", "score"}
	rows := [][]string{
		{"31", "yes", "north", "a", "3"},
		{"45", "no", "south", "", "1"},
		{"NA", "yes", "north", "", "2"},
		{"28", "no", "", "", ""},
	}
	ds, skipped, err := c.Build(headers, rows, map[string]dataset.ColumnType{"score": dataset.TypeOrdinal})
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "smoker", "site", "notes", "score"}, ds.Names())
	assert.Empty(t, skipped)

	age, _ := ds.Column("age")
	assert.Equal(t, dataset.TypeNumeric, age.Type())
	assert.True(t, math.IsNaN(age.At(2)))

	smoker, _ := ds.Column("smoker")
	assert.Equal(t, []float64{1, 0, 1, 0}, smoker.Values())
	assert.True(t, smoker.IsBinary())

	site, _ := ds.Column("site")
	assert.Equal(t, dataset.TypeCategorical, site.Type())
	assert.Equal(t, "", site.Label(3))

	score, _ := ds.Column("score")
	assert.Equal(t, dataset.TypeOrdinal, score.Type())
	assert.Equal(t, []string{"1", "2", "3"}, score.Levels())
}

func TestBuild_SkipsEmptyColumns(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	ds, skipped, err := c.Build([]string{"x", "blank"}, [][]string{{"1", ""}, {"2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"blank"}, skipped)
	assert.Equal(t, 2, ds.Rows())
}
