package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/dataset"
)

func TestStratify_FirstAppearanceOrder(t *testing.T) {
	site, err := dataset.NewFactor("site", dataset.TypeCategorical, []string{"north", "south", "north", "", "south", "east"})
	require.NoError(t, err)
	sex, err := dataset.NewFactor("sex", dataset.TypeCategorical, []string{"f", "m", "m", "f", "m", "f"})
	require.NoError(t, err)
	v := dataset.NewNumeric("v", []float64{1, 2, 3, 4, 5, 6})
	ds := dataset.MustNew(v, site, sex)

	groups, err := Stratify(ds, []string{"site"})
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south", "east"}, Labels(groups))
	assert.Equal(t, []int{0, 2}, groups[0].Rows)
	assert.Equal(t, []int{1, 4}, groups[1].Rows)

	col, err := groups[1].Data.Column("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, col.Values())

	groups, err = Stratify(ds, []string{"site", "sex"})
	require.NoError(t, err)
	assert.Equal(t, []string{"north - f", "south - m", "north - m", "east - f"}, Labels(groups))

	total := 0
	for _, g := range groups {
		total += len(g.Rows)
	}
	assert.Equal(t, 5, total, "row with a missing key is dropped")
}

func TestStratify_NoKeys(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("v", []float64{1, math.NaN(), 3}))
	groups, err := Stratify(ds, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "", groups[0].Label)
	assert.Equal(t, 3, groups[0].Data.Rows())
}

func TestStratify_UnknownKey(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumeric("v", []float64{1, 2, 3}))
	_, err := Stratify(ds, []string{"nope"})
	assert.Error(t, err)
}
