package excel

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gocorr/domain/core"
	"gocorr/domain/dataset"
	"gocorr/ports"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDataReader_CSV(t *testing.T) {
	path := writeCSV(t, "height,weight,site,grade\n170,65,north,2\n182, 80,south,3\n,72,north,1\n165,NA,,2\n")

	r := NewDataReader(Config{Path: path, Types: ports.ColumnTypes{"grade": dataset.TypeOrdinal}}, nil)
	ds, err := r.Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, []string{"height", "weight", "site", "grade"}, ds.Names())

	height, _ := ds.Column("height")
	assert.True(t, math.IsNaN(height.At(2)))
	weight, _ := ds.Column("weight")
	assert.Equal(t, 80.0, weight.At(1))
	assert.True(t, math.IsNaN(weight.At(3)))

	site, _ := ds.Column("site")
	assert.Equal(t, dataset.TypeCategorical, site.Type())
	grade, _ := ds.Column("grade")
	assert.Equal(t, dataset.TypeOrdinal, grade.Type())
	assert.Equal(t, []string{"1", "2", "3"}, grade.Levels())
}

func TestDataReader_Errors(t *testing.T) {
	_, err := NewDataReader(Config{Path: filepath.Join(t.TempDir(), "missing.csv")}, nil).Read(context.Background())
	assert.Error(t, err)

	path := writeCSV(t, "a,b\n")
	_, err = NewDataReader(Config{Path: path}, nil).Read(context.Background())
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDataReader(Config{Path: path}, nil).Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDataReader_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "survey"))

	require.NoError(t, f.SetSheetRow("survey", "A1", &[]interface{}{"x", "y", "zip", "treated"}))
	data := [][]interface{}{
		{1.5, 3, "02139", true},
		{2.5, 5, "10001", false},
		{3.5, 8, "02139", true},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("survey", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := NewDataReader(Config{Path: path}, nil).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows())

	x, _ := ds.Column("x")
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, x.Values())

	zip, _ := ds.Column("zip")
	assert.Equal(t, dataset.TypeCategorical, zip.Type())
	assert.Equal(t, []string{"02139", "10001"}, zip.Levels())

	treated, _ := ds.Column("treated")
	assert.Equal(t, []float64{1, 0, 1}, treated.Values())
}

func TestSampleRows(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, sampleRows(3, 10))
	s := sampleRows(1000, 4)
	assert.Equal(t, []int{0, 250, 500, 750}, s)
}
