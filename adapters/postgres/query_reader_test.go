package postgres

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/domain/dataset"
	"gocorr/ports"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestQueryReader_Read(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT age, income, region, code FROM survey WHERE wave = \\$1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"age", "income", "region", "code"}).
			AddRow(int64(34), 52000.5, []byte("north"), int64(1)).
			AddRow(int64(41), nil, []byte("south"), int64(2)).
			AddRow(nil, 61000.0, []byte("north"), int64(1)))

	r := NewQueryReader(db, "SELECT age, income, region, code FROM survey WHERE wave = $1",
		[]interface{}{2}, ports.ColumnTypes{"code": dataset.TypeCategorical}, nil)
	ds, err := r.Read(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 3, ds.Rows())
	age, _ := ds.Column("age")
	assert.Equal(t, dataset.TypeNumeric, age.Type())
	assert.Equal(t, 34.0, age.At(0))
	assert.True(t, math.IsNaN(age.At(2)))

	income, _ := ds.Column("income")
	assert.True(t, math.IsNaN(income.At(1)))

	region, _ := ds.Column("region")
	assert.Equal(t, dataset.TypeCategorical, region.Type())
	assert.Equal(t, []string{"north", "south"}, region.Levels())

	code, _ := ds.Column("code")
	assert.Equal(t, dataset.TypeCategorical, code.Type())
}

func TestQueryReader_QueryError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err := NewQueryReader(db, "SELECT * FROM missing", nil, nil, nil).Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestCellString(t *testing.T) {
	s, num := cellString(int64(3))
	assert.Equal(t, "3", s)
	assert.True(t, num)

	s, num = cellString([]byte("12.5"))
	assert.Equal(t, "12.5", s)
	assert.False(t, num)

	s, _ = cellString(true)
	assert.Equal(t, "true", s)

	s, _ = cellString(nil)
	assert.Equal(t, "", s)
}
