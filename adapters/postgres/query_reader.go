// Package postgres loads correlation datasets from SQL queries.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gocorr/adapters/datareadiness/coercer"
	"gocorr/domain/dataset"
	"gocorr/internal"
	"gocorr/ports"
)

// Open connects to a PostgreSQL database
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// QueryReader reads the result set of one query as a dataset
type QueryReader struct {
	db      *sqlx.DB
	query   string
	args    []interface{}
	types   ports.ColumnTypes
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

var _ ports.DatasetReader = (*QueryReader)(nil)

// NewQueryReader creates a reader over db. Columns whose driver values are
// all numbers are numeric regardless of coercion; types overrides both.
func NewQueryReader(db *sqlx.DB, query string, args []interface{}, types ports.ColumnTypes, logger *internal.Logger) *QueryReader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &QueryReader{
		db:      db,
		query:   query,
		args:    args,
		types:   types,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		logger:  logger,
	}
}

// Read runs the query and types the columns
func (r *QueryReader) Read(ctx context.Context) (*dataset.Dataset, error) {
	rows, err := r.db.QueryxContext(ctx, r.query, r.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run dataset query: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read query columns: %w", err)
	}

	numeric := make([]bool, len(headers))
	for i := range numeric {
		numeric[i] = true
	}
	present := make([]bool, len(headers))

	var cells [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		row := make([]string, len(values))
		for j, v := range values {
			s, isNumber := cellString(v)
			row[j] = s
			if v != nil {
				present[j] = true
				numeric[j] = numeric[j] && isNumber
			}
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dataset rows: %w", err)
	}

	types := make(ports.ColumnTypes, len(headers))
	for j, name := range headers {
		if present[j] && numeric[j] {
			types[name] = dataset.TypeNumeric
		}
	}
	for name, t := range r.types {
		types[name] = t
	}

	ds, skipped, err := r.coercer.Build(headers, cells, types)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		r.logger.Warn("column %q skipped: no numeric or categorical reading", name)
	}
	r.logger.Info("query loaded (%d columns, %d rows)", ds.ColumnCount(), ds.Rows())
	return ds, nil
}

// cellString renders a driver value, reporting whether it was a number
func cellString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(t), false
	case []byte:
		return string(t), false
	case string:
		return t, false
	case time.Time:
		return t.Format(time.RFC3339), false
	}
	return fmt.Sprint(v), false
}
