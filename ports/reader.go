package ports

import (
	"context"

	"gocorr/domain/dataset"
)

// DatasetReader loads a typed dataset from an external source
type DatasetReader interface {
	// Read returns the dataset. Column types are fixed here and never
	// change afterwards.
	Read(ctx context.Context) (*dataset.Dataset, error)
}

// ColumnTypes overrides inferred column types by name
type ColumnTypes map[string]dataset.ColumnType
