package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocorr/adapters/rng"
	"gocorr/adapters/stats/engine"
	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	"gocorr/internal"
	apperrors "gocorr/internal/errors"
	"gocorr/internal/testkit"
)

type staticReader struct {
	ds  *dataset.Dataset
	err error
}

func (r staticReader) Read(ctx context.Context) (*dataset.Dataset, error) {
	return r.ds, r.err
}

func newService() *CorrelationService {
	logger := internal.NewNopLogger()
	return NewCorrelationService(engine.New(rng.New(), logger), logger)
}

func TestCorrelationService_Run(t *testing.T) {
	cfg := testkit.DefaultGeneratorConfig()
	cfg.Rows = 200
	ds, err := testkit.NewGenerator(cfg).Dataset()
	require.NoError(t, err)

	res, err := newService().Run(context.Background(), CorrelationRequest{
		Reader:  staticReader{ds: ds},
		Options: correlation.DefaultOptions(),
	})
	require.NoError(t, err)

	assert.False(t, res.RunID == "")
	assert.Equal(t, res.RunID, res.Table.RunID)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 0, res.Failures)

	row, ok := res.Table.Find("", "V1", "V3")
	require.True(t, ok)
	assert.InDelta(t, 0.6, row.Estimate, 1e-9)
}

func TestCorrelationService_Errors(t *testing.T) {
	svc := newService()

	_, err := svc.Run(context.Background(), CorrelationRequest{Reader: staticReader{err: errors.New("bad header")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.Run(context.Background(), CorrelationRequest{
		Reader: staticReader{err: apperrors.DatabaseError("connection refused", nil)},
	})
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))

	ds := dataset.MustNew(
		dataset.NewNumeric("a", []float64{1, 2, 3, 4}),
		dataset.NewNumeric("b", []float64{2, 1, 4, 3}),
	)
	opts := correlation.DefaultOptions()
	opts.Select = []string{"a", "missing"}
	_, err = svc.Run(context.Background(), CorrelationRequest{Reader: staticReader{ds: ds}, Options: opts})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrVariableNotFound))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}
