package app

import (
	"context"
	"time"

	"gocorr/domain/core"
	"gocorr/domain/correlation"
	"gocorr/domain/dataset"
	"gocorr/internal"
	apperrors "gocorr/internal/errors"
	"gocorr/ports"
)

// Correlator computes a correlation table over a dataset
type Correlator interface {
	Correlate(ctx context.Context, ds *dataset.Dataset, opts correlation.Options) (*correlation.Table, error)
}

// CorrelationService loads a dataset and runs one correlation request
type CorrelationService struct {
	engine Correlator
	logger *internal.Logger
}

// CorrelationRequest defines the inputs of one run
type CorrelationRequest struct {
	Reader  ports.DatasetReader
	Options correlation.Options
	RunID   core.RunID // optional, will be generated if empty
}

// CorrelationResult contains the table plus run bookkeeping
type CorrelationResult struct {
	RunID     core.RunID         `json:"run_id"`
	Table     *correlation.Table `json:"-"`
	Rows      int                `json:"rows"`
	Failures  int                `json:"failures"`
	RuntimeMs int64              `json:"runtime_ms"`
}

// NewCorrelationService creates a correlation service
func NewCorrelationService(engine Correlator, logger *internal.Logger) *CorrelationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CorrelationService{engine: engine, logger: logger}
}

// Run reads the dataset and correlates it. Reader failures keep their
// code when they carry one and are INVALID_INPUT otherwise.
func (s *CorrelationService) Run(ctx context.Context, req CorrelationRequest) (*CorrelationResult, error) {
	start := time.Now()

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	logger := s.logger.With("run_id", runID.String())

	ds, err := req.Reader.Read(ctx)
	if err != nil {
		if !apperrors.IsAppError(err) && !core.IsRequestError(err) && ctx.Err() == nil {
			err = apperrors.WithCode(apperrors.CodeInvalidInput, err)
		}
		return nil, apperrors.Wrap(err, "failed to load dataset")
	}
	logger.Debug("dataset loaded: %d rows, %d columns, fingerprint %s", ds.Rows(), ds.ColumnCount(), ds.Fingerprint().Short())

	table, err := s.engine.Correlate(ctx, ds, req.Options)
	if err != nil {
		logger.Error("correlation failed: %v", err)
		return nil, apperrors.Wrap(err, "correlation failed")
	}
	table.RunID = runID

	failures := len(table.Failures())
	if failures > 0 {
		logger.Warn("%d of %d rows are NA", failures, table.Len())
	}

	return &CorrelationResult{
		RunID:     runID,
		Table:     table,
		Rows:      table.Len(),
		Failures:  failures,
		RuntimeMs: time.Since(start).Milliseconds(),
	}, nil
}
