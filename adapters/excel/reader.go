// Package excel reads spreadsheet and CSV files into typed datasets.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gocorr/adapters/datareadiness/coercer"
	"gocorr/domain/core"
	"gocorr/domain/dataset"
	"gocorr/internal"
	"gocorr/ports"
)

// hintSample caps the rows inspected for native cell types
const hintSample = 200

// Config holds configuration for a file data source
type Config struct {
	Path string
	// Sheet selects the worksheet; empty means the first sheet
	Sheet    string
	Types    ports.ColumnTypes
	Coercion coercer.CoercionConfig
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config   Config
	fileType string // "xlsx" or "csv"
	coercer  *coercer.TypeCoercer
	logger   *internal.Logger
}

var _ ports.DatasetReader = (*DataReader)(nil)

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(config Config, logger *internal.Logger) *DataReader {
	fileType := "xlsx"
	if strings.EqualFold(filepath.Ext(config.Path), ".csv") {
		fileType = "csv"
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if config.Coercion.MaxCategories == 0 {
		config.Coercion = coercer.DefaultCoercionConfig()
	}
	return &DataReader{
		config:   config,
		fileType: fileType,
		coercer:  coercer.NewTypeCoercer(config.Coercion),
		logger:   logger.With("source", config.Path),
	}
}

// Read loads the file and types its columns
func (r *DataReader) Read(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.config.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.config.Path)
	}

	start := time.Now()
	var (
		rows  [][]string
		hints ports.ColumnTypes
		err   error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, hints, err = r.readExcel(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewInsufficientDataError(len(rows))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}

	types := make(ports.ColumnTypes, len(hints)+len(r.config.Types))
	for name, t := range hints {
		types[name] = t
	}
	for name, t := range r.config.Types {
		types[name] = t
	}

	ds, skipped, err := r.coercer.Build(headers, rows[1:], types)
	if err != nil {
		return nil, fmt.Errorf("failed to type %s: %w", r.config.Path, err)
	}
	for _, name := range skipped {
		r.logger.Warn("column %q skipped: no numeric or categorical reading", name)
	}
	r.logger.Info("%s loaded in %.2fms (%d columns, %d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6, ds.ColumnCount(), ds.Rows())
	return ds, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readExcel(ctx context.Context) ([][]string, ports.ColumnTypes, error) {
	f, err := excelize.OpenFile(r.config.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("Excel file %s has no sheets", r.config.Path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return rows, nil, nil
	}

	hints, err := r.textHints(f, sheet, rows)
	if err != nil {
		return nil, nil, err
	}
	return rows, hints, nil
}

// textHints marks columns stored as text cells even though their values
// read as numbers, such as zero-padded codes. Those stay categorical.
func (r *DataReader) textHints(f *excelize.File, sheet string, rows [][]string) (ports.ColumnTypes, error) {
	hints := make(ports.ColumnTypes)
	sample := sampleRows(len(rows)-1, hintSample)
	for j := range rows[0] {
		name := strings.TrimSpace(rows[0][j])
		present, text := 0, 0
		for _, i := range sample {
			row := rows[i+1]
			if j >= len(row) || r.coercer.IsMissing(row[j]) {
				continue
			}
			present++
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			ct, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell type %s: %w", cell, err)
			}
			if ct == excelize.CellTypeSharedString || ct == excelize.CellTypeInlineString {
				text++
			}
		}
		if present > 0 && text == present && hasLeadingZero(rows, j) {
			hints[name] = dataset.TypeCategorical
		}
	}
	return hints, nil
}

// hasLeadingZero reports a code-like value such as "007" in column j
func hasLeadingZero(rows [][]string, j int) bool {
	for _, row := range rows[1:] {
		if j < len(row) {
			v := strings.TrimSpace(row[j])
			if len(v) > 1 && v[0] == '0' && v[1] >= '0' && v[1] <= '9' {
				return true
			}
		}
	}
	return false
}

// sampleRows returns up to size evenly spaced row indices in [0, total)
func sampleRows(total, size int) []int {
	if total <= size {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, size)
	step := float64(total) / float64(size)
	for i := range out {
		out[i] = int(float64(i) * step)
	}
	return out
}
