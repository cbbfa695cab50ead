// Package coercer turns raw string cells into typed dataset columns. Type
// inference runs once, at ingestion; nothing downstream re-types a column.
package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocorr/domain/dataset"
)

// TypeCoercer handles deterministic type coercion
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold" mapstructure:"numeric_threshold"` // share of present values that must parse as numbers
	BooleanThreshold float64  `json:"boolean_threshold" mapstructure:"boolean_threshold"` // share of present values that must parse as booleans
	MaxCategories    int      `json:"max_categories" mapstructure:"max_categories"`       // string columns with more levels are dropped as free text
	MissingTokens    []string `json:"missing_tokens" mapstructure:"missing_tokens"`
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 0.95,
		BooleanThreshold: 0.95,
		MaxCategories:    50,
		MissingTokens:    []string{"", "na", "n/a", "nan", "null", "none", "."},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// IsMissing reports a cell that stands for a missing value
func (c *TypeCoercer) IsMissing(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tok := range c.config.MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// ParseNumeric parses a number, accepting currency symbols, percentages,
// accounting negatives "(12)" and comma decimal separators
func (c *TypeCoercer) ParseNumeric(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}
	for _, symbol := range []string{"$", "€", "£", "¥", "%"} {
		clean = strings.ReplaceAll(clean, symbol, "")
	}
	clean = strings.TrimSpace(clean)

	hasComma := strings.Contains(clean, ",")
	hasPeriod := strings.Contains(clean, ".")
	switch {
	case hasComma && hasPeriod && strings.LastIndex(clean, ",") > strings.LastIndex(clean, "."):
		// 1.234,56
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasComma && !hasPeriod && strings.Count(clean, ",") == 1 && len(clean)-strings.Index(clean, ",")-1 != 3:
		// 3,5 but not 1,000
		clean = strings.ReplaceAll(clean, ",", ".")
	default:
		clean = strings.ReplaceAll(clean, ",", "")
	}
	clean = strings.ReplaceAll(clean, " ", "")

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ParseBoolean parses common boolean spellings
func (c *TypeCoercer) ParseBoolean(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return false, false
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount   int     `json:"total_count"`
	ValidCount   int     `json:"valid_count"`
	NumericCount int     `json:"numeric_count"`
	BooleanCount int     `json:"boolean_count"`
	Distinct     int     `json:"distinct"`
	NumericRatio float64 `json:"numeric_ratio"`
	BooleanRatio float64 `json:"boolean_ratio"`
}

// AnalyzeTypeDistribution counts how many present values parse as each type
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	a := TypeAnalysis{TotalCount: len(values)}
	seen := make(map[string]struct{})
	for _, v := range values {
		if c.IsMissing(v) {
			continue
		}
		a.ValidCount++
		seen[strings.TrimSpace(v)] = struct{}{}
		if _, ok := c.ParseNumeric(v); ok {
			a.NumericCount++
		}
		if _, ok := c.ParseBoolean(v); ok {
			a.BooleanCount++
		}
	}
	a.Distinct = len(seen)
	if a.ValidCount > 0 {
		a.NumericRatio = float64(a.NumericCount) / float64(a.ValidCount)
		a.BooleanRatio = float64(a.BooleanCount) / float64(a.ValidCount)
	}
	return a
}

// Kind is the inferred storage of a raw column
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindBoolean     Kind = "boolean"
	KindCategorical Kind = "categorical"
	// KindText is a high-cardinality string column, not analysable
	KindText Kind = "text"
	// KindEmpty has no present values
	KindEmpty Kind = "empty"
)

// Infer chooses the storage of a column from its analysis
func (c *TypeCoercer) Infer(values []string) Kind {
	a := c.AnalyzeTypeDistribution(values)
	switch {
	case a.ValidCount == 0:
		return KindEmpty
	case a.NumericRatio >= c.config.NumericThreshold:
		return KindNumeric
	case a.BooleanRatio >= c.config.BooleanThreshold:
		return KindBoolean
	case a.Distinct <= c.config.MaxCategories:
		return KindCategorical
	}
	return KindText
}

// Column builds a typed column. typ overrides inference when non-empty:
// numeric columns must parse, factor columns keep their labels.
func (c *TypeCoercer) Column(name string, values []string, typ dataset.ColumnType) (*dataset.Column, error) {
	if typ == "" {
		switch c.Infer(values) {
		case KindNumeric:
			typ = dataset.TypeNumeric
		case KindBoolean:
			return dataset.NewNumeric(name, c.booleans(values)), nil
		case KindCategorical:
			typ = dataset.TypeCategorical
		default:
			return nil, nil
		}
	}

	if typ == dataset.TypeNumeric {
		out := make([]float64, len(values))
		for i, v := range values {
			if c.IsMissing(v) {
				out[i] = math.NaN()
				continue
			}
			f, ok := c.ParseNumeric(v)
			if !ok {
				if b, isBool := c.ParseBoolean(v); isBool {
					f = boolFloat(b)
				} else {
					out[i] = math.NaN()
					continue
				}
			}
			out[i] = f
		}
		return dataset.NewNumeric(name, out), nil
	}

	labels := make([]string, len(values))
	for i, v := range values {
		if !c.IsMissing(v) {
			labels[i] = strings.TrimSpace(v)
		}
	}
	return dataset.NewFactor(name, typ, labels)
}

func (c *TypeCoercer) booleans(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		b, ok := c.ParseBoolean(v)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = boolFloat(b)
	}
	return out
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Build assembles a dataset from a header and string rows. Columns that
// are empty or free text are skipped and reported.
func (c *TypeCoercer) Build(headers []string, rows [][]string, types map[string]dataset.ColumnType) (*dataset.Dataset, []string, error) {
	var (
		columns []*dataset.Column
		skipped []string
	)
	for j, name := range headers {
		values := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				values[i] = row[j]
			}
		}
		col, err := c.Column(name, values, types[name])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", name, err)
		}
		if col == nil {
			skipped = append(skipped, name)
			continue
		}
		columns = append(columns, col)
	}
	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, nil, err
	}
	return ds, skipped, nil
}
