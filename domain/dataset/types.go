// Package dataset holds the read-only rectangular input to every correlation request.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gocorr/domain/core"
)

// ColumnType is the semantic type fixed when a column enters the system
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeOrdinal     ColumnType = "ordinal"
	TypeCategorical ColumnType = "categorical"
)

// IsFactor reports whether values are level codes rather than measurements
func (t ColumnType) IsFactor() bool {
	return t == TypeOrdinal || t == TypeCategorical
}

// ParseColumnType accepts the names used in config files and CLI flags
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case TypeNumeric, TypeOrdinal, TypeCategorical:
		return ColumnType(s), nil
	case "factor":
		return TypeCategorical, nil
	}
	return "", core.NewInvalidOptionError("column type", fmt.Sprintf("unknown type %q", s))
}

// Column is one named variable. Factor columns store level codes 0..k-1;
// missing values are NaN for every type.
type Column struct {
	name   string
	typ    ColumnType
	values []float64
	levels []string
}

// NewNumeric creates a numeric column. The slice is copied.
func NewNumeric(name string, values []float64) *Column {
	return &Column{name: name, typ: TypeNumeric, values: append([]float64(nil), values...)}
}

// NewFactor creates an ordinal or categorical column from string labels.
// Empty labels are missing. Levels are ordered by first appearance for
// categorical columns; ordinal columns sort numerically when every label
// parses as a number and lexically otherwise.
func NewFactor(name string, typ ColumnType, labels []string) (*Column, error) {
	if !typ.IsFactor() {
		return nil, core.NewInvalidOptionError("column "+name, "factor columns must be ordinal or categorical")
	}
	var levels []string
	seen := make(map[string]bool)
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, l)
	}
	if typ == TypeOrdinal {
		sortLevels(levels)
	}
	return NewFactorWithLevels(name, typ, labels, levels)
}

// NewFactorWithLevels creates a factor column with an explicit level order.
func NewFactorWithLevels(name string, typ ColumnType, labels, levels []string) (*Column, error) {
	if !typ.IsFactor() {
		return nil, core.NewInvalidOptionError("column "+name, "factor columns must be ordinal or categorical")
	}
	code := make(map[string]int, len(levels))
	for i, l := range levels {
		if _, dup := code[l]; dup {
			return nil, core.NewInvalidOptionError("column "+name, fmt.Sprintf("duplicate level %q", l))
		}
		code[l] = i
	}
	values := make([]float64, len(labels))
	for i, l := range labels {
		if l == "" {
			values[i] = math.NaN()
			continue
		}
		c, ok := code[l]
		if !ok {
			return nil, core.NewInvalidOptionError("column "+name, fmt.Sprintf("value %q is not a declared level", l))
		}
		values[i] = float64(c)
	}
	return &Column{name: name, typ: typ, values: values, levels: append([]string(nil), levels...)}, nil
}

func sortLevels(levels []string) {
	numeric := true
	nums := make(map[string]float64, len(levels))
	for _, l := range levels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[l] = v
	}
	if numeric {
		sort.SliceStable(levels, func(i, j int) bool { return nums[levels[i]] < nums[levels[j]] })
		return
	}
	sort.Strings(levels)
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Type returns the semantic type
func (c *Column) Type() ColumnType { return c.typ }

// Len returns the number of rows
func (c *Column) Len() int { return len(c.values) }

// Levels returns the factor levels in code order (nil for numeric columns)
func (c *Column) Levels() []string { return append([]string(nil), c.levels...) }

// Values returns a copy of the column values (level codes for factors)
func (c *Column) Values() []float64 { return append([]float64(nil), c.values...) }

// At returns the value at row i
func (c *Column) At(i int) float64 { return c.values[i] }

// Label returns the factor label at row i, or the formatted number
func (c *Column) Label(i int) string {
	v := c.values[i]
	if math.IsNaN(v) {
		return ""
	}
	if c.typ.IsFactor() {
		return c.levels[int(v)]
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Distinct counts distinct non-missing values
func (c *Column) Distinct() int {
	seen := make(map[float64]struct{})
	for _, v := range c.values {
		if !math.IsNaN(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// IsBinary reports exactly two distinct non-missing values
func (c *Column) IsBinary() bool {
	return c.Distinct() == 2
}

// IsConstant reports fewer than two distinct non-missing values
func (c *Column) IsConstant() bool {
	return c.Distinct() < 2
}

func (c *Column) subset(rows []int) *Column {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = c.values[r]
	}
	return &Column{name: c.name, typ: c.typ, values: values, levels: c.levels}
}

// Dataset is a rectangular table of named, typed columns. It is never
// mutated after construction.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New assembles columns into a dataset
func New(columns ...*Column) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if c.name == "" {
			return nil, core.NewInvalidOptionError("column", fmt.Sprintf("column %d has no name", i))
		}
		if _, dup := ds.index[c.name]; dup {
			return nil, core.NewInvalidOptionError("column "+c.name, "duplicate column name")
		}
		if i == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, core.NewInvalidOptionError("column "+c.name,
				fmt.Sprintf("has %d rows, expected %d", c.Len(), ds.rows))
		}
		ds.index[c.name] = i
		ds.columns = append(ds.columns, c)
	}
	return ds, nil
}

// MustNew is New for fixtures and tests
func MustNew(columns ...*Column) *Dataset {
	ds, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Rows returns the row count
func (d *Dataset) Rows() int { return d.rows }

// ColumnCount returns the column count
func (d *Dataset) ColumnCount() int { return len(d.columns) }

// Names returns the column names in order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, core.NewVariableNotFoundError(name)
	}
	return d.columns[i], nil
}

// Has reports whether a column exists
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// ColumnAt returns the i-th column
func (d *Dataset) ColumnAt(i int) *Column { return d.columns[i] }

// Select returns a dataset restricted to the named columns, in the given order
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := d.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns a dataset without the named columns
func (d *Dataset) Drop(names ...string) *Dataset {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	cols := make([]*Column, 0, len(d.columns))
	for _, c := range d.columns {
		if !skip[c.name] {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	if out.rows == 0 && len(cols) == 0 {
		out.rows = d.rows
	}
	return out
}

// Subset returns the given rows, in order
func (d *Dataset) Subset(rows []int) *Dataset {
	out := &Dataset{index: d.index, rows: len(rows), columns: make([]*Column, len(d.columns))}
	for i, c := range d.columns {
		out.columns[i] = c.subset(rows)
	}
	return out
}

// Fingerprint hashes names, types and values for run reproducibility records
func (d *Dataset) Fingerprint() core.Hash {
	h := core.NewHasher()
	h.WriteInt(d.rows)
	for _, c := range d.columns {
		h.WriteString(c.name)
		h.WriteString(string(c.typ))
		for _, l := range c.levels {
			h.WriteString(l)
		}
		for _, v := range c.values {
			h.WriteFloat(v)
		}
	}
	return h.Sum()
}
