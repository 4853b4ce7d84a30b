package table

import (
	"strconv"
	"strings"
)

// ColumnType classifies a column by its inferred content
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
	TypeBoolean     ColumnType = "boolean"
	TypeTimestamp   ColumnType = "timestamp"
	TypeString      ColumnType = "string"
)

// Row maps column name to the raw cell value
type Row map[string]string

// Table is the in-memory dataset: ordered headers, raw string cells and
// per-column inferred types. Cells are kept as strings; numeric access goes
// through NumericColumn.
type Table struct {
	Headers []string              `json:"headers"`
	Rows    []Row                 `json:"rows"`
	Types   map[string]ColumnType `json:"types"`
}

// missingTokens are treated as absent values in addition to the empty cell.
var missingTokens = map[string]bool{
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// IsMissing reports whether a raw cell value counts as missing
func IsMissing(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	return missingTokens[strings.ToLower(trimmed)]
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.Headers)
}

// HasColumn checks whether a named column exists
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// TypeOf returns the inferred type for a column, defaulting to string
func (t *Table) TypeOf(name string) ColumnType {
	if t.Types != nil {
		if ct, ok := t.Types[name]; ok {
			return ct
		}
	}
	return TypeString
}

// Column returns all raw cell values for a column in row order
func (t *Table) Column(name string) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[name])
	}
	return values
}

// NumericColumn parses a column's observed (non-missing) values as floats.
// Returns the parsed values and the number of missing cells. Cells that are
// present but unparseable count as missing for analysis purposes.
func (t *Table) NumericColumn(name string) (values []float64, missing int) {
	values = make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		cell := row[name]
		if IsMissing(cell) {
			missing++
			continue
		}
		v, err := parseFloat(cell)
		if err != nil {
			missing++
			continue
		}
		values = append(values, v)
	}
	return values, missing
}

// MissingCount returns the number of missing cells in a column
func (t *Table) MissingCount(name string) int {
	count := 0
	for _, row := range t.Rows {
		if IsMissing(row[name]) {
			count++
		}
	}
	return count
}

// MissingTotal returns the number of missing cells across the whole table
func (t *Table) MissingTotal() int {
	total := 0
	for _, h := range t.Headers {
		total += t.MissingCount(h)
	}
	return total
}

// UniqueCount returns the number of distinct non-missing values in a column
func (t *Table) UniqueCount(name string) int {
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		cell := row[name]
		if IsMissing(cell) {
			continue
		}
		seen[strings.TrimSpace(cell)] = true
	}
	return len(seen)
}

// NumericColumns lists columns typed numeric, in header order
func (t *Table) NumericColumns() []string {
	var cols []string
	for _, h := range t.Headers {
		if t.TypeOf(h) == TypeNumeric {
			cols = append(cols, h)
		}
	}
	return cols
}

// CategoricalColumns lists columns typed categorical or string, in header
// order. Both can serve as grouping/hue dimensions.
func (t *Table) CategoricalColumns() []string {
	var cols []string
	for _, h := range t.Headers {
		ct := t.TypeOf(h)
		if ct == TypeCategorical || ct == TypeString || ct == TypeBoolean {
			cols = append(cols, h)
		}
	}
	return cols
}

// Clone returns a deep copy. Cleaning operations run against a clone so the
// original upload stays intact for the session.
func (t *Table) Clone() *Table {
	clone := &Table{
		Headers: make([]string, len(t.Headers)),
		Rows:    make([]Row, len(t.Rows)),
		Types:   make(map[string]ColumnType, len(t.Types)),
	}
	copy(clone.Headers, t.Headers)
	for i, row := range t.Rows {
		cloneRow := make(Row, len(row))
		for k, v := range row {
			cloneRow[k] = v
		}
		clone.Rows[i] = cloneRow
	}
	for k, v := range t.Types {
		clone.Types[k] = v
	}
	return clone
}

// Head returns up to n rows for preview rendering
func (t *Table) Head(n int) []Row {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// MissingRate returns the fraction of missing cells over all cells
func (t *Table) MissingRate() float64 {
	cells := t.RowCount() * t.ColumnCount()
	if cells == 0 {
		return 0
	}
	return float64(t.MissingTotal()) / float64(cells)
}

func parseFloat(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	// Tolerate thousands separators that survive Excel export
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	return strconv.ParseFloat(trimmed, 64)
}

// ParseNumeric exposes the cell-to-float parsing used across the analysis
// packages so type inference and cleaning agree on what counts as numeric.
func ParseNumeric(s string) (float64, bool) {
	v, err := parseFloat(s)
	return v, err == nil
}
