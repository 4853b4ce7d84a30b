package cleaning

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"datalens/domain/core"
	"datalens/domain/table"

	"github.com/montanaflynn/stats"
)

// Strategy selects how missing cells are filled
type Strategy string

const (
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
	StrategyMode   Strategy = "mode"
)

// Operation names recorded in the cleaning log
type Operation string

const (
	OpDropMissingRows Operation = "drop_missing_rows"
	OpImpute          Operation = "impute"
	OpDropColumns     Operation = "drop_columns"
	OpReset           Operation = "reset"
)

// LogEntry records one cleaning action applied to the working table
type LogEntry struct {
	Op            Operation      `json:"op"`
	Detail        string         `json:"detail"`
	RowsAffected  int            `json:"rows_affected"`
	CellsAffected int            `json:"cells_affected"`
	At            core.Timestamp `json:"at"`
}

// ImputeResult describes the fill applied to one column
type ImputeResult struct {
	Column    string   `json:"column"`
	Strategy  Strategy `json:"strategy"`
	FillValue string   `json:"fill_value"`
	Filled    int      `json:"filled"`
}

// DropMissingRows removes every row that has at least one missing cell.
// Returns the number of rows removed. The column set is unchanged.
func DropMissingRows(t *table.Table) int {
	kept := make([]table.Row, 0, len(t.Rows))
	removed := 0
	for _, row := range t.Rows {
		complete := true
		for _, h := range t.Headers {
			if table.IsMissing(row[h]) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, row)
		} else {
			removed++
		}
	}
	t.Rows = kept
	return removed
}

// ImputeColumn fills the missing cells of one column using the given
// strategy. Mean and median apply to numeric columns only; mode applies to
// any column. Columns with no missing cells are a no-op.
func ImputeColumn(t *table.Table, column string, strategy Strategy) (*ImputeResult, error) {
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("column %q does not exist", column)
	}

	missing := t.MissingCount(column)
	if missing == 0 {
		return &ImputeResult{Column: column, Strategy: strategy, Filled: 0}, nil
	}

	var fill string
	switch strategy {
	case StrategyMean, StrategyMedian:
		if t.TypeOf(column) != table.TypeNumeric {
			return nil, fmt.Errorf("%s imputation requires a numeric column, %q is %s", strategy, column, t.TypeOf(column))
		}
		observed, _ := t.NumericColumn(column)
		if len(observed) == 0 {
			return nil, fmt.Errorf("column %q has no observed values to impute from", column)
		}
		var v float64
		var err error
		if strategy == StrategyMean {
			v, err = stats.Mean(observed)
		} else {
			v, err = stats.Median(observed)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s of %q: %w", strategy, column, err)
		}
		fill = strconv.FormatFloat(v, 'g', -1, 64)
	case StrategyMode:
		fill = modeValue(t, column)
		if fill == "" {
			return nil, fmt.Errorf("column %q has no observed values to impute from", column)
		}
	default:
		return nil, fmt.Errorf("unknown imputation strategy %q", strategy)
	}

	filled := 0
	for _, row := range t.Rows {
		if table.IsMissing(row[column]) {
			row[column] = fill
			filled++
		}
	}

	return &ImputeResult{Column: column, Strategy: strategy, FillValue: fill, Filled: filled}, nil
}

// ImputeAll fills every column that has missing cells: mean for numeric
// columns, most-frequent value for everything else. Mirrors the one-click
// "fill with mean/mode" flow of the dashboard sidebar.
func ImputeAll(t *table.Table) ([]ImputeResult, error) {
	var results []ImputeResult
	for _, h := range t.Headers {
		if t.MissingCount(h) == 0 {
			continue
		}
		strategy := StrategyMode
		if t.TypeOf(h) == table.TypeNumeric {
			strategy = StrategyMean
		}
		res, err := ImputeColumn(t, h, strategy)
		if err != nil {
			return results, fmt.Errorf("imputing %q: %w", h, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// DropColumns removes the named columns from the table. Unknown names and
// removing every remaining column are rejected.
func DropColumns(t *table.Table, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no columns given")
	}

	drop := make(map[string]bool, len(names))
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("column %q does not exist", name)
		}
		drop[name] = true
	}
	if len(drop) >= len(t.Headers) {
		return fmt.Errorf("cannot drop all %d columns", len(t.Headers))
	}

	kept := make([]string, 0, len(t.Headers)-len(drop))
	for _, h := range t.Headers {
		if !drop[h] {
			kept = append(kept, h)
		}
	}
	t.Headers = kept

	for _, row := range t.Rows {
		for name := range drop {
			delete(row, name)
		}
	}
	if t.Types != nil {
		for name := range drop {
			delete(t.Types, name)
		}
	}
	return nil
}

// modeValue returns the most frequent non-missing value of a column.
// Ties break toward the lexically smallest value so the result is stable.
func modeValue(t *table.Table, column string) string {
	counts := make(map[string]int)
	for _, row := range t.Rows {
		cell := row[column]
		if table.IsMissing(cell) {
			continue
		}
		counts[strings.TrimSpace(cell)]++
	}
	if len(counts) == 0 {
		return ""
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)

	best := values[0]
	for _, v := range values[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
