package summary

import (
	"context"
	"fmt"
	"sync"

	"datalens/domain/table"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary holds describe()-style statistics for a numeric column
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// ColumnSummary describes one column of the working table
type ColumnSummary struct {
	Name        string           `json:"name"`
	Type        table.ColumnType `json:"type"`
	Count       int              `json:"count"`
	Missing     int              `json:"missing"`
	UniqueCount int              `json:"unique_count"`
	Numeric     *NumericSummary  `json:"numeric,omitempty"`
}

// TableSummary is the table-level roll-up shown in the dashboard and report
type TableSummary struct {
	RowCount     int             `json:"row_count"`
	ColumnCount  int             `json:"column_count"`
	MissingTotal int             `json:"missing_total"`
	MissingRate  float64         `json:"missing_rate"`
	Columns      []ColumnSummary `json:"columns"`
}

// profileWorkers caps the errgroup fan-out for per-column profiling
const profileWorkers = 8

// Describe computes per-column and table-level summary statistics.
// Columns are profiled concurrently; output order follows the header order.
func Describe(ctx context.Context, t *table.Table) (*TableSummary, error) {
	columns := make([]ColumnSummary, len(t.Headers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(profileWorkers)

	for i, name := range t.Headers {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			cs, err := describeColumn(t, name)
			if err != nil {
				return fmt.Errorf("profiling column %q: %w", name, err)
			}
			columns[i] = *cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	missingTotal := 0
	for _, cs := range columns {
		missingTotal += cs.Missing
	}

	ts := &TableSummary{
		RowCount:     t.RowCount(),
		ColumnCount:  t.ColumnCount(),
		MissingTotal: missingTotal,
		Columns:      columns,
	}
	if cells := t.RowCount() * t.ColumnCount(); cells > 0 {
		ts.MissingRate = float64(missingTotal) / float64(cells)
	}
	return ts, nil
}

func describeColumn(t *table.Table, name string) (*ColumnSummary, error) {
	cs := &ColumnSummary{
		Name:        name,
		Type:        t.TypeOf(name),
		Missing:     t.MissingCount(name),
		UniqueCount: t.UniqueCount(name),
	}
	cs.Count = t.RowCount() - cs.Missing

	if cs.Type != table.TypeNumeric {
		return cs, nil
	}

	observed, _ := t.NumericColumn(name)
	if len(observed) == 0 {
		return cs, nil
	}

	ns := &NumericSummary{}
	var err error
	if ns.Mean, err = stats.Mean(observed); err != nil {
		return nil, err
	}
	if len(observed) > 1 {
		// Sample standard deviation, matching the describe() convention
		if ns.StdDev, err = stats.StandardDeviationSample(observed); err != nil {
			return nil, err
		}
	}
	if ns.Min, err = stats.Min(observed); err != nil {
		return nil, err
	}
	if ns.Max, err = stats.Max(observed); err != nil {
		return nil, err
	}
	if ns.Median, err = stats.Median(observed); err != nil {
		return nil, err
	}
	if len(observed) >= 2 {
		if ns.Q25, err = stats.Percentile(observed, 25); err != nil {
			return nil, err
		}
		if ns.Q75, err = stats.Percentile(observed, 75); err != nil {
			return nil, err
		}
	} else {
		ns.Q25, ns.Q75 = observed[0], observed[0]
	}

	cs.Numeric = ns
	return cs, nil
}

// Matrix is a labeled square correlation matrix
type Matrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// CorrelationMatrix computes the Pearson correlation across numeric columns,
// using pairwise-complete observations. Needs at least two numeric columns
// and three shared observations per pair; pairs below that report NaN-free 0.
func CorrelationMatrix(t *table.Table) (*Matrix, error) {
	numeric := t.NumericColumns()
	if len(numeric) < 2 {
		return nil, fmt.Errorf("correlation requires at least 2 numeric columns, have %d", len(numeric))
	}

	m := &Matrix{
		Columns: numeric,
		Values:  make([][]float64, len(numeric)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(numeric))
		m.Values[i][i] = 1
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(profileWorkers)

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			i, j := i, j
			g.Go(func() error {
				r := pairwiseCorrelation(t, numeric[i], numeric[j])
				mu.Lock()
				m.Values[i][j] = r
				m.Values[j][i] = r
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// pairwiseCorrelation aligns two columns on rows where both cells parse and
// returns their Pearson correlation, or 0 when fewer than 3 pairs exist.
func pairwiseCorrelation(t *table.Table, colX, colY string) float64 {
	xs := make([]float64, 0, t.RowCount())
	ys := make([]float64, 0, t.RowCount())
	for _, row := range t.Rows {
		x, okX := table.ParseNumeric(row[colX])
		y, okY := table.ParseNumeric(row[colY])
		if table.IsMissing(row[colX]) || table.IsMissing(row[colY]) || !okX || !okY {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 3 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if r != r { // NaN guard for zero-variance columns
		return 0
	}
	return r
}
