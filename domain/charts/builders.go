package charts

import (
	"fmt"
	"sort"

	"datalens/domain/summary"
	"datalens/domain/table"

	"github.com/montanaflynn/stats"
)

const (
	MinBins     = 5
	MaxBins     = 100
	DefaultBins = 20
)

// Histogram builds an equal-width histogram over a numeric column.
// Bin counts sum to the number of observed values.
func Histogram(t *table.Table, column string, bins int) (*ChartConfig, error) {
	observed, err := numericValues(t, column)
	if err != nil {
		return nil, err
	}
	if bins == 0 {
		bins = DefaultBins
	}
	if bins < MinBins || bins > MaxBins {
		return nil, fmt.Errorf("bin count must be between %d and %d, got %d", MinBins, MaxBins, bins)
	}

	min, _ := stats.Min(observed)
	max, _ := stats.Max(observed)

	counts := make([]int, bins)
	width := (max - min) / float64(bins)
	if width == 0 {
		// Constant column collapses to one bin
		counts[0] = len(observed)
	} else {
		for _, v := range observed {
			idx := int((v - min) / width)
			if idx >= bins {
				idx = bins - 1 // max value lands in the last bin
			}
			counts[idx] = counts[idx] + 1
		}
	}

	points := make([]ChartPoint, bins)
	for i := 0; i < bins; i++ {
		lo := min + float64(i)*width
		hi := lo + width
		points[i] = ChartPoint{
			Label: fmt.Sprintf("%.4g–%.4g", lo, hi),
			Value: float64(counts[i]),
		}
	}

	return &ChartConfig{
		ChartType:  "histogram",
		Title:      fmt.Sprintf("Histogram of %s", column),
		XAxis:      column,
		YAxis:      "Frequency",
		ShowGrid:   true,
		Series:     []ChartSeries{{Name: column, Data: points}},
		Colors:     assignColors(1),
	}, nil
}

// BoxPlot builds the five-number summary of a numeric column with 1.5×IQR
// fence outliers.
func BoxPlot(t *table.Table, column string) (*ChartConfig, error) {
	observed, err := numericValues(t, column)
	if err != nil {
		return nil, err
	}

	box, err := boxStats(observed)
	if err != nil {
		return nil, fmt.Errorf("box statistics for %q: %w", column, err)
	}

	return &ChartConfig{
		ChartType: "box",
		Title:     fmt.Sprintf("Box Plot of %s", column),
		YAxis:     column,
		ShowGrid:  true,
		Box:       box,
		Colors:    assignColors(1),
	}, nil
}

// Scatter builds an X/Y scatter over two distinct numeric columns with an
// optional categorical hue column splitting the points into series.
func Scatter(t *table.Table, xColumn, yColumn, hueColumn string) (*ChartConfig, error) {
	if xColumn == yColumn {
		return nil, fmt.Errorf("x and y must be different columns")
	}
	for _, col := range []string{xColumn, yColumn} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("column %q does not exist", col)
		}
		if t.TypeOf(col) != table.TypeNumeric {
			return nil, fmt.Errorf("column %q is %s, scatter needs numeric axes", col, t.TypeOf(col))
		}
	}
	if hueColumn != "" && !t.HasColumn(hueColumn) {
		return nil, fmt.Errorf("hue column %q does not exist", hueColumn)
	}

	// Series keyed by hue value; single unnamed series when no hue given
	seriesMap := make(map[string][]ChartPoint)
	var order []string
	for _, row := range t.Rows {
		x, okX := table.ParseNumeric(row[xColumn])
		y, okY := table.ParseNumeric(row[yColumn])
		if table.IsMissing(row[xColumn]) || table.IsMissing(row[yColumn]) || !okX || !okY {
			continue
		}
		key := ""
		if hueColumn != "" {
			key = row[hueColumn]
			if table.IsMissing(key) {
				key = "(missing)"
			}
		}
		if _, seen := seriesMap[key]; !seen {
			order = append(order, key)
		}
		seriesMap[key] = append(seriesMap[key], ChartPoint{X: x, Y: y})
	}

	series := make([]ChartSeries, 0, len(order))
	for i, key := range order {
		name := key
		if name == "" {
			name = fmt.Sprintf("%s vs %s", xColumn, yColumn)
		}
		series = append(series, ChartSeries{
			Name:  name,
			Data:  seriesMap[key],
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return &ChartConfig{
		ChartType:  "scatter",
		Title:      fmt.Sprintf("Scatter Plot of %s vs %s", xColumn, yColumn),
		XAxis:      xColumn,
		YAxis:      yColumn,
		ShowLegend: hueColumn != "",
		ShowGrid:   true,
		Series:     series,
		Colors:     assignColors(len(series)),
	}, nil
}

// Bar builds a bar chart of the mean of a numeric column per category,
// sorted descending. Pipeline: group → aggregate → sort.
func Bar(t *table.Table, catColumn, numColumn string) (*ChartConfig, error) {
	if !t.HasColumn(catColumn) {
		return nil, fmt.Errorf("column %q does not exist", catColumn)
	}
	if t.TypeOf(catColumn) == table.TypeNumeric {
		return nil, fmt.Errorf("column %q is numeric, bar chart groups by a categorical column", catColumn)
	}
	if _, err := numericValues(t, numColumn); err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, row := range t.Rows {
		v, ok := table.ParseNumeric(row[numColumn])
		if table.IsMissing(row[numColumn]) || !ok {
			continue
		}
		key := row[catColumn]
		if table.IsMissing(key) {
			continue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		sums[key] += v
		counts[key]++
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no complete (%s, %s) pairs to aggregate", catColumn, numColumn)
	}

	points := make([]ChartPoint, 0, len(order))
	for _, key := range order {
		points = append(points, ChartPoint{
			Label: key,
			Value: RoundTo2(sums[key] / float64(counts[key])),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })

	return &ChartConfig{
		ChartType: "bar",
		Title:     fmt.Sprintf("Average %s by %s", numColumn, catColumn),
		XAxis:     catColumn,
		YAxis:     fmt.Sprintf("Average %s", numColumn),
		ShowGrid:  true,
		Series:    []ChartSeries{{Name: fmt.Sprintf("avg %s", numColumn), Data: points}},
		Colors:    assignColors(1),
	}, nil
}

// Heatmap builds a correlation heatmap across all numeric columns, cells
// rounded to two decimals.
func Heatmap(t *table.Table) (*ChartConfig, error) {
	matrix, err := summary.CorrelationMatrix(t)
	if err != nil {
		return nil, err
	}

	values := make([][]float64, len(matrix.Values))
	for i, row := range matrix.Values {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			values[i][j] = RoundTo2(v)
		}
	}

	return &ChartConfig{
		ChartType: "heatmap",
		Title:     "Correlation Matrix of Numerical Columns",
		ShowGrid:  false,
		Heatmap: &HeatmapData{
			Columns: matrix.Columns,
			Values:  values,
		},
	}, nil
}

// numericValues validates a column reference and returns its observed values
func numericValues(t *table.Table, column string) ([]float64, error) {
	if column == "" {
		return nil, fmt.Errorf("no column given")
	}
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("column %q does not exist", column)
	}
	if t.TypeOf(column) != table.TypeNumeric {
		return nil, fmt.Errorf("column %q is %s, expected numeric", column, t.TypeOf(column))
	}
	observed, _ := t.NumericColumn(column)
	if len(observed) == 0 {
		return nil, fmt.Errorf("column %q has no observed values", column)
	}
	return observed, nil
}

// boxStats computes the five-number summary and IQR-fence outliers
func boxStats(observed []float64) (*BoxStats, error) {
	min, err := stats.Min(observed)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(observed)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(observed)
	if err != nil {
		return nil, err
	}
	q1, q3 := min, max
	if len(observed) >= 2 {
		if q1, err = stats.Percentile(observed, 25); err != nil {
			return nil, err
		}
		if q3, err = stats.Percentile(observed, 75); err != nil {
			return nil, err
		}
	}

	iqr := q3 - q1
	lowerFence := q1 - 1.5*iqr
	upperFence := q3 + 1.5*iqr

	outliers := make([]float64, 0)
	for _, v := range observed {
		if v < lowerFence || v > upperFence {
			outliers = append(outliers, v)
		}
	}
	sort.Float64s(outliers)

	return &BoxStats{
		Min:      min,
		Q1:       q1,
		Median:   median,
		Q3:       q3,
		Max:      max,
		Outliers: outliers,
	}, nil
}
