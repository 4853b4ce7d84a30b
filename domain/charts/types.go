package charts

import "math"

// ChartPoint is a single labeled value in a series
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Value float64 `json:"value"`
}

// ChartSeries is one named run of points with an assigned color
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// BoxStats carries the five-number summary plus fence outliers
type BoxStats struct {
	Min      float64   `json:"min"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers"`
}

// HeatmapData is a labeled matrix of rounded correlation cells
type HeatmapData struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// ChartConfig is the renderer-agnostic chart description returned by the
// chart endpoints and drawn client-side.
type ChartConfig struct {
	ChartType  string        `json:"chart_type"`
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis,omitempty"`
	YAxis      string        `json:"y_axis,omitempty"`
	ShowLegend bool          `json:"show_legend"`
	ShowGrid   bool          `json:"show_grid"`
	Series     []ChartSeries `json:"series,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	Box        *BoxStats     `json:"box,omitempty"`
	Heatmap    *HeatmapData  `json:"heatmap,omitempty"`
}

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

// RoundTo2 rounds a value to two decimals for display payloads
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
