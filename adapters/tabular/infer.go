package tabular

import (
	"math"
	"strings"
	"time"

	"datalens/domain/table"
)

// Inference thresholds: a column takes a type when at least this fraction of
// its sampled non-missing cells parse as that type.
const (
	numericThreshold   = 0.90
	booleanThreshold   = 0.90
	timestampThreshold = 0.90

	// Low-cardinality columns are flagged categorical
	categoricalUniqueRatio = 0.1
	categoricalMaxUnique   = 20

	maxSampleSize = 500
)

var booleanTokens = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"y": true, "n": true,
	"t": true, "f": true,
	"0": true, "1": true,
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
}

// InferColumnTypes analyzes a stratified sample of each column and assigns
// the best-fitting ColumnType.
func InferColumnTypes(t *table.Table) map[string]table.ColumnType {
	types := make(map[string]table.ColumnType, len(t.Headers))

	sampleSize := len(t.Rows)
	if sampleSize > maxSampleSize {
		sampleSize = maxSampleSize
	}
	indices := stratifiedSample(len(t.Rows), sampleSize)

	for _, header := range t.Headers {
		types[header] = inferColumn(t, header, indices)
	}
	return types
}

func inferColumn(t *table.Table, header string, indices []int) table.ColumnType {
	var valid, numericCount, booleanCount, timestampCount int
	unique := make(map[string]bool)

	for _, idx := range indices {
		cell := t.Rows[idx][header]
		if table.IsMissing(cell) {
			continue
		}
		valid++
		trimmed := strings.TrimSpace(cell)
		unique[trimmed] = true

		if _, ok := table.ParseNumeric(trimmed); ok {
			numericCount++
		}
		if booleanTokens[strings.ToLower(trimmed)] {
			booleanCount++
		}
		if parsesAsTimestamp(trimmed) {
			timestampCount++
		}
	}

	if valid == 0 {
		return table.TypeString
	}

	uniqueRatio := float64(len(unique)) / float64(valid)
	lowCardinality := uniqueRatio < categoricalUniqueRatio && len(unique) <= categoricalMaxUnique

	// Booleans are a subset of numerics for 0/1 columns; check the stricter
	// class first.
	if float64(booleanCount)/float64(valid) >= booleanThreshold && len(unique) <= 2 {
		return table.TypeBoolean
	}
	if float64(numericCount)/float64(valid) >= numericThreshold {
		// Low-cardinality numeric codes behave like categories
		if lowCardinality {
			return table.TypeCategorical
		}
		return table.TypeNumeric
	}
	if float64(timestampCount)/float64(valid) >= timestampThreshold {
		return table.TypeTimestamp
	}
	if lowCardinality {
		return table.TypeCategorical
	}
	return table.TypeString
}

func parsesAsTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// stratifiedSample returns evenly distributed row indices across the dataset
func stratifiedSample(totalRows, sampleSize int) []int {
	if sampleSize >= totalRows {
		indices := make([]int, totalRows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, 0, sampleSize)
	step := float64(totalRows) / float64(sampleSize)
	for i := 0; i < sampleSize; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx < totalRows {
			indices = append(indices, idx)
		}
	}
	return indices
}
