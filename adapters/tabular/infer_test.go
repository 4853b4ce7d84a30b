package tabular

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"datalens/domain/table"
)

func columnTable(header string, values []string) *table.Table {
	t := &table.Table{Headers: []string{header}}
	for _, v := range values {
		t.Rows = append(t.Rows, table.Row{header: v})
	}
	return t
}

func inferOne(header string, values []string) table.ColumnType {
	t := columnTable(header, values)
	return InferColumnTypes(t)[header]
}

func TestInferNumeric(t *testing.T) {
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("%d.%d", i, i)
	}
	assert.Equal(t, table.TypeNumeric, inferOne("v", values))
}

func TestInferNumericToleratesFewBadCells(t *testing.T) {
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("%d", i*3+1)
	}
	values[0] = "oops" // 29/30 still clears the threshold
	assert.Equal(t, table.TypeNumeric, inferOne("v", values))
}

func TestInferLowCardinalityNumericIsCategorical(t *testing.T) {
	// Numeric codes 1/2 over 30 rows: unique ratio well under 0.1
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("%d", i%2+1)
	}
	assert.Equal(t, table.TypeCategorical, inferOne("code", values))
}

func TestInferBoolean(t *testing.T) {
	values := make([]string, 20)
	for i := range values {
		if i%2 == 0 {
			values[i] = "yes"
		} else {
			values[i] = "no"
		}
	}
	assert.Equal(t, table.TypeBoolean, inferOne("active", values))
}

func TestInferZeroOneIsBoolean(t *testing.T) {
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("%d", i%2)
	}
	// 0/1 parses as numeric too; boolean wins as the stricter class
	assert.Equal(t, table.TypeBoolean, inferOne("flag", values))
}

func TestInferTimestamp(t *testing.T) {
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("2024-03-%02d", i%28+1)
	}
	assert.Equal(t, table.TypeTimestamp, inferOne("day", values))
}

func TestInferCategorical(t *testing.T) {
	categories := []string{"red", "green"}
	values := make([]string, 30)
	for i := range values {
		values[i] = categories[i%2]
	}
	assert.Equal(t, table.TypeCategorical, inferOne("color", values))
}

func TestInferString(t *testing.T) {
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("user-%d", i)
	}
	assert.Equal(t, table.TypeString, inferOne("id", values))
}

func TestInferAllMissingIsString(t *testing.T) {
	assert.Equal(t, table.TypeString, inferOne("v", []string{"", "na", "null"}))
}

func TestStratifiedSampleCoversSmallTables(t *testing.T) {
	indices := stratifiedSample(5, 10)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices)
}

func TestStratifiedSampleSpreadsLargeTables(t *testing.T) {
	indices := stratifiedSample(1000, 100)
	assert.Len(t, indices, 100)
	assert.Equal(t, 0, indices[0])
	assert.Greater(t, indices[99], 900)
	for i := 1; i < len(indices); i++ {
		assert.Greater(t, indices[i], indices[i-1], "indices strictly increase")
	}
}
