package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/domain/cleaning"
	"datalens/domain/table"
)

func buildInput() Input {
	return Input{
		Filename:   "sales.xlsx",
		Sheet:      "Q1",
		UploadedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Table: &table.Table{
			Headers: []string{"region", "revenue"},
			Rows: []table.Row{
				{"region": "north", "revenue": "100"},
				{"region": "south", "revenue": "200"},
				{"region": "north", "revenue": ""},
			},
			Types: map[string]table.ColumnType{
				"region":  table.TypeCategorical,
				"revenue": table.TypeNumeric,
			},
		},
		CleaningLog: []cleaning.LogEntry{
			{Op: cleaning.OpImpute, Detail: `Imputed "revenue" with mean (150)`, CellsAffected: 1},
		},
	}
}

func TestGenerate(t *testing.T) {
	md, err := Generate(context.Background(), buildInput())
	require.NoError(t, err)

	assert.Contains(t, md, "# Data Analysis Report")
	assert.Contains(t, md, "sales.xlsx")
	assert.Contains(t, md, "**Sheet:** Q1")
	assert.Contains(t, md, "3 rows, 2 columns, 1 missing cells")
	assert.Contains(t, md, "| revenue | numeric | 2 | 1 | 2 |")
	assert.Contains(t, md, "## Descriptive Statistics")
	assert.Contains(t, md, "| revenue | 150 |")
	assert.Contains(t, md, "- revenue: 1 missing")
	assert.Contains(t, md, "## Cleaning Log")
	assert.Contains(t, md, `1. Imputed "revenue" with mean (150) (1 cells)`)
}

func TestGenerateNoCleaningOrMissing(t *testing.T) {
	in := buildInput()
	in.Table.Rows = in.Table.Rows[:2]
	in.CleaningLog = nil

	md, err := Generate(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, md, "No missing values.")
	assert.Contains(t, md, "No cleaning operations applied.")
}

func TestGenerateWithoutTable(t *testing.T) {
	_, err := Generate(context.Background(), Input{Filename: "x.csv"})
	assert.Error(t, err)
}

func TestToHTML(t *testing.T) {
	html := string(ToHTML("# Title\n\nSome **bold** text.\n"))

	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Title")
	assert.Contains(t, html, "<strong>bold</strong>")
}
