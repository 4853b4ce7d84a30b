package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"datalens/domain/cleaning"
	"datalens/domain/summary"
	"datalens/domain/table"
)

// Input bundles everything the report needs about the current session
type Input struct {
	Filename    string
	Sheet       string
	UploadedAt  time.Time
	Table       *table.Table
	CleaningLog []cleaning.LogEntry
}

// Generate renders the analysis report as markdown text. The report covers
// the cleaned table as it stands, not the original upload.
func Generate(ctx context.Context, in Input) (string, error) {
	if in.Table == nil {
		return "", fmt.Errorf("no table loaded")
	}

	tableSummary, err := summary.Describe(ctx, in.Table)
	if err != nil {
		return "", fmt.Errorf("failed to summarize table: %w", err)
	}

	var b strings.Builder

	b.WriteString("# Data Analysis Report\n\n")
	fmt.Fprintf(&b, "- **File:** %s\n", in.Filename)
	if in.Sheet != "" {
		fmt.Fprintf(&b, "- **Sheet:** %s\n", in.Sheet)
	}
	if !in.UploadedAt.IsZero() {
		fmt.Fprintf(&b, "- **Uploaded:** %s\n", in.UploadedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", time.Now().Format(time.RFC3339))

	b.WriteString("## Shape\n\n")
	fmt.Fprintf(&b, "%d rows, %d columns, %d missing cells (%.2f%%)\n\n",
		tableSummary.RowCount, tableSummary.ColumnCount,
		tableSummary.MissingTotal, tableSummary.MissingRate*100)

	writeColumnInfo(&b, tableSummary)
	writeNumericStats(&b, tableSummary)
	writeMissing(&b, tableSummary)
	writeCleaningLog(&b, in.CleaningLog)

	return b.String(), nil
}

// ToHTML converts a markdown report into an HTML fragment for preview
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func writeColumnInfo(b *strings.Builder, s *summary.TableSummary) {
	b.WriteString("## Columns\n\n")
	b.WriteString("| Column | Type | Non-Null | Missing | Unique |\n")
	b.WriteString("|--------|------|----------|---------|--------|\n")
	for _, col := range s.Columns {
		fmt.Fprintf(b, "| %s | %s | %d | %d | %d |\n",
			col.Name, col.Type, col.Count, col.Missing, col.UniqueCount)
	}
	b.WriteString("\n")
}

func writeNumericStats(b *strings.Builder, s *summary.TableSummary) {
	var numeric []summary.ColumnSummary
	for _, col := range s.Columns {
		if col.Numeric != nil {
			numeric = append(numeric, col)
		}
	}
	if len(numeric) == 0 {
		return
	}

	b.WriteString("## Descriptive Statistics\n\n")
	b.WriteString("| Column | Mean | Std | Min | 25% | Median | 75% | Max |\n")
	b.WriteString("|--------|------|-----|-----|-----|--------|-----|-----|\n")
	for _, col := range numeric {
		n := col.Numeric
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			col.Name,
			formatStat(n.Mean), formatStat(n.StdDev),
			formatStat(n.Min), formatStat(n.Q25), formatStat(n.Median),
			formatStat(n.Q75), formatStat(n.Max))
	}
	b.WriteString("\n")
}

func writeMissing(b *strings.Builder, s *summary.TableSummary) {
	b.WriteString("## Missing Values\n\n")
	if s.MissingTotal == 0 {
		b.WriteString("No missing values.\n\n")
		return
	}
	for _, col := range s.Columns {
		if col.Missing > 0 {
			fmt.Fprintf(b, "- %s: %d missing\n", col.Name, col.Missing)
		}
	}
	b.WriteString("\n")
}

func writeCleaningLog(b *strings.Builder, entries []cleaning.LogEntry) {
	b.WriteString("## Cleaning Log\n\n")
	if len(entries) == 0 {
		b.WriteString("No cleaning operations applied.\n")
		return
	}
	for i, entry := range entries {
		fmt.Fprintf(b, "%d. %s", i+1, entry.Detail)
		if entry.RowsAffected > 0 {
			fmt.Fprintf(b, " (%d rows)", entry.RowsAffected)
		}
		if entry.CellsAffected > 0 {
			fmt.Fprintf(b, " (%d cells)", entry.CellsAffected)
		}
		b.WriteString("\n")
	}
}

func formatStat(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
