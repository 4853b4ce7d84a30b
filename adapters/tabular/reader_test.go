package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"datalens/domain/table"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIsSupportedFilename(t *testing.T) {
	assert.True(t, IsSupportedFilename("data.csv"))
	assert.True(t, IsSupportedFilename("Data.XLSX"))
	assert.False(t, IsSupportedFilename("data.xls"))
	assert.False(t, IsSupportedFilename("data.txt"))
	assert.False(t, IsSupportedFilename("data"))
}

func TestReadCSV(t *testing.T) {
	path := writeTempCSV(t, "name,age,city\nalice,30,berlin\nbob,25,paris\n")

	tbl, err := NewFileReader(path).Read("")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "city"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "30", tbl.Rows[0]["age"])
	assert.Equal(t, "paris", tbl.Rows[1]["city"])
}

func TestReadCSVRaggedRowsArePadded(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2\n4,5,6\n")

	tbl, err := NewFileReader(path).Read("")
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "", tbl.Rows[0]["c"], "short row padded with missing cell")
	assert.Equal(t, "6", tbl.Rows[1]["c"])
}

func TestReadCSVBlankHeadersAreNamed(t *testing.T) {
	path := writeTempCSV(t, "a,,c\n1,2,3\n")

	tbl, err := NewFileReader(path).Read("")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "column_2", "c"}, tbl.Headers)
	assert.Equal(t, "2", tbl.Rows[0]["column_2"])
}

func TestReadCSVRequiresDataRow(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n")

	_, err := NewFileReader(path).Read("")
	assert.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewFileReader("/nonexistent/data.csv").Read("")
	assert.Error(t, err)
}

func TestReadCSVFromStream(t *testing.T) {
	src := strings.NewReader("name,age\nalice,30\nbob,25\n")

	tbl, err := NewReader(src, "people.csv").Read("")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "25", tbl.Rows[1]["age"])
}

func TestReadExcelFromStream(t *testing.T) {
	path := writeTempWorkbook(t)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tbl, err := NewReader(f, "data.xlsx").Read("People")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tbl.Headers)
	assert.Len(t, tbl.Rows, 2)
}

func TestCSVSheetsIsNil(t *testing.T) {
	path := writeTempCSV(t, "a\n1\n")

	sheets, err := NewFileReader(path).Sheets()
	require.NoError(t, err)
	assert.Nil(t, sheets)
}

func writeTempWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "People"))
	require.NoError(t, f.SetSheetRow("People", "A1", &[]interface{}{"name", "age"}))
	require.NoError(t, f.SetSheetRow("People", "A2", &[]interface{}{"alice", 30}))
	require.NoError(t, f.SetSheetRow("People", "A3", &[]interface{}{"bob", 25}))

	_, err := f.NewSheet("Cities")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Cities", "A1", &[]interface{}{"city"}))
	require.NoError(t, f.SetSheetRow("Cities", "A2", &[]interface{}{"berlin"}))

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelSheets(t *testing.T) {
	path := writeTempWorkbook(t)

	sheets, err := NewFileReader(path).Sheets()
	require.NoError(t, err)
	assert.Equal(t, []string{"People", "Cities"}, sheets)
}

func TestReadExcelNamedSheet(t *testing.T) {
	path := writeTempWorkbook(t)

	tbl, err := NewFileReader(path).Read("Cities")
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "berlin", tbl.Rows[0]["city"])
}

func TestReadExcelDefaultsToFirstSheet(t *testing.T) {
	path := writeTempWorkbook(t)

	tbl, err := NewFileReader(path).Read("")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, tbl.Headers)
	assert.Len(t, tbl.Rows, 2)
}

func TestReadExcelUnknownSheet(t *testing.T) {
	path := writeTempWorkbook(t)

	_, err := NewFileReader(path).Read("Nope")
	assert.Error(t, err)
}

func TestReadRunsTypeInference(t *testing.T) {
	path := writeTempCSV(t, "name,score\nalice,1.5\nbob,2.5\ncarol,3.5\n")

	tbl, err := NewFileReader(path).Read("")
	require.NoError(t, err)

	assert.Equal(t, table.TypeNumeric, tbl.TypeOf("score"))
}
