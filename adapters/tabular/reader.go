package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datalens/domain/table"

	"github.com/xuri/excelize/v2"
)

// FileReader reads CSV and Excel files into the table model
type FileReader struct {
	filePath string
	source   io.Reader
	fileType string // "xlsx" or "csv"
}

// NewFileReader creates a reader for the given file path, dispatching on
// extension
func NewFileReader(filePath string) *FileReader {
	return &FileReader{filePath: filePath, fileType: fileTypeFor(filePath)}
}

// NewReader creates a reader over an already-open stream, such as one handed
// out by the file storage port. The filename only selects the format. A
// stream is consumed once: callers needing both Sheets and Read open it
// twice.
func NewReader(src io.Reader, filename string) *FileReader {
	return &FileReader{source: src, fileType: fileTypeFor(filename)}
}

func fileTypeFor(name string) string {
	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		return "csv"
	}
	return "xlsx"
}

// IsSupportedFilename reports whether a filename carries a loadable extension
func IsSupportedFilename(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Sheets lists the sheet names of an Excel file. CSV files have no sheets
// and return nil.
func (r *FileReader) Sheets() ([]string, error) {
	if r.fileType == "csv" {
		return nil, nil
	}
	f, err := r.openExcel()
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (r *FileReader) openExcel() (*excelize.File, error) {
	if r.source != nil {
		return excelize.OpenReader(r.source)
	}
	return excelize.OpenFile(r.filePath)
}

// Read loads the file into a Table. For Excel, sheet selects the worksheet;
// an empty sheet name loads the first sheet. CSV ignores the sheet argument.
func (r *FileReader) Read(sheet string) (*table.Table, error) {
	if r.source == nil {
		if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
		}
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel(sheet)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *FileReader) readExcel(sheet string) (*table.Table, error) {
	startTime := time.Now()
	f, err := r.openExcel()
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	log.Printf("[FileReader] Sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q must have at least a header row and one data row", sheet)
	}

	return r.processRows(rows)
}

func (r *FileReader) readCSV() (*table.Table, error) {
	src := r.source
	if src == nil {
		file, err := os.Open(r.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		src = file
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // ragged rows are padded with missing cells
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[FileReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into the Table model and runs type
// inference over the result.
func (r *FileReader) processRows(rows [][]string) (*table.Table, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		h := strings.TrimSpace(header)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}

	dataRows := make([]table.Row, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(table.Row, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	t := &table.Table{
		Headers: headers,
		Rows:    dataRows,
	}
	t.Types = InferColumnTypes(t)

	log.Printf("[FileReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return t, nil
}
