package catalog

import (
	"time"

	"datalens/domain/core"
)

// Record is the upload-history entry kept per loaded dataset. It stores
// shape and quality metadata only, never cell data.
type Record struct {
	ID               core.DatasetID `json:"id" db:"id"`
	OriginalFilename string         `json:"original_filename" db:"original_filename"`
	SheetName        string         `json:"sheet_name,omitempty" db:"sheet_name"`
	FileSize         int64          `json:"file_size" db:"file_size"`
	RowCount         int            `json:"row_count" db:"row_count"`
	ColumnCount      int            `json:"column_count" db:"column_count"`
	MissingRate      float64        `json:"missing_rate" db:"missing_rate"`
	UploadedAt       time.Time      `json:"uploaded_at" db:"uploaded_at"`
}

// NewRecord creates a record with a fresh ID and upload time
func NewRecord(filename, sheet string, size int64) *Record {
	return &Record{
		ID:               core.DatasetID(core.NewID()),
		OriginalFilename: filename,
		SheetName:        sheet,
		FileSize:         size,
		UploadedAt:       time.Now(),
	}
}
