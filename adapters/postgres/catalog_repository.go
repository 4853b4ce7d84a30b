package postgres

import (
	"context"
	"fmt"

	"datalens/domain/catalog"
	"datalens/ports"

	"github.com/jmoiron/sqlx"
)

// catalogRepository implements the CatalogRepository interface
type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new upload-catalog repository
func NewCatalogRepository(db *sqlx.DB) ports.CatalogRepository {
	return &catalogRepository{db: db}
}

// EnsureSchema creates the uploads table when it does not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		original_filename TEXT NOT NULL,
		sheet_name TEXT NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		column_count INTEGER NOT NULL DEFAULT 0,
		missing_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create uploads table: %w", err)
	}
	return nil
}

// Create inserts a new upload record
func (r *catalogRepository) Create(ctx context.Context, record *catalog.Record) error {
	query := `INSERT INTO uploads (
		id, original_filename, sheet_name, file_size, row_count, column_count,
		missing_rate, uploaded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.OriginalFilename, record.SheetName, record.FileSize,
		record.RowCount, record.ColumnCount, record.MissingRate, record.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload record: %w", err)
	}
	return nil
}

// ListRecent returns the most recent upload records, newest first
func (r *catalogRepository) ListRecent(ctx context.Context, limit int) ([]*catalog.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, original_filename, sheet_name, file_size, row_count,
		column_count, missing_rate, uploaded_at
	FROM uploads
	ORDER BY uploaded_at DESC
	LIMIT $1`

	var records []*catalog.Record
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query upload records: %w", err)
	}
	return records, nil
}
