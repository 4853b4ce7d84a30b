package ports

import (
	"context"

	"datalens/domain/catalog"
)

// CatalogRepository records upload-history entries. Implementations:
// postgres when DATABASE_URL is configured, in-memory otherwise.
type CatalogRepository interface {
	Create(ctx context.Context, record *catalog.Record) error
	ListRecent(ctx context.Context, limit int) ([]*catalog.Record, error)
}
