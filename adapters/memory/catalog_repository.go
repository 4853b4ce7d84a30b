package memory

import (
	"context"
	"sync"

	"datalens/domain/catalog"
	"datalens/ports"
)

// catalogRepository is the in-memory fallback used when no database is
// configured. History survives for the life of the process only.
type catalogRepository struct {
	mu      sync.RWMutex
	records []*catalog.Record
}

// NewCatalogRepository creates an in-memory upload-catalog repository
func NewCatalogRepository() ports.CatalogRepository {
	return &catalogRepository{}
}

func (r *catalogRepository) Create(ctx context.Context, record *catalog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Newest first
	r.records = append([]*catalog.Record{record}, r.records...)
	return nil
}

func (r *catalogRepository) ListRecent(ctx context.Context, limit int) ([]*catalog.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	if limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]*catalog.Record, limit)
	copy(out, r.records[:limit])
	return out, nil
}
