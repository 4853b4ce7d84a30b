package ports

import (
	"context"
	"io"
)

// FileStorage persists uploaded files for the duration of a session so
// Excel sheets can be re-read after the sheet-selection step.
type FileStorage interface {
	Store(ctx context.Context, file io.Reader, filename string) (string, error)
	GetReader(ctx context.Context, filePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, filePath string) error
}
