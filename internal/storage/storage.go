package storage

import (
	"context"
	"io"
)

// Uploader is the file-storage collaborator. Callers hand over bytes and get
// back a public URL; nothing else about the backing store leaks out.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, fileURL string) error
}
