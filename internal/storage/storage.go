package storage

import (
	"context"
	"io"

	"github.com/floorworks/commerce/internal/config"
)

// Store is the object storage contract for generated purchase-order documents
// and trade-account document uploads, spec.md §6's object storage line.
type Store interface {
	// Put uploads content under key and returns its retrieval URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves an object by key. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a key without round-tripping the store.
	URL(key string) string

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the S3-compatible Store from config.StorageConfig. The same
// client works against AWS S3 or Cloudflare R2 (or any S3-compatible
// endpoint) depending on cfg.Endpoint, following the teacher's R2
// adapter rather than its separate stubbed S3/local implementations.
func New(cfg config.StorageConfig) (Store, error) {
	return newObjectStore(cfg)
}
