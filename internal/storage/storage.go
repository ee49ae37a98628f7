// Package storage is the content store for generated artifacts, primarily
// invoice PDFs and email templates. Backends share one interface so the
// worker runs against the local filesystem in development and S3 (or any
// S3-compatible store) in production.
package storage

import (
	"context"
	"io"
)

// Storage stores and retrieves artifacts by key.
type Storage interface {
	// Put stores an artifact and returns its URL. Overwrites are allowed:
	// re-rendering an invoice for the same order must converge, not fail.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves an artifact. The caller closes the reader.
	// Returns ErrArtifactNotFound if the key is absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an artifact. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a stored artifact.
	URL(key string) string

	// Exists reports whether an artifact is present at the key.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a storage backend.
type Config struct {
	// Provider is "local" or "s3". Empty defaults to local.
	Provider string

	LocalPath string
	LocalURL  string

	Bucket      string
	Region      string
	AccessKeyID string
	SecretKey   string

	// Endpoint overrides the S3 endpoint for S3-compatible stores such as
	// Cloudflare R2 or MinIO. Empty uses AWS.
	Endpoint string

	// PublicURL, when set, is the CDN or public base URL artifacts are
	// served from.
	PublicURL string
}

// NewStorage builds a Storage from configuration.
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
