package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/dukerupert/vanir/internal/domain"
)

// LocalStorage implements Storage on the local filesystem, for development
// and single-node deployments.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a filesystem-backed content store rooted at
// basePath. Artifacts are served under baseURL.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, domain.Internal(err, "storage.new_local", "failed to create storage directory")
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// Put writes an artifact, creating parent directories as needed.
func (s *LocalStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	const op = "storage.put"

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", domain.Internal(err, op, "failed to create artifact directory")
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", domain.Internal(err, op, "failed to create artifact file")
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", domain.Internal(err, op, "failed to write artifact")
	}

	return s.URL(key), nil
}

// Get opens an artifact for reading.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "storage.get"

	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapSentinel(ErrArtifactNotFound, op, nil)
		}
		return nil, domain.Internal(err, op, "failed to open artifact")
	}

	return file, nil
}

// Delete removes an artifact if present.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return domain.Internal(err, "storage.delete", "failed to delete artifact")
	}

	return nil
}

// URL returns the serving URL for an artifact. Keys use forward slashes, so
// the URL is joined with path rather than filepath.
func (s *LocalStorage) URL(key string) string {
	return path.Join(s.baseURL, key)
}

// Exists reports whether the artifact file is present.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, domain.Internal(err, "storage.exists", "failed to check artifact")
	}

	return true, nil
}
