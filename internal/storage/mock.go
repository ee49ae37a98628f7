package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/dukerupert/vanir/internal/domain"
)

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr and ExistsErr let tests inject backend failures.
	PutErr    error
	ExistsErr error
}

// NewMemoryStorage creates an empty in-memory content store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.URL(key), nil
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, domain.WrapSentinel(ErrArtifactNotFound, "memstorage.get", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStorage) URL(key string) string {
	return "memory://" + key
}

func (s *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}
