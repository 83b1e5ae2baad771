package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/triggsmt67-cmd/unitedformulas-chemist/internal/blob"
)

// MemoryBlobStore is an in-memory blob.Store for tests.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailList, FailDownload force errors to exercise degradation paths.
	FailList     bool
	FailDownload bool
}

var _ blob.Store = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore creates a store seeded with the given objects.
func NewMemoryBlobStore(objects map[string][]byte) *MemoryBlobStore {
	if objects == nil {
		objects = make(map[string][]byte)
	}
	return &MemoryBlobStore{objects: objects}
}

// Put adds or replaces an object.
func (s *MemoryBlobStore) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
}

// List returns all object names.
func (s *MemoryBlobStore) List(ctx context.Context) ([]string, error) {
	if s.FailList {
		return nil, fmt.Errorf("list: forced failure")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	return names, nil
}

// Download returns the bytes of a named object.
func (s *MemoryBlobStore) Download(ctx context.Context, name string) ([]byte, error) {
	if s.FailDownload {
		return nil, fmt.Errorf("download %s: forced failure", name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("download %s: object not found", name)
	}
	return data, nil
}
