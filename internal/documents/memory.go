package documents

import (
	"context"
	"sync"

	"landledger/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in process memory for development and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string]Blob)}
}

func (s *InMemoryStore) Put(_ context.Context, handle, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[handle]; exists {
		return sentinel.ErrConflict
	}
	s.blobs[handle] = Blob{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, handle string) (*Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[handle]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &Blob{Data: append([]byte(nil), b.Data...), ContentType: b.ContentType}, nil
}

func (s *InMemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, handle)
	return nil
}

// Len reports how many documents are held.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
