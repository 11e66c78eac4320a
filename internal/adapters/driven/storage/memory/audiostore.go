package memory

import (
	"context"
	"sync"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

// Ensure AudioStore implements the interface.
var _ driven.AudioStore = (*AudioStore)(nil)

// AudioStore is an in-memory implementation of driven.AudioStore.
type AudioStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewAudioStore creates a new in-memory audio blob store.
func NewAudioStore() *AudioStore {
	return &AudioStore{blobs: make(map[string][]byte)}
}

// Save stores or replaces a blob.
func (s *AudioStore) Save(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[id] = buf
	return nil
}

// Get retrieves a blob by ID.
func (s *AudioStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *AudioStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
	return nil
}

// Count returns the number of stored blobs.
func (s *AudioStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs), nil
}

// Clear removes every blob.
func (s *AudioStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string][]byte)
	return nil
}
