package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

// Ensure AnnotationStore implements the interface.
var _ driven.AnnotationStore = (*AnnotationStore)(nil)

// AnnotationStore is an in-memory implementation of driven.AnnotationStore.
type AnnotationStore struct {
	mu          sync.RWMutex
	annotations map[string]domain.Annotation
}

// NewAnnotationStore creates a new in-memory annotation store.
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{annotations: make(map[string]domain.Annotation)}
}

// Save stores or updates an annotation metadata record. Any audio
// payload is stripped; only the reference is kept.
func (s *AnnotationStore) Save(_ context.Context, a *domain.Annotation) error {
	meta, _ := domain.SplitAudio(*a)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations[meta.ID] = meta
	return nil
}

// Get retrieves an annotation by ID, audio unhydrated.
func (s *AnnotationStore) Get(_ context.Context, id string) (*domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.annotations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// ListByDocument returns a document's annotations, oldest first.
func (s *AnnotationStore) ListByDocument(_ context.Context, documentID string) ([]domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Annotation
	for id := range s.annotations {
		if s.annotations[id].DocumentID == documentID {
			out = append(out, s.annotations[id])
		}
	}
	sortByCreation(out)
	return out, nil
}

// ListAll returns every annotation, oldest first.
func (s *AnnotationStore) ListAll(_ context.Context) ([]domain.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Annotation, 0, len(s.annotations))
	for id := range s.annotations {
		out = append(out, s.annotations[id])
	}
	sortByCreation(out)
	return out, nil
}

// Delete removes an annotation metadata record.
func (s *AnnotationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.annotations, id)
	return nil
}

// Count returns the number of stored annotations.
func (s *AnnotationStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.annotations), nil
}

// Clear removes every annotation record.
func (s *AnnotationStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations = make(map[string]domain.Annotation)
	return nil
}

func sortByCreation(anns []domain.Annotation) {
	sort.Slice(anns, func(i, j int) bool {
		return anns[i].CreatedAt.Before(anns[j].CreatedAt)
	})
}
