package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
	"github.com/margine-labs/margine-cli/internal/logger"
)

// Ensure AnnotationService implements the interface.
var _ driving.AnnotationService = (*AnnotationService)(nil)

// AnnotationService owns the canonical annotation collection for the
// open document plus the transient selection and highlight pointers.
// All state behind the mutex; store writes happen before the in-memory
// collection is touched, so a failed write never mutates it.
type AnnotationService struct {
	annotations driven.AnnotationStore
	audio       driven.AudioStore

	mu          sync.Mutex
	documentID  string
	collection  []domain.Annotation
	selected    *domain.Annotation
	highlighted string

	// highlightGen guards the timed clear: each call to
	// HighlightTemporarily bumps it, and the timer only clears the
	// pointer if no newer highlight superseded it in the meantime.
	highlightGen uint64
}

// NewAnnotationService creates a new annotation service.
func NewAnnotationService(annotations driven.AnnotationStore, audio driven.AudioStore) *AnnotationService {
	return &AnnotationService{
		annotations: annotations,
		audio:       audio,
	}
}

// LoadForDocument replaces the in-memory collection with the document's
// persisted annotations, audio blobs rehydrated.
func (s *AnnotationService) LoadForDocument(ctx context.Context, documentID string) error {
	anns, err := s.annotations.ListByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load annotations for document %s: %w", documentID, err)
	}

	for i := range anns {
		if anns[i].AudioMemo == nil {
			continue
		}
		// A bare memo reference without a stored blob is a valid state:
		// imports without audio keep the reference only.
		blob, err := s.audio.Get(ctx, anns[i].AudioMemo.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to load audio %s: %w", anns[i].AudioMemo.ID, err)
		}
		anns[i] = domain.AttachAudio(anns[i], blob)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = documentID
	s.collection = anns
	s.selected = nil
	s.highlighted = ""
	s.highlightGen++

	logger.Debug("loaded %d annotations for document %s", len(anns), documentID)
	return nil
}

// Create persists a new annotation. The audio blob, if any, is written
// before the metadata record that references it.
func (s *AnnotationService) Create(ctx context.Context, params driving.CreateAnnotationParams) (*domain.Annotation, error) {
	now := time.Now()
	ann := domain.Annotation{
		ID:           uuid.New().String(),
		DocumentID:   params.DocumentID,
		Location:     params.Location,
		SelectedText: params.SelectedText,
		TextContext:  params.TextContext,
		AudioMemo:    params.AudioMemo,
		Tags:         domain.NormalizeTags(params.Tags),
		Color:        params.Color,
		Notes:        params.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ann.Color == "" {
		ann.Color = domain.DefaultAnnotationColors[0]
	}
	if err := ann.Validate(); err != nil {
		return nil, err
	}

	if ann.AudioMemo != nil {
		if ann.AudioMemo.ID == "" {
			memo := *ann.AudioMemo
			memo.ID = uuid.New().String()
			ann.AudioMemo = &memo
		}
		stripped, blob := domain.SplitAudio(ann)
		if err := s.audio.Save(ctx, ann.AudioMemo.ID, blob); err != nil {
			return nil, fmt.Errorf("failed to save audio: %w", err)
		}
		if err := s.annotations.Save(ctx, &stripped); err != nil {
			return nil, fmt.Errorf("failed to save annotation: %w", err)
		}
	} else {
		if err := s.annotations.Save(ctx, &ann); err != nil {
			return nil, fmt.Errorf("failed to save annotation: %w", err)
		}
	}

	s.mu.Lock()
	if ann.DocumentID == s.documentID {
		s.collection = append(s.collection, ann)
	}
	s.mu.Unlock()

	logger.Debug("created annotation %s on document %s", ann.ID, ann.DocumentID)
	return &ann, nil
}

// Update re-persists an edited annotation. Location, SelectedText and
// CreatedAt always come from the stored record; a changed audio memo
// replaces the old blob.
func (s *AnnotationService) Update(ctx context.Context, a domain.Annotation) (*domain.Annotation, error) {
	existing, err := s.annotations.Get(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	a.DocumentID = existing.DocumentID
	a.Location = existing.Location
	a.SelectedText = existing.SelectedText
	a.TextContext = existing.TextContext
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	a.Tags = domain.NormalizeTags(a.Tags)
	if err := a.Validate(); err != nil {
		return nil, err
	}

	oldAudioID := ""
	if existing.AudioMemo != nil {
		oldAudioID = existing.AudioMemo.ID
	}

	if a.AudioMemo != nil {
		if a.AudioMemo.ID == "" {
			memo := *a.AudioMemo
			memo.ID = uuid.New().String()
			a.AudioMemo = &memo
		}
		if a.AudioMemo.Data != nil {
			_, blob := domain.SplitAudio(a)
			if err := s.audio.Save(ctx, a.AudioMemo.ID, blob); err != nil {
				return nil, fmt.Errorf("failed to save audio: %w", err)
			}
		}
	}
	if oldAudioID != "" && (a.AudioMemo == nil || a.AudioMemo.ID != oldAudioID) {
		if err := s.audio.Delete(ctx, oldAudioID); err != nil {
			return nil, fmt.Errorf("failed to delete audio %s: %w", oldAudioID, err)
		}
	}

	stripped, _ := domain.SplitAudio(a)
	if err := s.annotations.Save(ctx, &stripped); err != nil {
		return nil, fmt.Errorf("failed to save annotation: %w", err)
	}

	s.mu.Lock()
	for i := range s.collection {
		if s.collection[i].ID == a.ID {
			s.collection[i] = a
			break
		}
	}
	if s.selected != nil && s.selected.ID == a.ID {
		cp := a
		s.selected = &cp
	}
	s.mu.Unlock()

	logger.Debug("updated annotation %s", a.ID)
	return &a, nil
}

// Get retrieves a single annotation by ID, audio rehydrated.
func (s *AnnotationService) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	ann, err := s.annotations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ann.AudioMemo != nil {
		blob, err := s.audio.Get(ctx, ann.AudioMemo.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load audio %s: %w", ann.AudioMemo.ID, err)
		}
		hydrated := domain.AttachAudio(*ann, blob)
		return &hydrated, nil
	}
	return ann, nil
}

// Delete removes the annotation and its audio blob. The blob goes
// first so a partial failure never orphans it.
func (s *AnnotationService) Delete(ctx context.Context, id string) error {
	existing, err := s.annotations.Get(ctx, id)
	if err != nil {
		return err
	}

	if existing.AudioMemo != nil {
		if err := s.audio.Delete(ctx, existing.AudioMemo.ID); err != nil {
			return fmt.Errorf("failed to delete audio %s: %w", existing.AudioMemo.ID, err)
		}
	}
	if err := s.annotations.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete annotation %s: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.collection {
		if s.collection[i].ID == id {
			s.collection = append(s.collection[:i], s.collection[i+1:]...)
			break
		}
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
	if s.highlighted == id {
		s.highlighted = ""
		s.highlightGen++
	}
	s.mu.Unlock()

	logger.Debug("deleted annotation %s", id)
	return nil
}

// Annotations returns a copy of the in-memory collection in display
// order.
func (s *AnnotationService) Annotations() []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Annotation, len(s.collection))
	copy(out, s.collection)
	return out
}

// Filtered returns the collection narrowed by tags (OR semantics) and a
// case-insensitive substring query over selected text, notes and tags.
func (s *AnnotationService) Filtered(tags []string, query string) []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := domain.NormalizeTags(tags)
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Annotation, 0, len(s.collection))
	for _, ann := range s.collection {
		if len(wanted) > 0 && !hasAnyTag(ann.Tags, wanted) {
			continue
		}
		if q != "" && !matchesQuery(&ann, q) {
			continue
		}
		out = append(out, ann)
	}
	return out
}

func hasAnyTag(have, wanted []string) bool {
	for _, w := range wanted {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func matchesQuery(a *domain.Annotation, q string) bool {
	if strings.Contains(strings.ToLower(a.SelectedText), q) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Notes), q) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(tag, q) {
			return true
		}
	}
	return false
}

// SetSelected sets or clears the selected-annotation pointer.
func (s *AnnotationService) SetSelected(a *domain.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		s.selected = nil
		return
	}
	cp := *a
	s.selected = &cp
}

// Selected returns the selected annotation, or nil.
func (s *AnnotationService) Selected() *domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// SetHighlighted sets or clears the transient highlight pointer.
func (s *AnnotationService) SetHighlighted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlighted = id
	s.highlightGen++
}

// Highlighted returns the transiently highlighted annotation ID.
func (s *AnnotationService) Highlighted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlighted
}

// HighlightTemporarily sets the highlight pointer and clears it after
// the duration, unless a newer highlight superseded it.
func (s *AnnotationService) HighlightTemporarily(id string, duration time.Duration) {
	s.mu.Lock()
	s.highlighted = id
	s.highlightGen++
	gen := s.highlightGen
	s.mu.Unlock()

	time.AfterFunc(duration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.highlightGen == gen && s.highlighted == id {
			s.highlighted = ""
		}
	})
}

// AllTags returns every tag in the store, sorted.
func (s *AnnotationService) AllTags(ctx context.Context) ([]string, error) {
	anns, err := s.annotations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}

	seen := make(map[string]struct{})
	for i := range anns {
		for _, tag := range anns[i].Tags {
			seen[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
