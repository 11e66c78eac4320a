package driving

import (
	"context"
	"time"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// CreateAnnotationParams carries everything captured at selection time.
type CreateAnnotationParams struct {
	DocumentID   string
	Location     domain.AnnotationLocation
	SelectedText string
	TextContext  string
	AudioMemo    *domain.AudioMemo
	Tags         []string
	Color        string
	Notes        string
}

// AnnotationService owns the canonical annotation collection for the
// open document plus the transient selection and highlight pointers.
type AnnotationService interface {
	// LoadForDocument replaces the in-memory collection with the
	// document's persisted annotations, audio blobs rehydrated.
	LoadForDocument(ctx context.Context, documentID string) error

	// Create persists a new annotation. The audio blob, if any, is
	// written before the metadata record that references it.
	Create(ctx context.Context, params CreateAnnotationParams) (*domain.Annotation, error)

	// Update re-persists an edited annotation, bumping UpdatedAt.
	// Location, SelectedText and CreatedAt are immutable and taken from
	// the existing record. A changed audio memo replaces the old blob.
	Update(ctx context.Context, a domain.Annotation) (*domain.Annotation, error)

	// Get retrieves a single annotation by ID, audio rehydrated.
	Get(ctx context.Context, id string) (*domain.Annotation, error)

	// Delete removes the annotation and its audio blob.
	Delete(ctx context.Context, id string) error

	// Annotations returns the in-memory collection in display order.
	Annotations() []domain.Annotation

	// Filtered returns the collection narrowed by tags (OR semantics)
	// and a case-insensitive substring query over selected text, notes
	// and tags. Non-mutating.
	Filtered(tags []string, query string) []domain.Annotation

	// SetSelected sets or clears the selected-annotation pointer.
	SetSelected(a *domain.Annotation)

	// Selected returns the selected annotation, or nil.
	Selected() *domain.Annotation

	// SetHighlighted sets or clears the transient highlight pointer.
	SetHighlighted(id string)

	// Highlighted returns the transiently highlighted annotation ID.
	Highlighted() string

	// HighlightTemporarily sets the highlight pointer and clears it
	// after the duration, unless a newer highlight superseded it.
	HighlightTemporarily(id string, duration time.Duration)

	// AllTags returns every tag in the store, sorted.
	AllTags(ctx context.Context) ([]string, error)
}
