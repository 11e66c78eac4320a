package driven

import (
	"context"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// AnnotationStore persists annotation metadata records. Records cross
// this boundary in their blob-stripped form: the audio reference is
// {id, duration, mimeType} only, and the payload lives in AudioStore
// under the same ID. Rehydration on read is orchestrated by the
// annotation service.
type AnnotationStore interface {
	// Save stores or updates an annotation metadata record. Any audio
	// payload still attached is stripped before the write.
	Save(ctx context.Context, a *domain.Annotation) error

	// Get retrieves an annotation by ID, audio reference unhydrated.
	Get(ctx context.Context, id string) (*domain.Annotation, error)

	// ListByDocument returns a document's annotations sorted by
	// creation time ascending, the stable display order.
	ListByDocument(ctx context.Context, documentID string) ([]domain.Annotation, error)

	// ListAll returns every annotation sorted by creation time ascending.
	ListAll(ctx context.Context) ([]domain.Annotation, error)

	// Delete removes the metadata record only; the audio blob is the
	// caller's responsibility.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored annotations.
	Count(ctx context.Context) (int, error)

	// Clear removes every annotation record.
	Clear(ctx context.Context) error
}

// AudioStore persists audio blobs keyed by memo ID, separately from
// annotation metadata so metadata reads stay small.
type AudioStore interface {
	// Save stores or replaces a blob.
	Save(ctx context.Context, id string, data []byte) error

	// Get retrieves a blob by ID.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored blobs.
	Count(ctx context.Context) (int, error)

	// Clear removes every blob.
	Clear(ctx context.Context) error
}
