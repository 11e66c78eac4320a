package driven

import (
	"context"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// DocumentStore persists uploaded documents, file bytes included.
type DocumentStore interface {
	// Save stores or updates a document.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID, including its content bytes.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents sorted by upload time descending,
	// newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes the document record. Cascading to annotations and
	// audio blobs is orchestrated by the document service, which deletes
	// dependents first so an interruption never strands orphaned blobs.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Clear removes every document record.
	Clear(ctx context.Context) error
}

// HealthChecker reports whether the storage engine behind the stores is
// usable. A restrictive storage mode surfaces as
// domain.ErrStorageUnavailable so the UI layer can warn the user.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
