package driving

import (
	"context"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload validates and stores a new document. The format is
	// detected from the filename and cross-checked against the content.
	Upload(ctx context.Context, name string, content []byte, metadata *domain.DocumentMetadata) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document and cascades: every annotation
	// referencing it goes first (each taking its audio blob with it),
	// then the document record itself.
	Delete(ctx context.Context, documentID string) error

	// Usage reports record counts per storage collection.
	Usage(ctx context.Context) (*StorageUsage, error)

	// ClearAll wipes every collection: documents, annotations and audio
	// blobs. Dependents go first so an interruption never leaves records
	// pointing at missing documents.
	ClearAll(ctx context.Context) error
}

// StorageUsage is the per-collection record count report.
type StorageUsage struct {
	Documents   int
	Annotations int
	AudioFiles  int
}
