package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
	"github.com/margine-labs/margine-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the uploaded document collection.
type DocumentService struct {
	documents   driven.DocumentStore
	annotations driven.AnnotationStore
	audio       driven.AudioStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	documents driven.DocumentStore,
	annotations driven.AnnotationStore,
	audio driven.AudioStore,
) *DocumentService {
	return &DocumentService{
		documents:   documents,
		annotations: annotations,
		audio:       audio,
	}
}

// Upload validates and stores a new document.
func (s *DocumentService) Upload(ctx context.Context, name string, content []byte, metadata *domain.DocumentMetadata) (*domain.Document, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}

	format, err := domain.DetectFormat(name, content)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:         uuid.New().String(),
		Name:       name,
		Format:     format,
		Content:    content,
		UploadedAt: time.Now(),
		Metadata:   metadata,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	logger.Debug("uploaded document %s (%s, %d bytes)", doc.ID, doc.Format, len(content))
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.documents.Get(ctx, documentID)
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.documents.List(ctx)
}

// Delete removes a document and everything hanging off it. Annotations
// go first, each deleting its audio blob before its metadata record, so
// a partial failure never leaves a blob without an owner.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return err
	}

	anns, err := s.annotations.ListByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list annotations for document %s: %w", documentID, err)
	}

	for i := range anns {
		if anns[i].AudioMemo != nil {
			if err := s.audio.Delete(ctx, anns[i].AudioMemo.ID); err != nil {
				return fmt.Errorf("failed to delete audio %s: %w", anns[i].AudioMemo.ID, err)
			}
		}
		if err := s.annotations.Delete(ctx, anns[i].ID); err != nil {
			return fmt.Errorf("failed to delete annotation %s: %w", anns[i].ID, err)
		}
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	logger.Debug("deleted document %s and %d annotations", documentID, len(anns))
	return nil
}

// Usage reports record counts per storage collection.
func (s *DocumentService) Usage(ctx context.Context) (*driving.StorageUsage, error) {
	docs, err := s.documents.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	anns, err := s.annotations.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count annotations: %w", err)
	}
	audio, err := s.audio.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count audio blobs: %w", err)
	}
	return &driving.StorageUsage{
		Documents:   docs,
		Annotations: anns,
		AudioFiles:  audio,
	}, nil
}

// ClearAll wipes every collection, dependents first.
func (s *DocumentService) ClearAll(ctx context.Context) error {
	if err := s.audio.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear audio blobs: %w", err)
	}
	if err := s.annotations.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear annotations: %w", err)
	}
	if err := s.documents.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	logger.Debug("cleared all collections")
	return nil
}
