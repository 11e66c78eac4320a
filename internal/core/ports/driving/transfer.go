package driving

import (
	"context"
	"time"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// ExportOptions scopes an export run.
type ExportOptions struct {
	// DocumentID limits the export to one document; empty exports all.
	DocumentID string

	// IncludeAudio inlines audio payloads as base64 data URIs. When
	// false the export carries bare audio references only.
	IncludeAudio bool
}

// ExportedDocument is a document in the exchange envelope. File bytes
// are never exported.
type ExportedDocument struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Format     domain.DocumentFormat    `json:"type"`
	UploadedAt time.Time                `json:"uploadedAt"`
	Metadata   *domain.DocumentMetadata `json:"metadata,omitempty"`
}

// ExportedAudioMemo is the audio reference in the envelope, optionally
// carrying the payload as a base64 data URI.
type ExportedAudioMemo struct {
	ID       string `json:"id"`
	Duration int    `json:"duration"`
	MIMEType string `json:"mimeType"`
	Data     string `json:"data,omitempty"`
}

// ExportedAnnotation is an annotation in the exchange envelope.
type ExportedAnnotation struct {
	ID           string                    `json:"id"`
	DocumentID   string                    `json:"documentId"`
	Location     domain.AnnotationLocation `json:"location"`
	SelectedText string                    `json:"selectedText"`
	TextContext  string                    `json:"textContext"`
	Tags         []string                  `json:"tags"`
	Color        string                    `json:"color"`
	Notes        string                    `json:"notes,omitempty"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
	AudioMemo    *ExportedAudioMemo        `json:"audioMemo,omitempty"`
}

// ExportData is the versioned exchange envelope.
type ExportData struct {
	Version     string               `json:"version"`
	ExportedAt  time.Time            `json:"exportedAt"`
	Documents   []ExportedDocument   `json:"documents"`
	Annotations []ExportedAnnotation `json:"annotations"`
}

// ValidationResult reports structural validation of an import file,
// with field-level errors and preview statistics.
type ValidationResult struct {
	Valid  bool
	Errors []string
	Data   *ExportData
	Stats  ImportStats
}

// ImportStats previews what an import file contains.
type ImportStats struct {
	Documents            int
	Annotations          int
	AnnotationsWithAudio int
}

// ImportResult summarises a completed import batch.
type ImportResult struct {
	Success             bool
	DocumentsImported   int
	AnnotationsImported int
	DocumentsSkipped    int
	AnnotationsSkipped  int
	Errors              []string
}

// TransferService is the export/import engine.
type TransferService interface {
	// Export gathers the scoped documents and annotations into an
	// envelope.
	Export(ctx context.Context, opts ExportOptions) (*ExportData, error)

	// ExportJSON serializes the envelope to an indented JSON document.
	ExportJSON(ctx context.Context, opts ExportOptions) ([]byte, error)

	// Validate parses and structurally validates raw import bytes
	// without mutating anything.
	Validate(data []byte) *ValidationResult

	// Import validates and applies an import file. Existing IDs are
	// skipped, per-record failures are collected, and the batch always
	// runs to completion.
	Import(ctx context.Context, data []byte) (*ImportResult, error)
}
