package domain

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DocumentFormat discriminates how a document is rendered and anchored.
// Paginated formats address text by page number; reflowable formats by
// structural fragment identifier.
type DocumentFormat string

const (
	// FormatPDF is paginated content addressed by page number.
	FormatPDF DocumentFormat = "pdf"

	// FormatEPUB is reflowable content addressed by CFI.
	FormatEPUB DocumentFormat = "epub"
)

// Valid reports whether the format is a known discriminator value.
func (f DocumentFormat) Valid() bool {
	return f == FormatPDF || f == FormatEPUB
}

// MaxDocumentSize caps uploads. Larger files are rejected before any
// storage write happens.
const MaxDocumentSize = 50 << 20

// DocumentMetadata carries optional descriptive fields extracted at
// upload time.
type DocumentMetadata struct {
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	TotalPages int    `json:"totalPages,omitempty"`
}

// Document represents an uploaded PDF or EPUB.
// The record is the exclusive owner of the raw file bytes; they are
// never duplicated into other records and never exported.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Name is the display name, usually the uploaded filename.
	Name string `json:"name"`

	// Format discriminates the anchoring scheme for this document.
	Format DocumentFormat `json:"type"`

	// Content holds the raw file bytes.
	Content []byte `json:"-"`

	// UploadedAt is when the document was stored.
	UploadedAt time.Time `json:"uploadedAt"`

	// Metadata carries optional title/author/page-count information.
	Metadata *DocumentMetadata `json:"metadata,omitempty"`
}

// Validate checks the invariants a document must satisfy before it is
// persisted.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	if !d.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, d.Format)
	}
	if len(d.Content) > MaxDocumentSize {
		return fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidInput, MaxDocumentSize)
	}
	return nil
}

var pdfMagic = []byte("%PDF-")

// DetectFormat determines the document format from the filename
// extension, cross-checked against the file header when content is
// available. EPUB files are ZIP containers, so the check is the PK
// signature rather than a dedicated magic number.
func DetectFormat(name string, content []byte) (DocumentFormat, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		if len(content) > 0 && !bytes.HasPrefix(content, pdfMagic) {
			return "", fmt.Errorf("%w: %s does not look like a PDF", ErrUnsupportedFormat, name)
		}
		return FormatPDF, nil
	case ".epub":
		if len(content) > 0 && !bytes.HasPrefix(content, []byte("PK")) {
			return "", fmt.Errorf("%w: %s does not look like an EPUB", ErrUnsupportedFormat, name)
		}
		return FormatEPUB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
