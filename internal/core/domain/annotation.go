package domain

import (
	"fmt"
	"strings"
	"time"
)

// AnnotationLocation is the discriminated anchor for an annotated span.
// Paginated documents populate Page; reflowable documents populate CFI.
// Exactly one addressing scheme is set per document format. Offsets are
// rune offsets into the locally extracted text of that page or section,
// never into the original file bytes.
type AnnotationLocation struct {
	// Page is the 1-based page number for PDF documents.
	Page int `json:"page,omitempty"`

	// CFI is the structural fragment identifier for EPUB documents.
	CFI string `json:"cfi,omitempty"`

	// StartOffset is the rune offset of the selection start.
	StartOffset int `json:"startOffset"`

	// EndOffset is the rune offset just past the selection end.
	EndOffset int `json:"endOffset"`
}

// Validate checks the location against the owning document's format.
func (l AnnotationLocation) Validate(format DocumentFormat) error {
	switch format {
	case FormatPDF:
		if l.Page < 1 {
			return fmt.Errorf("%w: pdf location requires a page number", ErrInvalidInput)
		}
		if l.CFI != "" {
			return fmt.Errorf("%w: pdf location must not carry a cfi", ErrInvalidInput)
		}
	case FormatEPUB:
		if l.CFI == "" {
			return fmt.Errorf("%w: epub location requires a cfi", ErrInvalidInput)
		}
		if l.Page != 0 {
			return fmt.Errorf("%w: epub location must not carry a page number", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if l.StartOffset < 0 || l.EndOffset < l.StartOffset {
		return fmt.Errorf("%w: offsets out of order", ErrInvalidInput)
	}
	return nil
}

// AudioMemo is a voice recording exclusively owned by one annotation.
// The metadata record persisted alongside the annotation carries only
// ID, Duration and MIMEType; the payload is keyed separately by ID.
type AudioMemo struct {
	// ID keys both the reference and the stored blob.
	ID string `json:"id"`

	// Data is the encoded audio payload. Nil in the stripped metadata
	// form persisted with the annotation record.
	Data []byte `json:"-"`

	// Duration is the recording length in whole seconds.
	Duration int `json:"duration"`

	// MIMEType is the encoding of the payload, e.g. "audio/webm".
	MIMEType string `json:"mimeType"`
}

// Annotation is the canonical record of a user note anchored to a span
// of document text. SelectedText is the source of truth for later
// re-matching and is never mutated; Location and SelectedText are
// immutable after creation.
type Annotation struct {
	// ID is the unique identifier for the annotation.
	ID string `json:"id"`

	// DocumentID links to the owning Document. Deleting the document
	// cascades to every annotation referencing it.
	DocumentID string `json:"documentId"`

	// Location is the discriminated text anchor.
	Location AnnotationLocation `json:"location"`

	// SelectedText is the verbatim text the user selected.
	SelectedText string `json:"selectedText"`

	// TextContext is a window of surrounding characters captured at
	// creation time, used only to disambiguate duplicate occurrences.
	TextContext string `json:"textContext"`

	// AudioMemo is the optional voice recording.
	AudioMemo *AudioMemo `json:"audioMemo,omitempty"`

	// Tags is the ordered, deduplicated, lowercased tag set.
	Tags []string `json:"tags"`

	// Color is the highlight color, as a hex string.
	Color string `json:"color"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is set once at creation.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is bumped on every edit.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the invariants an annotation must satisfy before it
// is persisted. The location is validated by the service against the
// owning document's format, which is not known here.
func (a *Annotation) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: annotation id is required", ErrInvalidInput)
	}
	if a.DocumentID == "" {
		return fmt.Errorf("%w: annotation requires a document id", ErrInvalidInput)
	}
	if strings.TrimSpace(a.SelectedText) == "" {
		return fmt.Errorf("%w: selected text must not be empty", ErrInvalidInput)
	}
	return nil
}

// DefaultAnnotationColors is the palette offered for new annotations.
// The first entry is the default.
var DefaultAnnotationColors = []string{
	"#cb3158", // stage red
	"#f59e0b", // amber
	"#10b981", // emerald
	"#3b82f6", // blue
	"#8b5cf6", // purple
	"#ec4899", // pink
}

// NormalizeTags trims, lowercases and deduplicates tags, preserving
// first-seen order. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitAudio is the pure transform applied at the persistence boundary:
// it returns the annotation in its stripped metadata form (audio payload
// removed, reference retained) together with the blob to store under the
// memo's ID. The blob is nil when the annotation has no memo.
func SplitAudio(a Annotation) (Annotation, []byte) {
	if a.AudioMemo == nil {
		return a, nil
	}
	blob := a.AudioMemo.Data
	ref := *a.AudioMemo
	ref.Data = nil
	a.AudioMemo = &ref
	return a, blob
}

// AttachAudio is the inverse of SplitAudio: it rehydrates the stripped
// metadata form with the blob read back from the audio store. A nil
// memo reference leaves the annotation unchanged.
func AttachAudio(a Annotation, blob []byte) Annotation {
	if a.AudioMemo == nil {
		return a
	}
	memo := *a.AudioMemo
	memo.Data = blob
	a.AudioMemo = &memo
	return a
}
