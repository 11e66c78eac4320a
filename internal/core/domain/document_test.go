package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_PDF(t *testing.T) {
	format, err := DetectFormat("script.pdf", []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
}

func TestDetectFormat_PDFBadHeader(t *testing.T) {
	_, err := DetectFormat("script.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat_EPUB(t *testing.T) {
	format, err := DetectFormat("novel.epub", []byte("PK\x03\x04..."))
	require.NoError(t, err)
	assert.Equal(t, FormatEPUB, format)
}

func TestDetectFormat_UnknownExtension(t *testing.T) {
	_, err := DetectFormat("notes.txt", []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat_CaseInsensitiveExtension(t *testing.T) {
	format, err := DetectFormat("SCRIPT.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
}

func TestDocumentValidate_Valid(t *testing.T) {
	doc := &Document{
		ID:      "doc-1",
		Name:    "script.pdf",
		Format:  FormatPDF,
		Content: []byte("%PDF-1.7"),
	}
	assert.NoError(t, doc.Validate())
}

func TestDocumentValidate_MissingName(t *testing.T) {
	doc := &Document{ID: "doc-1", Format: FormatPDF}
	assert.ErrorIs(t, doc.Validate(), ErrInvalidInput)
}

func TestDocumentValidate_BadFormat(t *testing.T) {
	doc := &Document{ID: "doc-1", Name: "x", Format: "docx"}
	assert.ErrorIs(t, doc.Validate(), ErrUnsupportedFormat)
}

func TestDocumentValidate_TooLarge(t *testing.T) {
	doc := &Document{
		ID:      "doc-1",
		Name:    "big.pdf",
		Format:  FormatPDF,
		Content: bytes.Repeat([]byte{0}, MaxDocumentSize+1),
	}
	assert.ErrorIs(t, doc.Validate(), ErrInvalidInput)
}
