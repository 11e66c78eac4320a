package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
	"github.com/margine-labs/margine-cli/internal/logger"
)

// ExportVersion is the version stamped into every export envelope.
// Imports accept any envelope with the same major version.
const ExportVersion = "1.3.0"

// defaultAudioMIME is assumed when an imported data URI carries no
// recognizable MIME type.
const defaultAudioMIME = "audio/webm"

// Ensure TransferService implements the interface.
var _ driving.TransferService = (*TransferService)(nil)

// TransferService implements versioned JSON export and import of
// documents and annotations. Document file bytes never cross the
// boundary; audio payloads travel as base64 data URIs when requested.
type TransferService struct {
	documents   driven.DocumentStore
	annotations driven.AnnotationStore
	audio       driven.AudioStore
}

// NewTransferService creates a new transfer service.
func NewTransferService(
	documents driven.DocumentStore,
	annotations driven.AnnotationStore,
	audio driven.AudioStore,
) *TransferService {
	return &TransferService{
		documents:   documents,
		annotations: annotations,
		audio:       audio,
	}
}

// Export gathers the scoped documents and annotations into an envelope.
func (s *TransferService) Export(ctx context.Context, opts driving.ExportOptions) (*driving.ExportData, error) {
	var docs []domain.Document
	if opts.DocumentID != "" {
		doc, err := s.documents.Get(ctx, opts.DocumentID)
		if err != nil {
			return nil, err
		}
		docs = []domain.Document{*doc}
	} else {
		all, err := s.documents.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		docs = all
	}

	data := &driving.ExportData{
		Version:     ExportVersion,
		ExportedAt:  time.Now(),
		Documents:   make([]driving.ExportedDocument, 0, len(docs)),
		Annotations: []driving.ExportedAnnotation{},
	}

	for i := range docs {
		data.Documents = append(data.Documents, driving.ExportedDocument{
			ID:         docs[i].ID,
			Name:       docs[i].Name,
			Format:     docs[i].Format,
			UploadedAt: docs[i].UploadedAt,
			Metadata:   docs[i].Metadata,
		})

		anns, err := s.annotations.ListByDocument(ctx, docs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list annotations for document %s: %w", docs[i].ID, err)
		}
		for j := range anns {
			exported, err := s.exportAnnotation(ctx, &anns[j], opts.IncludeAudio)
			if err != nil {
				return nil, err
			}
			data.Annotations = append(data.Annotations, *exported)
		}
	}

	logger.Debug("exported %d documents, %d annotations", len(data.Documents), len(data.Annotations))
	return data, nil
}

func (s *TransferService) exportAnnotation(ctx context.Context, a *domain.Annotation, includeAudio bool) (*driving.ExportedAnnotation, error) {
	out := &driving.ExportedAnnotation{
		ID:           a.ID,
		DocumentID:   a.DocumentID,
		Location:     a.Location,
		SelectedText: a.SelectedText,
		TextContext:  a.TextContext,
		Tags:         a.Tags,
		Color:        a.Color,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if a.AudioMemo == nil {
		return out, nil
	}

	memo := &driving.ExportedAudioMemo{
		ID:       a.AudioMemo.ID,
		Duration: a.AudioMemo.Duration,
		MIMEType: a.AudioMemo.MIMEType,
	}
	if includeAudio {
		blob, err := s.audio.Get(ctx, a.AudioMemo.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load audio %s: %w", a.AudioMemo.ID, err)
		}
		if len(blob) > 0 {
			memo.Data = encodeDataURI(blob, memo.MIMEType)
		}
	}
	out.AudioMemo = memo
	return out, nil
}

// ExportJSON serializes the envelope to an indented JSON document.
func (s *TransferService) ExportJSON(ctx context.Context, opts driving.ExportOptions) ([]byte, error) {
	data, err := s.Export(ctx, opts)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	return out, nil
}

// ExportFilename builds the suggested filename for an export created
// now, e.g. "margine-export-all-2026-08-31T10-00-00.json". A non-empty
// documentID marks the file as a single-document export.
func ExportFilename(now time.Time, documentID string) string {
	stamp := now.Format("2006-01-02T15-04-05")
	if documentID != "" {
		return fmt.Sprintf("margine-export-document-%s.json", stamp)
	}
	return fmt.Sprintf("margine-export-all-%s.json", stamp)
}

// Validate parses and structurally validates raw import bytes without
// mutating anything.
func (s *TransferService) Validate(raw []byte) *driving.ValidationResult {
	result := &driving.ValidationResult{}

	// Shape first: required top-level fields present, arrays where the
	// envelope expects arrays. A broken shape makes the typed unmarshal
	// below meaningless, so shape errors return early.
	var shape struct {
		Version     string          `json:"version"`
		ExportedAt  json.RawMessage `json:"exportedAt"`
		Documents   json.RawMessage `json:"documents"`
		Annotations json.RawMessage `json:"annotations"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid JSON: %v", err))
		return result
	}

	if shape.Version == "" {
		result.Errors = append(result.Errors, "missing version")
	} else if err := checkVersion(shape.Version); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if jsonAbsent(shape.ExportedAt) {
		result.Errors = append(result.Errors, "missing exportedAt")
	}
	for _, field := range []struct {
		name string
		raw  json.RawMessage
	}{
		{"documents", shape.Documents},
		{"annotations", shape.Annotations},
	} {
		switch {
		case jsonAbsent(field.raw):
			result.Errors = append(result.Errors, "missing "+field.name)
		case !jsonArray(field.raw):
			result.Errors = append(result.Errors, field.name+" is not an array")
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	var data driving.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid JSON: %v", err))
		return result
	}

	for i := range data.Documents {
		d := &data.Documents[i]
		if d.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("document %d: missing id", i))
		}
		if d.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("document %d: missing name", i))
		}
		if !d.Format.Valid() {
			result.Errors = append(result.Errors, fmt.Sprintf("document %d: unsupported type %q", i, d.Format))
		}
	}

	for i := range data.Annotations {
		a := &data.Annotations[i]
		if a.ID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("annotation %d: missing id", i))
		}
		if a.DocumentID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("annotation %d: missing document id", i))
		}
		if strings.TrimSpace(a.SelectedText) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("annotation %d: missing selected text", i))
		}
		if a.AudioMemo != nil && a.AudioMemo.Data != "" {
			result.Stats.AnnotationsWithAudio++
		}
	}

	result.Stats.Documents = len(data.Documents)
	result.Stats.Annotations = len(data.Annotations)
	result.Valid = len(result.Errors) == 0
	if result.Valid {
		result.Data = &data
	}
	return result
}

// Import validates and applies an import file. Records whose ID already
// exists are skipped, per-record failures are collected, and the batch
// always runs to completion.
func (s *TransferService) Import(ctx context.Context, raw []byte) (*driving.ImportResult, error) {
	validation := s.Validate(raw)
	if !validation.Valid {
		return &driving.ImportResult{Errors: validation.Errors}, fmt.Errorf("%w: import file failed validation", domain.ErrInvalidInput)
	}
	data := validation.Data

	result := &driving.ImportResult{}

	for i := range data.Documents {
		d := &data.Documents[i]
		if _, err := s.documents.Get(ctx, d.ID); err == nil {
			result.DocumentsSkipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("document %s: %v", d.ID, err))
			continue
		}

		doc := &domain.Document{
			ID:         d.ID,
			Name:       d.Name,
			Format:     d.Format,
			UploadedAt: d.UploadedAt,
			Metadata:   d.Metadata,
		}
		if err := s.documents.Save(ctx, doc); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("document %s: %v", d.ID, err))
			continue
		}
		result.DocumentsImported++
	}

	for i := range data.Annotations {
		a := &data.Annotations[i]
		if _, err := s.annotations.Get(ctx, a.ID); err == nil {
			result.AnnotationsSkipped++
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("annotation %s: %v", a.ID, err))
			continue
		}

		if err := s.importAnnotation(ctx, a); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("annotation %s: %v", a.ID, err))
			continue
		}
		result.AnnotationsImported++
	}

	result.Success = len(result.Errors) == 0
	logger.Debug("import: %d documents, %d annotations, %d skipped, %d errors",
		result.DocumentsImported, result.AnnotationsImported,
		result.DocumentsSkipped+result.AnnotationsSkipped, len(result.Errors))
	return result, nil
}

func (s *TransferService) importAnnotation(ctx context.Context, a *driving.ExportedAnnotation) error {
	ann := domain.Annotation{
		ID:           a.ID,
		DocumentID:   a.DocumentID,
		Location:     a.Location,
		SelectedText: a.SelectedText,
		TextContext:  a.TextContext,
		Tags:         domain.NormalizeTags(a.Tags),
		Color:        a.Color,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.AudioMemo != nil {
		memo := &domain.AudioMemo{
			ID:       a.AudioMemo.ID,
			Duration: a.AudioMemo.Duration,
			MIMEType: a.AudioMemo.MIMEType,
		}
		if a.AudioMemo.Data != "" {
			blob, mime, err := decodeDataURI(a.AudioMemo.Data)
			if err != nil {
				return fmt.Errorf("failed to decode audio: %w", err)
			}
			if memo.MIMEType == "" {
				memo.MIMEType = mime
			}
			if err := s.audio.Save(ctx, memo.ID, blob); err != nil {
				return fmt.Errorf("failed to save audio: %w", err)
			}
		}
		ann.AudioMemo = memo
	}

	return s.annotations.Save(ctx, &ann)
}

// checkVersion accepts any envelope whose major version matches the
// current writer.
func checkVersion(version string) error {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return fmt.Errorf("%w: malformed version %q", domain.ErrUnsupportedVersion, version)
	}
	current, _, _ := strings.Cut(ExportVersion, ".")
	want, _ := strconv.Atoi(current)
	if n > want {
		return fmt.Errorf("%w: file version %s is newer than supported %s", domain.ErrUnsupportedVersion, version, ExportVersion)
	}
	return nil
}

// jsonAbsent reports whether a raw field was missing or null.
func jsonAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func jsonArray(raw json.RawMessage) bool {
	return strings.HasPrefix(strings.TrimSpace(string(raw)), "[")
}

func encodeDataURI(blob []byte, mime string) string {
	if mime == "" {
		mime = defaultAudioMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob)
}

func decodeDataURI(uri string) ([]byte, string, error) {
	payload := uri
	mime := defaultAudioMIME
	if strings.HasPrefix(uri, "data:") {
		header, rest, ok := strings.Cut(uri[len("data:"):], ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: malformed data uri", domain.ErrInvalidInput)
		}
		payload = rest
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
	}
	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64 audio payload", domain.ErrInvalidInput)
	}
	return blob, mime, nil
}
