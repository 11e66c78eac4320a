package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/margine-labs/margine-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to the
// document, annotation and audio store interfaces through wrapper
// types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.margine/data/margine.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".margine", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "margine.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable and writable. An unusable
// engine surfaces as domain.ErrStorageUnavailable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// AnnotationStore returns an AnnotationStore interface backed by this store.
func (s *Store) AnnotationStore() driven.AnnotationStore {
	return &annotationStore{store: s}
}

// AudioStore returns an AudioStore interface backed by this store.
func (s *Store) AudioStore() driven.AudioStore {
	return &audioStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Save stores or updates a document.
func (s *documentStore) Save(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, format, content, uploaded_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			format = excluded.format,
			content = excluded.content,
			uploaded_at = excluded.uploaded_at,
			metadata = excluded.metadata
	`, doc.ID, doc.Name, string(doc.Format), doc.Content, doc.UploadedAt.UTC(), string(metadataJSON))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, format, content, uploaded_at, metadata
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// List returns all documents, newest first.
func (s *documentStore) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, format, content, uploaded_at, metadata
		FROM documents ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Delete removes a document record.
func (s *documentStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *documentStore) Count(ctx context.Context) (int, error) {
	return s.store.count(ctx, "documents")
}

// Clear removes every document record.
func (s *documentStore) Clear(ctx context.Context) error {
	return s.store.clear(ctx, "documents")
}

// scanDocument scans one document row via the given scan function,
// which works for both *sql.Row and *sql.Rows.
func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var format string
	var metadataJSON sql.NullString
	var uploadedAt sql.NullTime

	if err := scan(&doc.ID, &doc.Name, &format, &doc.Content, &uploadedAt, &metadataJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Format = domain.DocumentFormat(format)
	if uploadedAt.Valid {
		doc.UploadedAt = uploadedAt.Time
	}
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// ==================== Annotation Store ====================

// annotationStore implements driven.AnnotationStore.
type annotationStore struct {
	store *Store
}

var _ driven.AnnotationStore = (*annotationStore)(nil)

// Save stores or updates an annotation metadata record. Any audio
// payload still attached is stripped before the write.
func (s *annotationStore) Save(ctx context.Context, a *domain.Annotation) error {
	record, _ := domain.SplitAudio(*a)

	tagsJSON, err := json.Marshal(record.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	var audioID, audioMIME sql.NullString
	var audioDuration sql.NullInt64
	if record.AudioMemo != nil {
		audioID = sql.NullString{String: record.AudioMemo.ID, Valid: true}
		audioMIME = sql.NullString{String: record.AudioMemo.MIMEType, Valid: true}
		audioDuration = sql.NullInt64{Int64: int64(record.AudioMemo.Duration), Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO annotations
			(id, document_id, page, cfi, start_offset, end_offset,
			 selected_text, text_context, tags, color, notes,
			 audio_id, audio_duration, audio_mime, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			page = excluded.page,
			cfi = excluded.cfi,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			selected_text = excluded.selected_text,
			text_context = excluded.text_context,
			tags = excluded.tags,
			color = excluded.color,
			notes = excluded.notes,
			audio_id = excluded.audio_id,
			audio_duration = excluded.audio_duration,
			audio_mime = excluded.audio_mime,
			updated_at = excluded.updated_at
	`, record.ID, record.DocumentID, record.Location.Page, record.Location.CFI,
		record.Location.StartOffset, record.Location.EndOffset,
		record.SelectedText, record.TextContext, string(tagsJSON), record.Color, record.Notes,
		audioID, audioDuration, audioMIME, record.CreatedAt.UTC(), record.UpdatedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving annotation: %w", err)
	}
	return nil
}

const annotationColumns = `id, document_id, page, cfi, start_offset, end_offset,
	selected_text, text_context, tags, color, notes,
	audio_id, audio_duration, audio_mime, created_at, updated_at`

// Get retrieves an annotation by ID, audio reference unhydrated.
func (s *annotationStore) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE id = ?", id)

	ann, err := scanAnnotation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return ann, err
}

// ListByDocument returns a document's annotations in creation order.
func (s *annotationStore) ListByDocument(ctx context.Context, documentID string) ([]domain.Annotation, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE document_id = ? ORDER BY created_at ASC, id ASC",
		documentID)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	return collectAnnotations(rows)
}

// ListAll returns every annotation in creation order.
func (s *annotationStore) ListAll(ctx context.Context) ([]domain.Annotation, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+annotationColumns+" FROM annotations ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	return collectAnnotations(rows)
}

// Delete removes an annotation metadata record.
func (s *annotationStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting annotation: %w", err)
	}
	return nil
}

// Count returns the number of stored annotations.
func (s *annotationStore) Count(ctx context.Context) (int, error) {
	return s.store.count(ctx, "annotations")
}

// Clear removes every annotation record.
func (s *annotationStore) Clear(ctx context.Context) error {
	return s.store.clear(ctx, "annotations")
}

func collectAnnotations(rows *sql.Rows) ([]domain.Annotation, error) {
	var anns []domain.Annotation //nolint:prealloc // size unknown from query
	for rows.Next() {
		ann, err := scanAnnotation(rows.Scan)
		if err != nil {
			return nil, err
		}
		anns = append(anns, *ann)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating annotations: %w", err)
	}

	return anns, nil
}

// scanAnnotation scans one annotation row via the given scan function.
func scanAnnotation(scan func(...any) error) (*domain.Annotation, error) {
	var ann domain.Annotation
	var tagsJSON string
	var audioID, audioMIME sql.NullString
	var audioDuration sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	if err := scan(&ann.ID, &ann.DocumentID, &ann.Location.Page, &ann.Location.CFI,
		&ann.Location.StartOffset, &ann.Location.EndOffset,
		&ann.SelectedText, &ann.TextContext, &tagsJSON, &ann.Color, &ann.Notes,
		&audioID, &audioDuration, &audioMIME, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning annotation: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &ann.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if audioID.Valid && audioID.String != "" {
		ann.AudioMemo = &domain.AudioMemo{
			ID:       audioID.String,
			Duration: int(audioDuration.Int64),
			MIMEType: audioMIME.String,
		}
	}
	if createdAt.Valid {
		ann.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		ann.UpdatedAt = updatedAt.Time
	}

	return &ann, nil
}

// ==================== Audio Store ====================

// audioStore implements driven.AudioStore.
type audioStore struct {
	store *Store
}

var _ driven.AudioStore = (*audioStore)(nil)

// Save stores or replaces a blob.
func (s *audioStore) Save(ctx context.Context, id string, data []byte) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO audio_blobs (id, data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data
	`, id, data, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving audio blob: %w", err)
	}
	return nil
}

// Get retrieves a blob by ID.
func (s *audioStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx,
		"SELECT data FROM audio_blobs WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning audio blob: %w", err)
	}
	return data, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *audioStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM audio_blobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting audio blob: %w", err)
	}
	return nil
}

// Count returns the number of stored blobs.
func (s *audioStore) Count(ctx context.Context) (int, error) {
	return s.store.count(ctx, "audio_blobs")
}

// Clear removes every blob.
func (s *audioStore) Clear(ctx context.Context) error {
	return s.store.clear(ctx, "audio_blobs")
}

// ==================== Helper Functions ====================

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) clear(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	return nil
}
