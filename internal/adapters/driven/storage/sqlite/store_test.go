package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "margine-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testDocument(id string) *domain.Document {
	return &domain.Document{
		ID:         id,
		Name:       id + ".pdf",
		Format:     domain.FormatPDF,
		Content:    []byte("%PDF-1.7 test"),
		UploadedAt: time.Now().UTC().Truncate(time.Second),
		Metadata:   &domain.DocumentMetadata{Title: "Test " + id, TotalPages: 12},
	}
}

func testAnnotation(id, docID string, createdAt time.Time) *domain.Annotation {
	return &domain.Annotation{
		ID:           id,
		DocumentID:   docID,
		Location:     domain.AnnotationLocation{Page: 3, StartOffset: 10, EndOffset: 25},
		SelectedText: "a piece of work",
		TextContext:  "what a piece of work is a man",
		Tags:         []string{"act2", "monologue"},
		Color:        "#cb3158",
		Notes:        "key speech",
		CreatedAt:    createdAt.UTC().Truncate(time.Second),
		UpdatedAt:    createdAt.UTC().Truncate(time.Second),
	}
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
	assert.Equal(t, "margine.db", filepath.Base(store.Path()))
}

func TestStore_Ping(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "margine-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrate again over an up-to-date schema.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, store.DocumentStore().Save(ctx, doc))

	got, err := store.DocumentStore().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Format, got.Format)
	assert.Equal(t, doc.Content, got.Content)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "Test doc-1", got.Metadata.Title)
	assert.Equal(t, 12, got.Metadata.TotalPages)
}

func TestDocumentStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.DocumentStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveIsUpsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, store.DocumentStore().Save(ctx, doc))

	doc.Name = "renamed.pdf"
	require.NoError(t, store.DocumentStore().Save(ctx, doc))

	got, err := store.DocumentStore().Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", got.Name)

	count, err := store.DocumentStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStore_ListNewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	older := testDocument("doc-1")
	older.UploadedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	newer := testDocument("doc-2")
	require.NoError(t, store.DocumentStore().Save(ctx, older))
	require.NoError(t, store.DocumentStore().Save(ctx, newer))

	docs, err := store.DocumentStore().List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.Equal(t, "doc-1", docs[1].ID)
}

func TestDocumentStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.DocumentStore().Save(ctx, testDocument("doc-1")))
	require.NoError(t, store.DocumentStore().Delete(ctx, "doc-1"))

	_, err := store.DocumentStore().Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotationStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	ann := testAnnotation("ann-1", "doc-1", time.Now())
	require.NoError(t, store.AnnotationStore().Save(ctx, ann))

	got, err := store.AnnotationStore().Get(ctx, "ann-1")
	require.NoError(t, err)
	assert.Equal(t, ann.Location, got.Location)
	assert.Equal(t, ann.SelectedText, got.SelectedText)
	assert.Equal(t, ann.TextContext, got.TextContext)
	assert.Equal(t, ann.Tags, got.Tags)
	assert.Equal(t, ann.Color, got.Color)
	assert.Nil(t, got.AudioMemo)
}

func TestAnnotationStore_SaveStripsAudioPayload(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	ann := testAnnotation("ann-1", "doc-1", time.Now())
	ann.AudioMemo = &domain.AudioMemo{
		ID:       "audio-1",
		Data:     []byte{1, 2, 3},
		Duration: 9,
		MIMEType: "audio/webm",
	}
	require.NoError(t, store.AnnotationStore().Save(ctx, ann))

	got, err := store.AnnotationStore().Get(ctx, "ann-1")
	require.NoError(t, err)
	require.NotNil(t, got.AudioMemo)
	assert.Equal(t, "audio-1", got.AudioMemo.ID)
	assert.Equal(t, 9, got.AudioMemo.Duration)
	assert.Equal(t, "audio/webm", got.AudioMemo.MIMEType)
	assert.Nil(t, got.AudioMemo.Data, "payload must not land in the annotations table")
}

func TestAnnotationStore_ListByDocumentInCreationOrder(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	require.NoError(t, store.AnnotationStore().Save(ctx, testAnnotation("ann-2", "doc-1", base.Add(time.Minute))))
	require.NoError(t, store.AnnotationStore().Save(ctx, testAnnotation("ann-1", "doc-1", base)))
	require.NoError(t, store.AnnotationStore().Save(ctx, testAnnotation("ann-3", "doc-2", base)))

	anns, err := store.AnnotationStore().ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "ann-1", anns[0].ID)
	assert.Equal(t, "ann-2", anns[1].ID)

	all, err := store.AnnotationStore().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAnnotationStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.AnnotationStore().Save(ctx, testAnnotation("ann-1", "doc-1", time.Now())))
	require.NoError(t, store.AnnotationStore().Delete(ctx, "ann-1"))

	_, err := store.AnnotationStore().Get(ctx, "ann-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAudioStore_RoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.AudioStore().Save(ctx, "audio-1", []byte("opus frames")))

	data, err := store.AudioStore().Get(ctx, "audio-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("opus frames"), data)

	// Upsert replaces the payload.
	require.NoError(t, store.AudioStore().Save(ctx, "audio-1", []byte("replaced")))
	data, err = store.AudioStore().Get(ctx, "audio-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), data)

	count, err := store.AudioStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_ClearEmptiesEveryCollection(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.DocumentStore().Save(ctx, testDocument("doc-1")))
	require.NoError(t, store.AnnotationStore().Save(ctx, testAnnotation("ann-1", "doc-1", time.Now())))
	require.NoError(t, store.AudioStore().Save(ctx, "audio-1", []byte{1}))

	require.NoError(t, store.AudioStore().Clear(ctx))
	require.NoError(t, store.AnnotationStore().Clear(ctx))
	require.NoError(t, store.DocumentStore().Clear(ctx))

	for _, count := range []func(context.Context) (int, error){
		store.DocumentStore().Count,
		store.AnnotationStore().Count,
		store.AudioStore().Count,
	} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}
}

func TestAudioStore_DeleteMissingIsNoError(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.AudioStore().Delete(context.Background(), "missing"))

	_, err := store.AudioStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
