package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margine-labs/margine-cli/internal/core/services"
)

func TestExportCmd_WritesFile(t *testing.T) {
	stores, cleanup := setupTestServices(t)
	defer cleanup()
	seedDocument(t, stores, "doc-1", "hamlet.pdf")
	seedAnnotation(t, stores, "ann-1", "doc-1", "soliloquy")

	path := filepath.Join(t.TempDir(), "export.json")
	out, err := execute("export", "--output", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+path)

	raw, readErr := os.ReadFile(path)
	require.NoError(t, readErr)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.JSONEq(t, `"`+services.ExportVersion+`"`, string(envelope["version"]))
	assert.NotContains(t, string(raw), "%PDF", "document bytes never leave storage")
}

func TestExportCmd_ScopedToDocument(t *testing.T) {
	stores, cleanup := setupTestServices(t)
	defer cleanup()
	seedDocument(t, stores, "doc-1", "hamlet.pdf")
	seedDocument(t, stores, "doc-2", "lear.pdf")
	seedAnnotation(t, stores, "ann-2", "doc-2")

	path := filepath.Join(t.TempDir(), "export.json")
	_, err := execute("export", "--document", "doc-2", "--output", path)

	require.NoError(t, err)
	raw, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "doc-2")
	assert.NotContains(t, string(raw), "doc-1")
}

func TestImportCmd_RoundTrip(t *testing.T) {
	stores, cleanup := setupTestServices(t)
	defer cleanup()
	seedDocument(t, stores, "doc-1", "hamlet.pdf")
	seedAnnotation(t, stores, "ann-1", "doc-1", "soliloquy")

	path := filepath.Join(t.TempDir(), "export.json")
	_, err := execute("export", "--output", path)
	require.NoError(t, err)

	// Fresh stores: everything in the file counts as new.
	fresh, freshCleanup := setupTestServices(t)
	defer freshCleanup()

	out, err := execute("import", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Documents imported:    1 (skipped 0)")
	assert.Contains(t, out, "Annotations imported:  1 (skipped 0)")

	ann, getErr := fresh.annotations.Get(context.Background(), "ann-1")
	require.NoError(t, getErr)
	assert.Equal(t, []string{"soliloquy"}, ann.Tags)
}

func TestImportCmd_SkipsExisting(t *testing.T) {
	stores, cleanup := setupTestServices(t)
	defer cleanup()
	seedDocument(t, stores, "doc-1", "hamlet.pdf")
	seedAnnotation(t, stores, "ann-1", "doc-1")

	path := filepath.Join(t.TempDir(), "export.json")
	_, err := execute("export", "--output", path)
	require.NoError(t, err)

	out, err := execute("import", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Documents imported:    0 (skipped 1)")
	assert.Contains(t, out, "Annotations imported:  0 (skipped 1)")
}

func TestImportCmd_DryRunPreviewsStats(t *testing.T) {
	stores, cleanup := setupTestServices(t)
	defer cleanup()
	seedDocument(t, stores, "doc-1", "hamlet.pdf")
	seedAnnotation(t, stores, "ann-1", "doc-1")

	path := filepath.Join(t.TempDir(), "export.json")
	_, err := execute("export", "--output", path)
	require.NoError(t, err)

	fresh, freshCleanup := setupTestServices(t)
	defer freshCleanup()

	out, err := execute("import", "--dry-run", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Import file is valid.")
	assert.Contains(t, out, "Documents:         1")
	assert.Contains(t, out, "Annotations:       1")

	docs, listErr := fresh.documents.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, docs, "dry run never writes")
}

func TestImportCmd_RejectsUnsupportedVersion(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "bad.json")
	payload := `{"version":"2.0.0","exportedAt":"2026-08-31T00:00:00Z","documents":[],"annotations":[]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	out, err := execute("import", "--dry-run", path)

	assert.Error(t, err)
	assert.Contains(t, out, "Import file is invalid:")
}

func TestExportCmd_NilService(t *testing.T) {
	oldService := transferService
	transferService = nil
	defer func() {
		transferService = oldService
	}()

	err := exportCmd.RunE(exportCmd, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
