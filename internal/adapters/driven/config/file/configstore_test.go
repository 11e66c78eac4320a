package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "margine")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_MissingFileStartsEmpty(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("storage.data_dir")
	assert.False(t, ok)
}

func TestConfigStore_ReaderDefaults(t *testing.T) {
	store := newTestStore(t)

	// Without a config file the reader behaves with the built-ins.
	assert.Equal(t, domain.DefaultAnnotationColors[0], store.GetString("reader.highlight_color"))
	assert.Equal(t, DefaultContextWindow, store.GetInt("reader.context_window"))
}

func TestConfigStore_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[reader]
highlight_color = "#f59e0b"
context_window = 80
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "#f59e0b", store.GetString("reader.highlight_color"))
	assert.Equal(t, 80, store.GetInt("reader.context_window"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[storage]
data_dir = "/var/lib/margine"

[render]
dir = "/var/lib/margine/render"
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/margine", store.GetString("storage.data_dir"))
	assert.Equal(t, "/var/lib/margine/render", store.GetString("render.dir"))
}

func TestConfigStore_SetPersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.data_dir", "/tmp/margine-data"))

	// A fresh store over the same directory sees the value.
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/margine-data", reopened.GetString("storage.data_dir"))
}

func TestConfigStore_DefaultsAreNeverWritten(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save())

	raw, readErr := os.ReadFile(store.Path())
	require.NoError(t, readErr)
	assert.NotContains(t, string(raw), "highlight_color")
	assert.NotContains(t, string(raw), "context_window")
}

func TestConfigStore_GetStringWrongTypeIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[reader]
context_window = 80
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "", store.GetString("reader.context_window"))
}

func TestConfigStore_GetIntWrongTypeIsZero(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[storage]
data_dir = "/var/lib/margine"
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 0, store.GetInt("storage.data_dir"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("reader.show_swatches", true))

	assert.True(t, store.GetBool("reader.show_swatches"))
	assert.False(t, store.GetBool("reader.missing"))
}

func TestConfigStore_GetStringSliceFromTOMLArray(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[reader]
pinned_tags = ["soliloquy", "rhetoric"]
`)

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"soliloquy", "rhetoric"}, store.GetStringSlice("reader.pinned_tags"))
	assert.Nil(t, store.GetStringSlice("reader.missing"))
}

func TestConfigStore_LoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[reader\nbroken")

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_LoadReplacesPreviousValues(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("storage.data_dir", "/old"))

	writeConfig(t, dir, `
[storage]
data_dir = "/new"
`)
	require.NoError(t, store.Load())

	assert.Equal(t, "/new", store.GetString("storage.data_dir"))
}
