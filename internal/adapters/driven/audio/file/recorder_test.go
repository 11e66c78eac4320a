package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

func captureSource(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}

func grantedRecorder(t *testing.T, name string, content []byte) *Recorder {
	t.Helper()
	r := NewRecorder(captureSource(t, name, content))
	perm, err := r.RequestPermission(context.Background())
	require.NoError(t, err)
	require.Equal(t, driven.PermissionGranted, perm)
	return r
}

func TestRecorder_StartStopProducesMemo(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("opus frames"))

	require.NoError(t, r.Start(context.Background()))
	memo, err := r.Stop()
	require.NoError(t, err)

	assert.NotEmpty(t, memo.ID)
	assert.Equal(t, []byte("opus frames"), memo.Data)
	assert.Equal(t, "audio/webm", memo.MIMEType)
	assert.GreaterOrEqual(t, memo.Duration, 1)
}

func TestRecorder_MIMEFollowsExtension(t *testing.T) {
	r := grantedRecorder(t, "note.wav", []byte("riff"))

	require.NoError(t, r.Start(context.Background()))
	memo, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", memo.MIMEType)
}

func TestRecorder_StartWithoutPermission(t *testing.T) {
	r := NewRecorder(captureSource(t, "note.webm", []byte("x")))

	err := r.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRecorder_DoubleStart(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))

	require.NoError(t, r.Start(context.Background()))
	err := r.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrRecorderState)
}

func TestRecorder_PauseResume(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))
	ctx := context.Background()

	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Pause())

	// Paused time must not count toward duration.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, r.Resume())
	memo, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, memo.Duration)
}

func TestRecorder_PauseWhenIdle(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))
	assert.ErrorIs(t, r.Pause(), domain.ErrRecorderState)
}

func TestRecorder_ResumeWhenRecording(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))
	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Resume(), domain.ErrRecorderState)
}

func TestRecorder_StopWhenIdle(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))
	_, err := r.Stop()
	assert.ErrorIs(t, err, domain.ErrRecorderState)
}

func TestRecorder_StopWhilePaused(t *testing.T) {
	r := grantedRecorder(t, "note.webm", []byte("x"))
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Pause())

	memo, err := r.Stop()
	require.NoError(t, err)
	assert.NotNil(t, memo)

	// The session is over; a fresh one can begin.
	assert.NoError(t, r.Start(context.Background()))
}

func TestRecorder_MissingSourceIsUnsupported(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "absent.webm"))

	perm, err := r.RequestPermission(context.Background())
	assert.Equal(t, driven.PermissionDenied, perm)
	assert.ErrorIs(t, err, domain.ErrRecorderUnsupported)
}

func TestRecorder_PermissionStates(t *testing.T) {
	ctx := context.Background()

	missing := NewRecorder(filepath.Join(t.TempDir(), "absent.webm"))
	perm, err := missing.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, driven.PermissionPrompt, perm)

	r := NewRecorder(captureSource(t, "note.webm", []byte("x")))
	perm, err = r.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, driven.PermissionPrompt, perm)

	_, err = r.RequestPermission(ctx)
	require.NoError(t, err)
	perm, err = r.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, driven.PermissionGranted, perm)
}
