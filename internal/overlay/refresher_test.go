package overlay

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRefresher(t *testing.T, refresh func()) *Refresher {
	t.Helper()
	r := NewRefresher(refresh)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		assert.NoError(t, r.Stop())
		cancel()
		<-done
	})

	// Give the loop a moment to come up.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.running
	}, time.Second, 5*time.Millisecond)
	return r
}

func TestRefresher_KickTriggersRefresh(t *testing.T) {
	var count atomic.Int32
	r := startRefresher(t, func() { count.Add(1) })

	r.Kick()

	assert.Eventually(t, func() bool {
		return count.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRefresher_BurstCoalesces(t *testing.T) {
	var count atomic.Int32
	r := startRefresher(t, func() { count.Add(1) })

	for i := 0; i < 20; i++ {
		r.Kick()
	}

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	// The burst landed before the settle window elapsed, so it collapses
	// into a single refresh.
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), int32(2))
}

func TestRefresher_FileChangeTriggersRefresh(t *testing.T) {
	var count atomic.Int32
	r := startRefresher(t, func() { count.Add(1) })

	dir := t.TempDir()
	require.NoError(t, r.Watch(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page-001.txt"), []byte("rendered"), 0600))

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresher_WatchBeforeStartFails(t *testing.T) {
	r := NewRefresher(func() {})
	assert.Error(t, r.Watch(t.TempDir()))
}

func TestRefresher_StopIsIdempotent(t *testing.T) {
	r := startRefresher(t, func() {})
	assert.NoError(t, r.Stop())
	assert.NoError(t, r.Stop())
}
