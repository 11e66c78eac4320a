package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/margine-labs/margine-cli/internal/logger"
)

const (
	// defaultSettle is how long the content must stay quiet before a
	// recompute fires. Collapses bursts of render mutations into one
	// refresh.
	defaultSettle = 100 * time.Millisecond

	// maxRefreshRate caps recomputes during sustained churn such as a
	// window resize drag.
	maxRefreshRate = 10 // per second
)

// Refresher coalesces overlay recompute triggers. Kicks arrive from
// explicit calls and from filesystem changes to watched render output;
// each burst settles, then the refresh callback runs at most
// maxRefreshRate times per second.
type Refresher struct {
	refresh func()
	settle  time.Duration
	limiter *rate.Limiter

	kick chan struct{}

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRefresher creates a refresher invoking the given callback.
func NewRefresher(refresh func()) *Refresher {
	return &Refresher{
		refresh: refresh,
		settle:  defaultSettle,
		limiter: rate.NewLimiter(rate.Limit(maxRefreshRate), 1),
		kick:    make(chan struct{}, 1),
	}
}

// Watch registers a rendered-output path. Any write under it kicks a
// refresh. Must be called after Start.
func (r *Refresher) Watch(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return fmt.Errorf("refresher is not running")
	}
	if err := r.watcher.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	return nil
}

// Start begins the coalescing loop. This method blocks until Stop is
// called or the context is canceled.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil // Already running
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("creating watcher: %w", err)
	}
	r.watcher = watcher
	r.running = true
	r.stopCh = make(chan struct{})
	r.mu.Unlock()

	return r.run(ctx)
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	close(r.stopCh)
	watcher := r.watcher
	r.watcher = nil
	r.mu.Unlock()

	err := watcher.Close()
	r.wg.Wait()
	return err
}

// Kick requests a refresh. Duplicate kicks during a pending refresh
// collapse into one.
func (r *Refresher) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// run is the main coalescing loop.
func (r *Refresher) run(ctx context.Context) error {
	r.wg.Add(1)
	defer r.wg.Done()

	settle := time.NewTimer(r.settle)
	if !settle.Stop() {
		<-settle.C
	}
	pending := false

	arm := func() {
		if pending {
			if !settle.Stop() {
				select {
				case <-settle.C:
				default:
				}
			}
		}
		settle.Reset(r.settle)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopCh:
			return nil
		case <-r.kick:
			arm()
		case ev, ok := <-r.watcherEvents():
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				arm()
			}
		case err, ok := <-r.watcherErrors():
			if !ok {
				return nil
			}
			logger.Warn("overlay watcher: %v", err)
		case <-settle.C:
			pending = false
			if !r.limiter.Allow() {
				// Over budget; retry once the limiter refills.
				arm()
				continue
			}
			r.refresh()
		}
	}
}

func (r *Refresher) watcherEvents() chan fsnotify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Events
}

func (r *Refresher) watcherErrors() chan error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Errors
}
