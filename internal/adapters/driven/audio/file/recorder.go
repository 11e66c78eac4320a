// Package file provides a file-backed audio capture adapter. Instead of
// driving a microphone it "records" from a prepared audio file, which
// keeps the capture state machine and memo assembly real while the
// encoding pipeline stays out of scope.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
)

// recorder session states.
type state int

const (
	stateIdle state = iota
	stateRecording
	statePaused
)

// mimeByExtension maps supported capture file extensions to MIME types.
var mimeByExtension = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
}

// defaultMIME is assumed for unrecognized extensions.
const defaultMIME = "audio/webm"

// Ensure Recorder implements the interface.
var _ driven.AudioRecorder = (*Recorder)(nil)

// Recorder captures audio from a source file. Duration is wall-clock
// recording time, paused stretches excluded.
type Recorder struct {
	sourcePath string

	mu       sync.Mutex
	state    state
	elapsed  time.Duration
	lastTick time.Time
	granted  bool
}

// NewRecorder creates a recorder reading from sourcePath.
func NewRecorder(sourcePath string) *Recorder {
	return &Recorder{sourcePath: sourcePath}
}

// Start begins a recording session.
func (r *Recorder) Start(ctx context.Context) error {
	perm, err := r.Permission(ctx)
	if err != nil {
		return err
	}
	if perm != driven.PermissionGranted {
		return fmt.Errorf("%w: microphone access not granted", domain.ErrPermissionDenied)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return fmt.Errorf("%w: recording already in progress", domain.ErrRecorderState)
	}
	r.state = stateRecording
	r.elapsed = 0
	r.lastTick = time.Now()
	return nil
}

// Pause suspends the current session.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRecording {
		return fmt.Errorf("%w: not recording", domain.ErrRecorderState)
	}
	r.elapsed += time.Since(r.lastTick)
	r.state = statePaused
	return nil
}

// Resume continues a paused session.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePaused {
		return fmt.Errorf("%w: not paused", domain.ErrRecorderState)
	}
	r.lastTick = time.Now()
	r.state = stateRecording
	return nil
}

// Stop ends the session and returns the completed memo.
func (r *Recorder) Stop() (*domain.AudioMemo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateRecording:
		r.elapsed += time.Since(r.lastTick)
	case statePaused:
	default:
		return nil, fmt.Errorf("%w: no recording in progress", domain.ErrRecorderState)
	}
	r.state = stateIdle

	data, err := os.ReadFile(r.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("reading capture source: %w", err)
	}

	seconds := int(r.elapsed.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	return &domain.AudioMemo{
		ID:       uuid.New().String(),
		Data:     data,
		Duration: seconds,
		MIMEType: mimeFor(r.sourcePath),
	}, nil
}

// Permission reports the current microphone permission. An unreadable
// capture source maps to denied; a missing one to prompt.
func (r *Recorder) Permission(_ context.Context) (driven.Permission, error) {
	r.mu.Lock()
	granted := r.granted
	r.mu.Unlock()
	if granted {
		return driven.PermissionGranted, nil
	}

	if _, err := os.Stat(r.sourcePath); err != nil {
		if os.IsNotExist(err) {
			return driven.PermissionPrompt, nil
		}
		return driven.PermissionDenied, nil
	}
	return driven.PermissionPrompt, nil
}

// RequestPermission prompts for access and reports the outcome.
func (r *Recorder) RequestPermission(_ context.Context) (driven.Permission, error) {
	f, err := os.Open(r.sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return driven.PermissionDenied, fmt.Errorf("%w: capture source %s is missing", domain.ErrRecorderUnsupported, r.sourcePath)
		}
		return driven.PermissionDenied, fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	f.Close()

	r.mu.Lock()
	r.granted = true
	r.mu.Unlock()
	return driven.PermissionGranted, nil
}

// mimeFor resolves the MIME type for a capture file.
func mimeFor(path string) string {
	if mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return defaultMIME
}
