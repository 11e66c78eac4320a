package driven

import (
	"context"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// Permission is the tri-state microphone permission.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// AudioRecorder is the capture provider surface. The encoding pipeline
// behind it is a black box; Stop hands back a completed memo with its
// payload, duration and MIME type.
//
// A denied permission and an unsupported environment are distinct
// failure states (domain.ErrPermissionDenied vs
// domain.ErrRecorderUnsupported) and must not be conflated.
type AudioRecorder interface {
	// Start begins a recording session.
	Start(ctx context.Context) error

	// Pause suspends the current session.
	Pause() error

	// Resume continues a paused session.
	Resume() error

	// Stop ends the session and returns the completed memo.
	Stop() (*domain.AudioMemo, error)

	// Permission reports the current microphone permission.
	Permission(ctx context.Context) (Permission, error)

	// RequestPermission prompts for access and reports the outcome.
	RequestPermission(ctx context.Context) (Permission, error)
}
