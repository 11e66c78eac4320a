package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable indicates the storage engine cannot be reached.
	// Surfaced at startup by the health check and on failed writes; the
	// operation is not retried automatically.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnsupportedVersion indicates an import file was produced by a
	// newer major version than this build understands.
	ErrUnsupportedVersion = errors.New("unsupported export version")

	// ErrUnsupportedFormat indicates an uploaded file is neither a PDF
	// nor an EPUB.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// Recording Errors.

	// ErrPermissionDenied indicates microphone access was refused.
	// The recording UI offers an explicit re-request path.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrRecorderUnsupported indicates the environment has no usable
	// audio capture backend. Distinct from a denied permission.
	ErrRecorderUnsupported = errors.New("audio recording not supported")

	// ErrRecorderState indicates a recorder control call that is invalid
	// in the current recording state (e.g. Resume while idle).
	ErrRecorderState = errors.New("invalid recorder state")
)
