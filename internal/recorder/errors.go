package recorder

import "errors"

var (
	// ErrEmptyCapture is returned by Stop when no samples were accumulated.
	// No artifact is produced and the controller returns to monitoring.
	ErrEmptyCapture = errors.New("recorder: no samples captured")

	// ErrRecordingInProgress is returned by Start while a recording is
	// already active. Recordings are rejected, never queued.
	ErrRecordingInProgress = errors.New("recorder: recording already in progress")

	// ErrNotRecording is returned by Stop when no recording is active.
	ErrNotRecording = errors.New("recorder: not recording")

	// ErrEncoding wraps encoder failures. No artifact is handed out.
	ErrEncoding = errors.New("recorder: failed to encode recording")
)
