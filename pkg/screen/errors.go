package screen

import "errors"

var (
	// ErrBusy is returned by Tap while a cycle holds the interaction lock.
	ErrBusy = errors.New("screen: busy")

	// ErrStopped is returned when the controller loop is not running.
	ErrStopped = errors.New("screen: controller stopped")

	// ErrNotVisible is returned by Tap before Appear or after Disappear.
	ErrNotVisible = errors.New("screen: not visible")
)

// Failure kinds logged with each pipeline error.
const (
	KindPermissionDenied  = "PermissionDenied"
	KindCameraUnavailable = "CameraUnavailable"
	KindCaptureFailed     = "CaptureFailed"
	KindInferenceFailed   = "InferenceFailed"
	KindSpeechFailed      = "SpeechFailed"
)

// TextError replaces the identification label after a capture or
// inference failure.
const TextError = "Something went wrong. Please try again."
