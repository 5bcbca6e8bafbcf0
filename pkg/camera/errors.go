package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for the capture failure kinds.
var (
	// ErrPermissionDenied is returned when the camera exists but this
	// process may not open it.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrCameraUnavailable is returned when no usable camera exists.
	ErrCameraUnavailable = errors.New("camera: unavailable")

	// ErrCaptureFailed is delivered when a still capture cannot produce an image.
	ErrCaptureFailed = errors.New("camera: capture failed")

	// ErrNotConfigured is returned by Start or Capture before Configure.
	ErrNotConfigured = errors.New("camera: not configured")

	// ErrNotRunning is returned when a frame is requested while stopped.
	ErrNotRunning = errors.New("camera: not running")
)

// CaptureError wraps the reason a still capture failed.
type CaptureError struct {
	Err error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera: capture failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Is reports ErrCaptureFailed for every CaptureError.
func (e *CaptureError) Is(target error) bool {
	return target == ErrCaptureFailed
}

// WrapCapture wraps err as a CaptureError. Nil stays nil.
func WrapCapture(err error) error {
	if err == nil {
		return nil
	}
	return &CaptureError{Err: err}
}
