package camera

import "time"

// Device owns one camera: its session, input and output.
// Implementations must be safe for concurrent use.
type Device interface {
	// Configure selects the camera described by cfg. It fails with
	// ErrCameraUnavailable or ErrPermissionDenied.
	Configure(cfg Config) error

	// Start begins streaming preview frames. Calling Start on a running
	// device is a no-op.
	Start() error

	// Stop halts streaming and releases the input/output pair.
	// It is safe to call Stop multiple times.
	Stop() error

	// Running reports whether frames are streaming.
	Running() bool

	// Frame returns the latest preview frame as JPEG.
	Frame() ([]byte, error)

	// Capture triggers a single asynchronous still capture. deliver is
	// called exactly once, from another goroutine, with the photo or an
	// error wrapping ErrCaptureFailed.
	Capture(flash FlashMode, deliver func(Photo, error))
}

// Photo is an immutable captured still.
type Photo struct {
	// Data is the JPEG-encoded image. Callers must not modify it.
	Data []byte

	Width  int
	Height int
	Flash  FlashMode
	Taken  time.Time
}

// Empty reports whether the photo carries no image data.
func (p Photo) Empty() bool {
	return len(p.Data) == 0
}
