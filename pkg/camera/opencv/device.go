// Package opencv implements camera.Device on top of a gocv VideoCapture.
package opencv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"gocv.io/x/gocv"
)

// Device streams frames from a V4L2 camera and takes stills on demand.
type Device struct {
	logger *slog.Logger

	mu         sync.Mutex
	cfg        camera.Config
	configured bool
	torch      camera.Torch
	vc         *gocv.VideoCapture
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}

	// readMu serializes VideoCapture.Read between the grab loop and stills.
	readMu sync.Mutex

	frameMu sync.RWMutex
	latest  gocv.Mat
	has     bool
}

// New creates an unconfigured device.
func New(logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		logger: logger.With("component", "camera.opencv"),
		torch:  camera.NoTorch{},
		latest: gocv.NewMat(),
	}
}

// Configure checks the device node and stores cfg. A running device must
// be stopped first.
func (d *Device) Configure(cfg camera.Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %v", errs)
	}
	if err := camera.CheckDevice(cfg.DevicePath()); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("camera: configure while running")
	}
	d.cfg = cfg
	d.torch = camera.NewTorch(cfg.TorchPath)
	d.configured = true

	d.logger.Info("camera configured",
		"device", cfg.DevicePath(),
		"preset", cfg.Preset,
		"width", cfg.Width,
		"height", cfg.Height,
	)
	return nil
}

// Start opens the capture and launches the grab loop.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}
	if !d.configured {
		return camera.ErrNotConfigured
	}

	vc, err := gocv.OpenVideoCapture(d.cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: %v", camera.ErrCameraUnavailable, err)
	}
	vc.Set(gocv.VideoCaptureFOURCC, vc.ToCodec("MJPG"))
	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.cfg.Framerate))
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	ctx, cancel := context.WithCancel(context.Background())
	d.vc = vc
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.grabLoop(ctx, d.done)

	d.logger.Info("capture started",
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
	)
	return nil
}

// Stop halts the grab loop and releases the capture.
func (d *Device) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done

	d.readMu.Lock()
	d.mu.Lock()
	vc := d.vc
	d.vc = nil
	d.mu.Unlock()
	var err error
	if vc != nil {
		err = vc.Close()
	}
	d.readMu.Unlock()

	d.frameMu.Lock()
	d.has = false
	d.frameMu.Unlock()

	d.logger.Info("capture stopped")
	return err
}

// Running reports whether the grab loop is active.
func (d *Device) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Frame encodes the latest grabbed frame as JPEG.
func (d *Device) Frame() ([]byte, error) {
	d.frameMu.RLock()
	defer d.frameMu.RUnlock()
	if !d.has {
		return nil, camera.ErrNotRunning
	}
	return d.encode(d.latest)
}

// Capture switches the torch for the shot, grabs a fresh frame and
// delivers it as JPEG.
func (d *Device) Capture(flash camera.FlashMode, deliver func(camera.Photo, error)) {
	go func() {
		photo, err := d.still(flash)
		if err != nil {
			d.logger.Error("still capture failed", "kind", "CaptureFailed", "error", err)
		}
		deliver(photo, camera.WrapCapture(err))
	}()
}

func (d *Device) still(flash camera.FlashMode) (camera.Photo, error) {
	d.mu.Lock()
	torch, settle := d.torch, time.Duration(d.cfg.FlashSettleMs)*time.Millisecond
	d.mu.Unlock()

	if flash == camera.FlashOn {
		if err := torch.Set(true); err != nil {
			d.logger.Warn("torch on failed", "error", err)
		}
		defer func() {
			if err := torch.Set(false); err != nil {
				d.logger.Warn("torch off failed", "error", err)
			}
		}()
		time.Sleep(settle)
	}

	d.readMu.Lock()
	defer d.readMu.Unlock()

	d.mu.Lock()
	vc := d.vc
	d.mu.Unlock()
	if vc == nil {
		return camera.Photo{}, camera.ErrNotRunning
	}

	mat := gocv.NewMat()
	defer mat.Close()

	// The driver keeps one buffered frame; drop it so the still is fresh.
	vc.Grab(1)
	if ok := vc.Read(&mat); !ok || mat.Empty() {
		return camera.Photo{}, errors.New("empty frame")
	}

	data, err := d.encode(mat)
	if err != nil {
		return camera.Photo{}, err
	}
	return camera.Photo{
		Data:   data,
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Flash:  flash,
		Taken:  time.Now(),
	}, nil
}

func (d *Device) grabLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	mat := gocv.NewMat()
	defer mat.Close()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.readMu.Lock()
		d.mu.Lock()
		vc := d.vc
		d.mu.Unlock()
		ok := vc != nil && vc.Read(&mat)
		d.readMu.Unlock()

		if !ok || mat.Empty() {
			failures++
			if failures%30 == 1 {
				d.logger.Warn("frame read failed", "consecutive", failures)
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		failures = 0

		d.frameMu.Lock()
		mat.CopyTo(&d.latest)
		d.has = true
		d.frameMu.Unlock()
	}
}

func (d *Device) encode(mat gocv.Mat) ([]byte, error) {
	d.mu.Lock()
	quality := d.cfg.Quality
	d.mu.Unlock()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}

// Close stops the device and frees the frame buffer.
func (d *Device) Close() error {
	err := d.Stop()
	d.frameMu.Lock()
	d.latest.Close()
	d.frameMu.Unlock()
	return err
}

// Verify Device implements camera.Device at compile time.
var _ camera.Device = (*Device)(nil)
