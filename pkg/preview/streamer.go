// Package preview streams live camera frames to websocket viewers.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
)

// Source yields the latest preview frame as JPEG.
type Source interface {
	Running() bool
	Frame() ([]byte, error)
}

// Sink receives encoded frames.
type Sink interface {
	BroadcastBinary(data []byte)
	ClientCount() int
}

// Streamer polls a Source at a fixed rate and forwards frames to a Sink
// while anyone is watching.
type Streamer struct {
	source   Source
	sink     Sink
	interval time.Duration
	logger   *slog.Logger

	frames atomic.Int64
}

// New creates a streamer running at fps frames per second. fps <= 0 uses
// the default camera frame rate.
func New(source Source, sink Sink, fps int, logger *slog.Logger) *Streamer {
	if fps <= 0 {
		fps = camera.DefaultConfig().Framerate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{
		source:   source,
		sink:     sink,
		interval: time.Second / time.Duration(fps),
		logger:   logger.With("component", "preview.streamer"),
	}
}

// Run forwards frames until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("preview streaming", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("preview stopped", "frames", s.frames.Load())
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Streamer) tick() {
	if s.sink.ClientCount() == 0 || !s.source.Running() {
		return
	}
	frame, err := s.source.Frame()
	if err != nil {
		if !errors.Is(err, camera.ErrNotRunning) {
			s.logger.Debug("frame unavailable", "error", err)
		}
		return
	}
	if len(frame) == 0 {
		return
	}
	s.sink.BroadcastBinary(frame)
	s.frames.Add(1)
}

// Frames returns how many frames have been sent.
func (s *Streamer) Frames() int64 {
	return s.frames.Load()
}
