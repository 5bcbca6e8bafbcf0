package screen

import (
	"log/slog"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"github.com/teslashibe/strawberry-or-nah/pkg/speech"
)

// Default stage timeouts.
const (
	DefaultCaptureTimeout  = 10 * time.Second
	DefaultClassifyTimeout = 30 * time.Second
	DefaultSpeakTimeout    = 30 * time.Second
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Device     camera.Device
	Authorizer camera.Authorizer
	Opener     camera.SettingsOpener
	Classifier classify.Provider
	Speaker    speech.Speaker
}

// Config holds controller configuration.
type Config struct {
	Camera camera.Config

	CaptureTimeout  time.Duration
	ClassifyTimeout time.Duration
	SpeakTimeout    time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring the controller.
type Option func(*Config)

// WithCamera sets the camera configuration applied on Appear.
func WithCamera(cfg camera.Config) Option {
	return func(c *Config) { c.Camera = cfg }
}

// WithTimeouts sets the per-stage timeouts. Zero leaves a value unchanged.
func WithTimeouts(capture, classify, speak time.Duration) Option {
	return func(c *Config) {
		if capture > 0 {
			c.CaptureTimeout = capture
		}
		if classify > 0 {
			c.ClassifyTimeout = classify
		}
		if speak > 0 {
			c.SpeakTimeout = speak
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() *Config {
	return &Config{
		Camera:          camera.DefaultConfig(),
		CaptureTimeout:  DefaultCaptureTimeout,
		ClassifyTimeout: DefaultClassifyTimeout,
		SpeakTimeout:    DefaultSpeakTimeout,
		Logger:          slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
