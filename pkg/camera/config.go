// Package camera is the capture device adapter: session configuration,
// flash mode, camera permission and the Device interface that the screen
// controller drives.
package camera

import "fmt"

// Config holds the capture session configuration.
type Config struct {
	// Device is the video device index (0 = /dev/video0).
	Device int `json:"device" yaml:"device"`

	// Preset names the resolution preset the config was built from.
	Preset string `json:"preset" yaml:"preset"`

	Width     int `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Target preview FPS
	Quality   int `json:"quality" yaml:"quality"`     // JPEG quality 1-100

	// TorchPath is a Linux LED class directory used as the flash,
	// e.g. /sys/class/leds/torch. Empty means no flash hardware.
	TorchPath string `json:"torch_path" yaml:"torch_path"`

	// FlashSettleMs is how long the torch burns before the still is grabbed.
	FlashSettleMs int `json:"flash_settle_ms" yaml:"flash_settle_ms"`
}

// Limits for validation.
const (
	MaxWidth       = 4096
	MaxHeight      = 2160
	MaxFramerate   = 60
	MaxFlashSettle = 2000
)

// DefaultConfig returns the back camera at 1920x1080.
func DefaultConfig() Config {
	return Config{
		Device:        0,
		Preset:        PresetHD1920x1080,
		Width:         1920,
		Height:        1080,
		Framerate:     15,
		Quality:       85,
		FlashSettleMs: 150,
	}
}

// DevicePath returns the V4L2 node for the configured device.
func (c Config) DevicePath() string {
	return fmt.Sprintf("/dev/video%d", c.Device)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.FlashSettleMs < 0 || c.FlashSettleMs > MaxFlashSettle {
		errors = append(errors, fmt.Sprintf("flash_settle_ms must be between 0 and %d", MaxFlashSettle))
	}
	if c.Preset != "" && GetPreset(c.Preset) == nil {
		errors = append(errors, fmt.Sprintf("unknown preset %q", c.Preset))
	}

	return errors
}
