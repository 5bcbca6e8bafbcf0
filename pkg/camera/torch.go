package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Torch is the light used as a flash during still capture.
type Torch interface {
	Set(on bool) error
}

// NoTorch is used when the camera has no flash hardware.
type NoTorch struct{}

// Set does nothing.
func (NoTorch) Set(bool) error { return nil }

// LEDTorch drives a Linux LED class device (/sys/class/leds/<name>).
type LEDTorch struct {
	Dir string
}

// NewTorch returns an LEDTorch for dir, or NoTorch when dir is empty.
func NewTorch(dir string) Torch {
	if dir == "" {
		return NoTorch{}
	}
	return &LEDTorch{Dir: dir}
}

// Set writes max_brightness (or 0) to the LED's brightness file.
func (t *LEDTorch) Set(on bool) error {
	value := "0"
	if on {
		value = t.maxBrightness()
	}
	path := filepath.Join(t.Dir, "brightness")
	if err := os.WriteFile(path, []byte(value), 0); err != nil {
		return fmt.Errorf("torch: %w", err)
	}
	return nil
}

func (t *LEDTorch) maxBrightness() string {
	data, err := os.ReadFile(filepath.Join(t.Dir, "max_brightness"))
	if err != nil {
		return "1"
	}
	v := strings.TrimSpace(string(data))
	if n, err := strconv.Atoi(v); err != nil || n <= 0 {
		return "1"
	}
	return v
}
