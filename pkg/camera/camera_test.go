package camera

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Preset != PresetHD1920x1080 {
		t.Errorf("expected preset %s, got %s", PresetHD1920x1080, cfg.Preset)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should be valid: %v", errs)
	}
	if cfg.DevicePath() != "/dev/video0" {
		t.Errorf("unexpected device path %s", cfg.DevicePath())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"valid", func(c *Config) {}, 0},
		{"tiny width", func(c *Config) { c.Width = 10 }, 1},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, 1},
		{"bad quality", func(c *Config) { c.Quality = 101 }, 1},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"unknown preset", func(c *Config) { c.Preset = "8k" }, 1},
		{"long flash settle", func(c *Config) { c.FlashSettleMs = 5000 }, 1},
		{"several", func(c *Config) { c.Width = 0; c.Height = 0 }, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if got := len(cfg.Validate()); got != tc.errs {
				t.Errorf("got %d errors, want %d: %v", got, tc.errs, cfg.Validate())
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Fatalf("preset %s missing", name)
		}
		if p.Preset != name {
			t.Errorf("preset %s reports name %s", name, p.Preset)
		}
		if errs := p.Validate(); len(errs) > 0 {
			t.Errorf("preset %s invalid: %v", name, errs)
		}
	}
	if GetPreset("nope") != nil {
		t.Error("expected nil for unknown preset")
	}

	cfg := DefaultConfig()
	cfg.TorchPath = "/sys/class/leds/torch"
	cfg, ok := ApplyPreset(cfg, PresetVGA640x480)
	if !ok || cfg.Width != 640 || cfg.TorchPath == "" {
		t.Errorf("ApplyPreset lost settings: %+v", cfg)
	}
}

func TestFlashToggle(t *testing.T) {
	f := FlashOff
	if f.Label() != "FLASH OFF" {
		t.Errorf("unexpected label %q", f.Label())
	}

	on := f.Toggle()
	if on != FlashOn || on.Label() != "FLASH ON" {
		t.Errorf("expected FLASH ON, got %v %q", on, on.Label())
	}

	back := on.Toggle()
	if back != f || back.Label() != f.Label() {
		t.Errorf("double toggle should restore %v, got %v", f, back)
	}
}

func TestSessionUpdateConfig(t *testing.T) {
	s := NewSession(Config{})

	var applied Config
	s.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	err := s.UpdateConfig(map[string]any{
		"preset":  PresetHD1280x720,
		"quality": float64(70),
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if applied.Width != 1280 || applied.Quality != 70 {
		t.Errorf("callback got %+v", applied)
	}
	if s.Config().Height != 720 {
		t.Errorf("session not updated: %+v", s.Config())
	}

	t.Run("unknown preset", func(t *testing.T) {
		if err := s.UpdateConfig(map[string]any{"preset": "8k"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid value rejected", func(t *testing.T) {
		if err := s.UpdateConfig(map[string]any{"width": float64(1)}); err == nil {
			t.Error("expected validation error")
		}
		if s.Config().Width != 1280 {
			t.Error("invalid update must not be stored")
		}
	})

	t.Run("callback error", func(t *testing.T) {
		s.OnConfigChange = func(Config) error { return errors.New("busy") }
		if err := s.UpdateConfig(map[string]any{"quality": float64(60)}); err == nil {
			t.Error("expected callback error")
		}
	})
}

func TestCaptureError(t *testing.T) {
	err := WrapCapture(errors.New("read failed"))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Error("CaptureError should match ErrCaptureFailed")
	}
	if WrapCapture(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestLEDTorch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "max_brightness"), []byte("255\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "brightness"), []byte("0"), 0o644); err != nil {
		t.Fatal(err)
	}

	torch := NewTorch(dir)
	if err := torch.Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "brightness"))
	if string(data) != "255" {
		t.Errorf("expected 255, got %q", data)
	}

	if err := torch.Set(false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "brightness"))
	if string(data) != "0" {
		t.Errorf("expected 0, got %q", data)
	}

	if _, ok := NewTorch("").(NoTorch); !ok {
		t.Error("empty path should give NoTorch")
	}
}

func TestCheckDevice(t *testing.T) {
	err := CheckDevice(filepath.Join(t.TempDir(), "video9"))
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got %v", err)
	}

	regular := filepath.Join(t.TempDir(), "video0")
	os.WriteFile(regular, nil, 0o644)
	if err := CheckDevice(regular); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("regular file should not count as a camera, got %v", err)
	}
}

func TestDeviceAuthorizerMissingNode(t *testing.T) {
	a := &DeviceAuthorizer{Path: filepath.Join(t.TempDir(), "video0")}
	if a.Status() != Authorized {
		t.Errorf("missing node should defer to Configure, got %v", a.Status())
	}
	got, err := a.Request(context.Background())
	if err != nil || got != Authorized {
		t.Errorf("Request = %v, %v", got, err)
	}
}

func TestSessionAuthorizerFollowsDevice(t *testing.T) {
	s := NewSession(DefaultConfig())
	a := NewSessionAuthorizer(s)
	if got := a.DevicePath(); got != "/dev/video0" {
		t.Fatalf("DevicePath = %q, want /dev/video0", got)
	}

	if err := s.UpdateConfig(map[string]any{"device": float64(3)}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if got := a.DevicePath(); got != "/dev/video3" {
		t.Errorf("DevicePath after device change = %q, want /dev/video3", got)
	}

	fixed := NewDeviceAuthorizer(DefaultConfig())
	if got := fixed.DevicePath(); got != "/dev/video0" {
		t.Errorf("fixed DevicePath = %q", got)
	}
}

func TestMockCaptureDeliversOnce(t *testing.T) {
	m := NewMock()
	if err := m.Start(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Start before Configure: %v", err)
	}
	m.Configure(DefaultConfig())
	m.Start()

	got := make(chan Photo, 2)
	m.Capture(FlashOn, func(p Photo, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got <- p
	})

	select {
	case p := <-got:
		if p.Flash != FlashOn || p.Empty() {
			t.Errorf("unexpected photo %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}

	select {
	case <-got:
		t.Fatal("second delivery")
	case <-time.After(50 * time.Millisecond):
	}

	if m.CallCount("Capture") != 1 {
		t.Errorf("expected 1 capture, got %d", m.CallCount("Capture"))
	}
}

func TestMockAuthorizer(t *testing.T) {
	a := NewMockAuthorizer(NotDetermined, Authorized)
	if a.Status() != NotDetermined {
		t.Fatal("expected not determined")
	}
	got, _ := a.Request(context.Background())
	if got != Authorized || a.Requests() != 1 {
		t.Errorf("Request = %v after %d calls", got, a.Requests())
	}
}
