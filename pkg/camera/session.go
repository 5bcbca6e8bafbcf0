package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Session holds the capture session configuration and applies updates.
type Session struct {
	config Config
	mu     sync.RWMutex

	// OnConfigChange is called after a successful update so the owner can
	// reconfigure the device.
	OnConfigChange func(cfg Config) error
}

// NewSession creates a session with cfg, falling back to DefaultConfig
// when cfg is the zero value.
func NewSession(cfg Config) *Session {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Session{config: cfg}
}

// Config returns the current configuration.
func (s *Session) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig validates and stores cfg, then notifies OnConfigChange.
func (s *Session) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	s.mu.Lock()
	s.config = cfg
	callback := s.OnConfigChange
	s.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}
	return nil
}

// UpdateConfig updates specific fields from a decoded JSON object.
// A "preset" key is applied first so other keys can override it.
func (s *Session) UpdateConfig(params map[string]any) error {
	cfg := s.Config()

	if name, ok := params["preset"].(string); ok {
		var found bool
		if cfg, found = ApplyPreset(cfg, name); !found {
			return fmt.Errorf("unknown preset: %s", name)
		}
	}

	for key, value := range params {
		switch key {
		case "device":
			if v, ok := toInt(value); ok {
				cfg.Device = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "flash_settle_ms":
			if v, ok := toInt(value); ok {
				cfg.FlashSettleMs = v
			}
		case "torch_path":
			if v, ok := value.(string); ok {
				cfg.TorchPath = v
			}
		}
	}

	return s.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
