package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Camera.Width != 1920 || cfg.Camera.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Pipeline.ClassifyTimeout != 30*time.Second {
		t.Errorf("classify timeout = %v", cfg.Pipeline.ClassifyTimeout)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strawberry.yaml")
	data := `
log_level: debug
server:
  addr: ":9090"
camera:
  device: 2
  width: 1280
  height: 720
  framerate: 30
classifier:
  backends: [ollama, onnx]
  ollama_model: llava:13b
speech:
  backends: [espeak]
  espeak_speed: 170
pipeline:
  classify_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected top level: %q %q", cfg.LogLevel, cfg.Server.Addr)
	}
	if cfg.Camera.Device != 2 || cfg.Camera.Width != 1280 || cfg.Camera.Quality != 85 {
		t.Errorf("camera not merged over defaults: %+v", cfg.Camera)
	}
	if strings.Join(cfg.Classifier.Backends, ",") != "ollama,onnx" {
		t.Errorf("backends = %v", cfg.Classifier.Backends)
	}
	if cfg.Classifier.OllamaModel != "llava:13b" || cfg.Classifier.TopK != 5 {
		t.Errorf("classifier = %+v", cfg.Classifier)
	}
	if cfg.Speech.EspeakSpeed != 170 {
		t.Errorf("espeak speed = %d", cfg.Speech.EspeakSpeed)
	}
	if cfg.Pipeline.ClassifyTimeout != 5*time.Second || cfg.Pipeline.SpeakTimeout != 30*time.Second {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("server: [not, a, map"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("camera:\n  quality: 0\n"), 0o644)
	if _, err := Load(invalid); err == nil || !strings.Contains(err.Error(), "quality") {
		t.Errorf("expected quality validation error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"STRAWBERRY_ADDR":          ":7070",
		"STRAWBERRY_CAMERA_DEVICE": "1",
		"STRAWBERRY_PRESET":        "vga640x480",
		"STRAWBERRY_CLASSIFIERS":   " ollama , onnx ,",
		"STRAWBERRY_SPEECH":        "espeak",
		"OPENAI_API_KEY":           "sk-test",
		"OLLAMA_HOST":              "http://gpu-box:11434",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Server.Addr != ":7070" || cfg.Camera.Device != 1 {
		t.Errorf("unexpected overrides: %q %d", cfg.Server.Addr, cfg.Camera.Device)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Framerate != 30 {
		t.Errorf("preset not applied: %+v", cfg.Camera)
	}
	if strings.Join(cfg.Classifier.Backends, ",") != "ollama,onnx" {
		t.Errorf("classifiers = %v", cfg.Classifier.Backends)
	}
	if cfg.Speech.OpenAIKey != "sk-test" || cfg.Classifier.OllamaHost != "http://gpu-box:11434" {
		t.Errorf("credentials not applied")
	}

	t.Run("bad device", func(t *testing.T) {
		if err := Default().ApplyEnv(env(map[string]string{"STRAWBERRY_CAMERA_DEVICE": "front"})); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad preset", func(t *testing.T) {
		if err := Default().ApplyEnv(env(map[string]string{"STRAWBERRY_PRESET": "8k"})); err == nil {
			t.Error("expected error")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no classifiers", func(c *Config) { c.Classifier.Backends = nil }, "classifier.backends"},
		{"unknown classifier", func(c *Config) { c.Classifier.Backends = []string{"coreml"} }, "unknown backend"},
		{"onnx without model", func(c *Config) { c.Classifier.ModelPath = "" }, "model_path"},
		{"unknown speech", func(c *Config) { c.Speech.Backends = []string{"say"} }, "speech: unknown"},
		{"no player", func(c *Config) { c.Speech.PlayerCommand = " " }, "player_command"},
		{"zero timeout", func(c *Config) { c.Pipeline.SpeakTimeout = 0 }, "timeouts"},
		{"bad camera", func(c *Config) { c.Camera.Framerate = 0 }, "framerate"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSpeechBackends(t *testing.T) {
	cfg := Default()
	if got := cfg.SpeechBackends(); strings.Join(got, ",") != "espeak" {
		t.Errorf("without key: %v", got)
	}
	cfg.Speech.OpenAIKey = "sk"
	if got := cfg.SpeechBackends(); strings.Join(got, ",") != "openai,espeak" {
		t.Errorf("with key: %v", got)
	}
}
