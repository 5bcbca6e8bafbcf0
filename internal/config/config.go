// Package config loads strawberry-or-nah configuration from an optional
// YAML file, then environment overrides. Command-line flags are applied
// last by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/strawberry-or-nah/pkg/camera"
)

// Backend names.
const (
	ClassifierONNX   = "onnx"
	ClassifierOllama = "ollama"
	SpeechOpenAI     = "openai"
	SpeechEspeak     = "espeak"
)

// ServerConfig configures the screen's HTTP server.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
}

// PermissionConfig configures the settings redirect.
type PermissionConfig struct {
	// SettingsCommand opens the host's privacy settings.
	SettingsCommand string `yaml:"settings_command"`
}

// ClassifierConfig selects and tunes the image classifiers. Backends are
// tried in order.
type ClassifierConfig struct {
	Backends    []string `yaml:"backends"`
	ModelPath   string   `yaml:"model_path"`
	LabelsPath  string   `yaml:"labels_path"`
	InputSize   int      `yaml:"input_size"`
	TopK        int      `yaml:"top_k"`
	OllamaHost  string   `yaml:"ollama_host"`
	OllamaModel string   `yaml:"ollama_model"`
	MaxDim      int      `yaml:"max_dim"`
}

// SpeechConfig selects and tunes text-to-speech. Backends are tried in order.
type SpeechConfig struct {
	Backends      []string `yaml:"backends"`
	OpenAIKey     string   `yaml:"-"` // env only
	OpenAIVoice   string   `yaml:"openai_voice"`
	OpenAIModel   string   `yaml:"openai_model"`
	EspeakVoice   string   `yaml:"espeak_voice"`
	EspeakSpeed   int      `yaml:"espeak_speed"`
	PlayerCommand string   `yaml:"player_command"`
}

// PipelineConfig holds per-stage timeouts.
type PipelineConfig struct {
	CaptureTimeout  time.Duration `yaml:"capture_timeout"`
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	SpeakTimeout    time.Duration `yaml:"speak_timeout"`
}

// Config aggregates all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Camera     camera.Config    `yaml:"camera"`
	Permission PermissionConfig `yaml:"permission"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Speech     SpeechConfig     `yaml:"speech"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:          ":8080",
			ThumbnailSize: 320,
		},
		Camera: camera.DefaultConfig(),
		Permission: PermissionConfig{
			SettingsCommand: strings.Join(camera.DefaultSettingsCommand, " "),
		},
		Classifier: ClassifierConfig{
			Backends:    []string{ClassifierONNX},
			ModelPath:   "models/mobilenetv2-12.onnx",
			LabelsPath:  "models/imagenet_labels.txt",
			InputSize:   224,
			TopK:        5,
			OllamaHost:  "http://localhost:11434",
			OllamaModel: "llava",
			MaxDim:      512,
		},
		Speech: SpeechConfig{
			Backends:      []string{SpeechOpenAI, SpeechEspeak},
			OpenAIVoice:   "alloy",
			OpenAIModel:   "tts-1",
			EspeakVoice:   "en-us",
			PlayerCommand: "ffplay -nodisp -autoexit -loglevel quiet -",
		},
		Pipeline: PipelineConfig{
			CaptureTimeout:  10 * time.Second,
			ClassifyTimeout: 30 * time.Second,
			SpeakTimeout:    30 * time.Second,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = SplitList(v)
		}
	}

	str("STRAWBERRY_LOG_LEVEL", &c.LogLevel)
	str("STRAWBERRY_ADDR", &c.Server.Addr)
	str("STRAWBERRY_TORCH", &c.Camera.TorchPath)
	str("STRAWBERRY_MODEL", &c.Classifier.ModelPath)
	str("STRAWBERRY_LABELS", &c.Classifier.LabelsPath)
	str("STRAWBERRY_OLLAMA_MODEL", &c.Classifier.OllamaModel)
	str("STRAWBERRY_PLAYER", &c.Speech.PlayerCommand)
	str("STRAWBERRY_SETTINGS_COMMAND", &c.Permission.SettingsCommand)
	str("OLLAMA_HOST", &c.Classifier.OllamaHost)
	str("OPENAI_API_KEY", &c.Speech.OpenAIKey)
	list("STRAWBERRY_CLASSIFIERS", &c.Classifier.Backends)
	list("STRAWBERRY_SPEECH", &c.Speech.Backends)

	if v, ok := lookup("STRAWBERRY_CAMERA_DEVICE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STRAWBERRY_CAMERA_DEVICE: %w", err)
		}
		c.Camera.Device = n
	}

	if v, ok := lookup("STRAWBERRY_PRESET"); ok && v != "" {
		cfg, found := camera.ApplyPreset(c.Camera, v)
		if !found {
			return fmt.Errorf("STRAWBERRY_PRESET: unknown preset %q", v)
		}
		c.Camera = cfg
	}
	return nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	for _, msg := range c.Camera.Validate() {
		errs = append(errs, fmt.Errorf("camera: %s", msg))
	}

	if len(c.Classifier.Backends) == 0 {
		errs = append(errs, errors.New("classifier.backends must name at least one backend"))
	}
	for _, b := range c.Classifier.Backends {
		switch b {
		case ClassifierONNX:
			if c.Classifier.ModelPath == "" || c.Classifier.LabelsPath == "" {
				errs = append(errs, errors.New("classifier: onnx needs model_path and labels_path"))
			}
		case ClassifierOllama:
			if c.Classifier.OllamaHost == "" || c.Classifier.OllamaModel == "" {
				errs = append(errs, errors.New("classifier: ollama needs ollama_host and ollama_model"))
			}
		default:
			errs = append(errs, fmt.Errorf("classifier: unknown backend %q", b))
		}
	}
	if c.Classifier.InputSize < 32 {
		errs = append(errs, errors.New("classifier.input_size must be >= 32"))
	}

	if len(c.Speech.Backends) == 0 {
		errs = append(errs, errors.New("speech.backends must name at least one backend"))
	}
	for _, b := range c.Speech.Backends {
		if b != SpeechOpenAI && b != SpeechEspeak {
			errs = append(errs, fmt.Errorf("speech: unknown backend %q", b))
		}
	}
	if strings.TrimSpace(c.Speech.PlayerCommand) == "" {
		errs = append(errs, errors.New("speech.player_command is required"))
	}

	if c.Pipeline.CaptureTimeout <= 0 || c.Pipeline.ClassifyTimeout <= 0 || c.Pipeline.SpeakTimeout <= 0 {
		errs = append(errs, errors.New("pipeline timeouts must be positive"))
	}

	return errors.Join(errs...)
}

// SpeechBackends returns the configured speech backends, skipping OpenAI
// when no API key is set.
func (c *Config) SpeechBackends() []string {
	var out []string
	for _, b := range c.Speech.Backends {
		if b == SpeechOpenAI && c.Speech.OpenAIKey == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
