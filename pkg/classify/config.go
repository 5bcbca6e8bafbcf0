package classify

import (
	"log/slog"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Model artifact
	ModelPath  string // ONNX model file
	LabelsPath string // One label per line, index = output class

	// Preprocessing for the ONNX backend
	InputWidth  int
	InputHeight int
	Scale       float64    // Pixel scale, 1/255 maps bytes to [0,1]
	Mean        [3]float64 // Per-channel mean (RGB) on the scaled values
	Std         [3]float64 // Per-channel std (RGB); zero leaves a channel undivided
	SwapRB      bool       // OpenCV decodes BGR; most models want RGB
	Softmax     bool       // Apply softmax to raw logits

	// TopK limits the returned observations; 0 keeps all.
	TopK int

	// Ollama backend
	BaseURL string // e.g. http://localhost:11434
	Model   string // Vision model name
	MaxDim  int    // Long edge the image is downscaled to before upload

	// Timeout bounds a single Classify call.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithModelPath sets the ONNX model file.
func WithModelPath(path string) Option {
	return func(c *Config) { c.ModelPath = path }
}

// WithLabelsPath sets the labels file.
func WithLabelsPath(path string) Option {
	return func(c *Config) { c.LabelsPath = path }
}

// WithInputSize sets the network input size.
func WithInputSize(w, h int) Option {
	return func(c *Config) {
		c.InputWidth = w
		c.InputHeight = h
	}
}

// WithNormalization sets the scale and the per-channel mean and std. The
// network sees (pixel*scale - mean) / std.
func WithNormalization(scale float64, mean, std [3]float64) Option {
	return func(c *Config) {
		c.Scale = scale
		c.Mean = mean
		c.Std = std
	}
}

// WithSoftmax toggles softmax over the network output.
func WithSoftmax(on bool) Option {
	return func(c *Config) { c.Softmax = on }
}

// WithTopK limits the number of observations returned.
func WithTopK(k int) Option {
	return func(c *Config) { c.TopK = k }
}

// WithBaseURL sets the Ollama server URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the Ollama vision model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxDim sets the upload downscale bound.
func WithMaxDim(px int) Option {
	return func(c *Config) { c.MaxDim = px }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a MobileNetV2 ImageNet model.
func DefaultConfig() *Config {
	return &Config{
		ModelPath:   "models/mobilenetv2-12.onnx",
		LabelsPath:  "models/imagenet_labels.txt",
		InputWidth:  224,
		InputHeight: 224,
		Scale:       1.0 / 255.0,
		Mean:        [3]float64{0.485, 0.456, 0.406},
		Std:         [3]float64{0.229, 0.224, 0.225},
		SwapRB:      true,
		Softmax:     true,
		TopK:        5,
		BaseURL:     "http://localhost:11434",
		Model:       "llava",
		MaxDim:      512,
		Timeout:     30 * time.Second,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
