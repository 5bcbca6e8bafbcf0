// Package onnx runs a pre-trained ONNX image classifier through OpenCV's
// DNN module.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
	"gocv.io/x/gocv"
)

const providerName = "onnx"

// Classifier is a classify.Provider backed by a gocv.Net.
type Classifier struct {
	net    gocv.Net
	labels []string
	config *classify.Config
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New loads the model and labels.
func New(opts ...classify.Option) (*Classifier, error) {
	cfg := classify.DefaultConfig()
	cfg.Apply(opts...)

	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, os.ErrNotExist) {
		return nil, classify.WrapError(providerName, fmt.Errorf("%w: %s", classify.ErrModelNotFound, cfg.ModelPath))
	}

	labels, err := classify.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, classify.WrapError(providerName, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, classify.WrapError(providerName, fmt.Errorf("failed to load model from %s", cfg.ModelPath))
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "classify.onnx")
	logger.Info("model loaded",
		"model", cfg.ModelPath,
		"labels", len(labels),
		"input", fmt.Sprintf("%dx%d", cfg.InputWidth, cfg.InputHeight),
	)

	return &Classifier{
		net:    net,
		labels: labels,
		config: cfg,
		logger: logger,
	}, nil
}

// Classify decodes the JPEG, runs a forward pass and ranks the classes.
func (c *Classifier) Classify(ctx context.Context, data []byte) ([]classify.Observation, error) {
	if len(data) == 0 {
		return nil, classify.WrapError(providerName, classify.ErrEmptyImage)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify.WrapError(providerName, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, classify.WrapError(providerName, errors.New("classifier closed"))
	}

	start := time.Now()

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, classify.WrapError(providerName, fmt.Errorf("decode image: %w", err))
	}
	defer img.Close()
	if img.Empty() {
		return nil, classify.WrapError(providerName, classify.ErrEmptyImage)
	}

	blob, err := Blob(img, c.config)
	if err != nil {
		return nil, classify.WrapError(providerName, err)
	}
	defer blob.Close()

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	scores, err := out.DataPtrFloat32()
	if err != nil {
		return nil, classify.WrapError(providerName, fmt.Errorf("read output: %w", err))
	}

	obs := Observations(scores, c.labels, c.config.Softmax)
	if len(obs) == 0 {
		return nil, classify.WrapError(providerName, errors.New("model produced no scores"))
	}
	obs = classify.Top(classify.Rank(obs), c.config.TopK)

	c.logger.Debug("classified",
		"top", obs[0].Label,
		"confidence", obs[0].Confidence,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return obs, nil
}

// Blob turns a BGR image into the NCHW float input the network expects:
// resized, channel-swapped when configured, and normalized per channel to
// (pixel*Scale - Mean) / Std. The caller closes the returned Mat.
func Blob(img gocv.Mat, cfg *classify.Config) (gocv.Mat, error) {
	scale := cfg.Scale
	if scale == 0 {
		scale = 1
	}
	// BlobFromImage subtracts mean before scaling, so the mean is given
	// in raw pixel units.
	mean := gocv.NewScalar(
		cfg.Mean[0]/scale,
		cfg.Mean[1]/scale,
		cfg.Mean[2]/scale,
		0,
	)
	size := image.Pt(cfg.InputWidth, cfg.InputHeight)

	blob := gocv.BlobFromImage(img, scale, size, mean, cfg.SwapRB, false)
	data, err := blob.DataPtrFloat32()
	if err != nil {
		blob.Close()
		return gocv.Mat{}, fmt.Errorf("read blob: %w", err)
	}
	Standardize(data, cfg.InputWidth*cfg.InputHeight, cfg.Std)
	return blob, nil
}

// Health reports whether the network is loaded.
func (c *Classifier) Health(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.net.Empty() {
		return classify.WrapError(providerName, classify.ErrModelNotFound)
	}
	return nil
}

// Close releases the network.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}

// Verify Classifier implements classify.Provider at compile time.
var _ classify.Provider = (*Classifier)(nil)
