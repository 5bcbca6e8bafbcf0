// Package ollama classifies images with a vision model served by Ollama.
// The model is asked for a ranked JSON list of labels, which makes any
// multimodal model usable as a drop-in classifier.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/teslashibe/strawberry-or-nah/internal/httpc"
	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
)

const providerName = "ollama"

// Prompt asks for labels in the same vocabulary as the ONNX model.
const Prompt = `Identify the main object in this photo.
Reply with JSON only: {"labels":[{"label":"<lowercase common name>","confidence":<0..1>}]}
List up to 5 candidates, most likely first. Use "strawberry" for a strawberry.`

// schema constrains the model output.
var schema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "labels": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "confidence": {"type": "number"}
        },
        "required": ["label", "confidence"]
      }
    }
  },
  "required": ["labels"]
}`)

// Classifier is a classify.Provider backed by an Ollama vision model.
type Classifier struct {
	client *api.Client
	config *classify.Config
	logger *slog.Logger
}

// New creates a classifier for the configured server and model.
func New(opts ...classify.Option) (*Classifier, error) {
	cfg := classify.DefaultConfig()
	cfg.Apply(opts...)

	if cfg.Model == "" {
		return nil, classify.WrapError(providerName, errors.New("model required"))
	}

	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Host == "" {
		return nil, classify.WrapError(providerName, fmt.Errorf("invalid URL %q", cfg.BaseURL))
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		client: api.NewClient(base, httpc.NewClient(0)),
		config: cfg,
		logger: logger.With("component", "classify.ollama"),
	}, nil
}

// Classify downscales the image and asks the model for ranked labels.
func (c *Classifier) Classify(ctx context.Context, data []byte) ([]classify.Observation, error) {
	if len(data) == 0 {
		return nil, classify.WrapError(providerName, classify.ErrEmptyImage)
	}
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()

	img, err := classify.Downscale(data, c.config.MaxDim)
	if err != nil {
		return nil, classify.WrapError(providerName, err)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.config.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: Prompt,
				Images:  []api.ImageData{api.ImageData(img)},
			},
		},
		Stream:  &stream,
		Format:  schema,
		Options: map[string]any{"temperature": 0},
	}

	var content strings.Builder
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, classify.WrapError(providerName, fmt.Errorf("chat: %w", err))
	}

	obs, err := ParseResponse(content.String())
	if err != nil {
		return nil, classify.WrapError(providerName, err)
	}
	obs = classify.Top(classify.Rank(obs), c.config.TopK)

	c.logger.Debug("classified",
		"model", c.config.Model,
		"top", obs[0].Label,
		"confidence", obs[0].Confidence,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return obs, nil
}

// Health pings the server.
func (c *Classifier) Health(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return classify.WrapError(providerName, err)
	}
	return nil
}

// Close is a no-op; the HTTP client needs no teardown.
func (c *Classifier) Close() error {
	return nil
}

type response struct {
	Labels []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"labels"`
}

// ParseResponse extracts observations from the model reply. Text around
// the JSON object is ignored; labels are normalized and confidences
// clamped to [0,1].
func ParseResponse(content string) ([]classify.Observation, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %q", truncate(content, 80))
	}

	var resp response
	if err := json.Unmarshal([]byte(content[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	obs := make([]classify.Observation, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		label := classify.NormalizeLabel(l.Label)
		if label == "" {
			continue
		}
		obs = append(obs, classify.Observation{Label: label, Confidence: classify.Clamp(l.Confidence)})
	}
	if len(obs) == 0 {
		return nil, errors.New("response has no labels")
	}
	return obs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Verify Classifier implements classify.Provider at compile time.
var _ classify.Provider = (*Classifier)(nil)
