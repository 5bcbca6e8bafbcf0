// Package classify hands captured images to a pre-trained image
// classifier and returns a ranked list of labels.
//
// Backends live in subpackages: onnx runs a local model through OpenCV's
// DNN module, ollama asks a vision model served by Ollama. Both implement
// Provider, and Chain falls back from one to the next.
//
// Example usage:
//
//	p, _ := onnx.New(
//	    classify.WithModelPath("models/mobilenetv2.onnx"),
//	    classify.WithLabelsPath("models/imagenet.txt"),
//	)
//	defer p.Close()
//
//	obs, _ := p.Classify(ctx, photo.Data)
//	fmt.Println(obs[0].Label, obs[0].Confidence)
package classify

import (
	"context"
	"sort"
)

// Provider classifies JPEG images.
type Provider interface {
	// Classify returns observations ordered by descending confidence.
	Classify(ctx context.Context, image []byte) ([]Observation, error)

	// Health checks that the model is loaded or the service is reachable.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Observation is one (label, confidence) pair. Confidence is in [0,1].
type Observation struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Rank sorts observations by descending confidence in place. Equal
// confidences keep their input order.
func Rank(obs []Observation) []Observation {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Confidence > obs[j].Confidence
	})
	return obs
}

// Top returns at most n observations. n <= 0 returns all of them.
func Top(obs []Observation, n int) []Observation {
	if n <= 0 || n >= len(obs) {
		return obs
	}
	return obs[:n]
}

// Clamp limits a confidence to [0,1].
func Clamp(c float64) float64 {
	switch {
	case c < 0 || c != c:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
