package onnx

import (
	"fmt"
	"math"

	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
)

// Observations pairs raw network scores with labels. Classes without a
// label are named class_<index>.
func Observations(scores []float32, labels []string, softmax bool) []classify.Observation {
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = float64(s)
	}
	if softmax {
		probs = Softmax(probs)
	}

	obs := make([]classify.Observation, len(probs))
	for i, p := range probs {
		label := fmt.Sprintf("class_%d", i)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		obs[i] = classify.Observation{Label: label, Confidence: classify.Clamp(p)}
	}
	return obs
}

// Softmax converts logits to probabilities.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return logits
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Standardize divides each channel plane of an NCHW blob by its std, in
// place. area is the plane size (width*height). Zero std entries are
// skipped.
func Standardize(blob []float32, area int, std [3]float64) {
	if area <= 0 {
		return
	}
	for ch, sd := range std {
		if sd == 0 {
			continue
		}
		start, end := ch*area, (ch+1)*area
		if end > len(blob) {
			return
		}
		inv := float32(1 / sd)
		for i := start; i < end; i++ {
			blob[i] *= inv
		}
	}
}
