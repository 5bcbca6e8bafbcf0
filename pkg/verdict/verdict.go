// Package verdict turns a ranked classification into the tri-state
// outcome shown on screen and spoken aloud.
package verdict

import (
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/strawberry-or-nah/pkg/classify"
)

// Threshold is the minimum top confidence for a labelled verdict.
const Threshold = 0.50

// StrawberryLabel is the classifier label that counts as a strawberry.
const StrawberryLabel = "strawberry"

// Display strings.
const (
	TextUnknown       = "I'm not sure what this is. Please try again."
	TextStrawberry    = "Strawberry"
	TextNotStrawberry = "Not a strawberry"
	ConfidencePrefix  = "CONFIDENCE: "
)

// Kind is the presentation state.
type Kind int

const (
	Unknown Kind = iota
	Strawberry
	NotStrawberry
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Strawberry:
		return "strawberry"
	case NotStrawberry:
		return "not_strawberry"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind for JSON snapshots.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Verdict is the interpreted result. Confidence is a whole percentage and
// is only meaningful for Strawberry and NotStrawberry.
type Verdict struct {
	Kind       Kind `json:"kind"`
	Confidence int  `json:"confidence"`
}

// Interpret looks at the first observation only. The list is expected in
// descending confidence order. Confidences outside [0,1] are clamped; NaN
// counts as zero.
func Interpret(obs []classify.Observation) Verdict {
	if len(obs) == 0 {
		return Verdict{Kind: Unknown}
	}
	top := obs[0]
	c := classify.Clamp(top.Confidence)
	if c < Threshold {
		return Verdict{Kind: Unknown}
	}

	pct := int(math.Round(c * 100))
	if strings.TrimSpace(top.Label) == StrawberryLabel {
		return Verdict{Kind: Strawberry, Confidence: pct}
	}
	return Verdict{Kind: NotStrawberry, Confidence: pct}
}

// Identification is the main label text, which is also what gets spoken.
func (v Verdict) Identification() string {
	switch v.Kind {
	case Strawberry:
		return TextStrawberry
	case NotStrawberry:
		return TextNotStrawberry
	default:
		return TextUnknown
	}
}

// ConfidenceText is the secondary label; empty for Unknown.
func (v Verdict) ConfidenceText() string {
	if v.Kind == Unknown {
		return ""
	}
	return fmt.Sprintf("%s%d%%", ConfidencePrefix, v.Confidence)
}

// Speech is the text handed to the speech sink.
func (v Verdict) Speech() string {
	return v.Identification()
}
