// Package speech speaks result text aloud.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// ErrSpeechFailed is matched by every error delivered to a completion callback.
var ErrSpeechFailed = errors.New("speech: failed")

// Speaker speaks one utterance at a time. done is called exactly once,
// from another goroutine, when the utterance finishes or fails.
type Speaker interface {
	Speak(ctx context.Context, text string, done func(error))
}

// Error marks a synthesis or playback failure.
type Error struct {
	Stage string // "synthesize" or "play"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("speech: %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrSpeechFailed.
func (e *Error) Is(target error) bool { return target == ErrSpeechFailed }
