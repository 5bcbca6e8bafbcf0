package speech

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/strawberry-or-nah/pkg/tts"
)

// Player plays an encoded audio clip and blocks until it ends.
type Player interface {
	Play(ctx context.Context, data []byte) error
}

// Synth speaks by synthesizing text with a TTS provider and handing the
// audio to a player.
type Synth struct {
	provider tts.Provider
	player   Player
	logger   *slog.Logger
}

// NewSynth creates a Speaker.
func NewSynth(provider tts.Provider, player Player, logger *slog.Logger) *Synth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synth{
		provider: provider,
		player:   player,
		logger:   logger.With("component", "speech.synth"),
	}
}

// Speak synthesizes and plays text in the background.
func (s *Synth) Speak(ctx context.Context, text string, done func(error)) {
	go func() {
		err := s.say(ctx, text)
		if done != nil {
			done(err)
		}
	}()
}

// Say is the blocking form of Speak.
func (s *Synth) Say(ctx context.Context, text string) error {
	return s.say(ctx, text)
}

func (s *Synth) say(ctx context.Context, text string) error {
	start := time.Now()
	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return &Error{Stage: "synthesize", Err: err}
	}
	s.logger.Info("spoke",
		"text", text,
		"backend", result.Provider,
		"attempts", result.Attempts,
		"latency_ms", time.Since(start).Milliseconds(),
		"bytes", len(result.Audio),
		"encoding", result.Format.Encoding,
	)

	if err := s.player.Play(ctx, result.Audio); err != nil {
		return &Error{Stage: "play", Err: err}
	}
	return nil
}

var _ Speaker = (*Synth)(nil)
