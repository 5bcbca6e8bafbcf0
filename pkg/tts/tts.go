// Package tts turns text into audio.
//
// Two backends are provided: OpenAI's hosted speech endpoint and a local
// espeak-ng process. Both implement Provider, and Chain falls back from
// one to the next so the screen still talks when offline.
//
// Example usage:
//
//	provider, _ := tts.NewEspeak(tts.WithVoice("en-us"))
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Strawberry")
//	// result.Audio contains a WAV file
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Name identifies the backend in results, errors and logs.
	Name() string

	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks the provider is usable.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is one synthesized utterance.
type AudioResult struct {
	// Provider names the backend that produced the audio.
	Provider string

	// Attempts counts the backends tried, including the one that spoke.
	// It is 1 unless a Chain fell back.
	Attempts int

	// Audio contains an encoded audio file in Format.
	Audio []byte

	// Format describes the encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated playback duration, when known.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// Encoding represents audio container/codec types.
type Encoding string

const (
	EncodingMP3 Encoding = "mp3"
	EncodingWAV Encoding = "wav"
)
