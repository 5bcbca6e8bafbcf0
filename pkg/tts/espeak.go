package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	providerEspeak = "espeak"

	// DefaultEspeakBinary is looked up on PATH.
	DefaultEspeakBinary = "espeak-ng"
	DefaultEspeakVoice  = "en-us"
)

// Espeak implements Provider by running a local espeak-ng process that
// writes a WAV file to stdout.
type Espeak struct {
	config *Config
	logger *slog.Logger
}

// NewEspeak creates a local TTS provider. It does not need credentials.
func NewEspeak(opts ...Option) (*Espeak, error) {
	cfg := DefaultConfig()
	cfg.Binary = DefaultEspeakBinary
	cfg.VoiceID = DefaultEspeakVoice
	cfg.Apply(opts...)

	if cfg.Binary == "" {
		cfg.Binary = DefaultEspeakBinary
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultEspeakVoice
	}

	return &Espeak{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.espeak"),
	}, nil
}

// Args returns the command line used to speak text.
func (e *Espeak) Args(text string) []string {
	args := []string{"--stdout", "-v", e.config.VoiceID}
	if e.config.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(e.config.Speed))
	}
	// "--" keeps text starting with a dash from being read as a flag.
	return append(args, "--", text)
}

// Synthesize runs espeak-ng and returns its WAV output.
func (e *Espeak) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerEspeak, ErrEmptyText)
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, e.Args(text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, WrapError(providerEspeak, err)
	}
	if stdout.Len() == 0 {
		return nil, WrapError(providerEspeak, errors.New("no audio produced"))
	}
	latency := time.Since(start).Milliseconds()

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", stdout.Len(),
		"latency_ms", latency,
		"voice", e.config.VoiceID,
	)

	return &AudioResult{
		Provider: providerEspeak,
		Attempts: 1,
		Audio:    stdout.Bytes(),
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: 22050,
			Channels:   1,
		},
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Name implements Provider.
func (e *Espeak) Name() string { return providerEspeak }

// Health reports whether the binary can be found.
func (e *Espeak) Health(ctx context.Context) error {
	if _, err := exec.LookPath(e.config.Binary); err != nil {
		return WrapError(providerEspeak, err)
	}
	return nil
}

// Close is a no-op; each Synthesize call owns its process.
func (e *Espeak) Close() error {
	return nil
}

var _ Provider = (*Espeak)(nil)
