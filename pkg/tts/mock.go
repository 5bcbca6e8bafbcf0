package tts

import (
	"context"
	"sync"
	"time"
)

// Mock is a Provider for tests. Without SynthesizeFunc it answers with
// silent WAV audio lasting 20ms per character.
type Mock struct {
	// ID is returned by Name; "mock" when empty.
	ID string

	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error

	// Delay holds each Synthesize call, or until ctx ends.
	Delay time.Duration

	mu     sync.Mutex
	texts  []string
	counts map[string]int
}

// NewMock returns a healthy mock that always speaks.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose Synthesize and Health fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

// Name implements Provider.
func (m *Mock) Name() string {
	if m.ID == "" {
		return "mock"
	}
	return m.ID
}

// Synthesize records text and returns the configured answer.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.count("Synthesize")
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, WrapError(m.Name(), ctx.Err())
		}
	}
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}

	const rate, msPerChar = 8000, 20
	return &AudioResult{
		Provider:  m.Name(),
		Attempts:  1,
		Audio:     SilentWAV(rate, len(text)*msPerChar),
		Format:    AudioFormat{Encoding: EncodingWAV, SampleRate: rate, Channels: 1},
		Duration:  time.Duration(len(text)*msPerChar) * time.Millisecond,
		CharCount: len(text),
	}, nil
}

// Health calls HealthFunc, healthy when nil.
func (m *Mock) Health(ctx context.Context) error {
	m.count("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.count("Close")
	return nil
}

// Spoken returns every text passed to Synthesize, in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// CallCount returns how often method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[method]
}

func (m *Mock) count(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[method]++
}

var _ Provider = (*Mock)(nil)
