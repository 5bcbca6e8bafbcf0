package speech

import (
	"context"
	"sync"
)

// Mock implements Speaker for testing. Utterances are recorded and
// completed asynchronously with the result of SpeakFunc.
type Mock struct {
	// SpeakFunc returns the error delivered to done. If nil, speaking succeeds.
	SpeakFunc func(ctx context.Context, text string) error

	// Hold, when non-nil, delays completion until it is closed or receives.
	Hold chan struct{}

	mu    sync.Mutex
	texts []string
}

// NewMock creates a Speaker that always succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a Speaker whose utterances always fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SpeakFunc: func(ctx context.Context, text string) error {
			return &Error{Stage: "play", Err: err}
		},
	}
}

// Speak records text and completes it in the background.
func (m *Mock) Speak(ctx context.Context, text string, done func(error)) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	go func() {
		if m.Hold != nil {
			select {
			case <-m.Hold:
			case <-ctx.Done():
				if done != nil {
					done(&Error{Stage: "play", Err: ctx.Err()})
				}
				return
			}
		}
		var err error
		if m.SpeakFunc != nil {
			err = m.SpeakFunc(ctx, text)
		}
		if done != nil {
			done(err)
		}
	}()
}

// Spoken returns every utterance in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// CallCount returns the number of Speak calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

var _ Speaker = (*Mock)(nil)
