package camera

import (
	"context"
	"sync"
	"time"
)

// Mock implements Device for testing.
type Mock struct {
	// ConfigureFunc is called when Configure is invoked. If nil, succeeds.
	ConfigureFunc func(cfg Config) error

	// CaptureFunc produces the delivered photo. If nil, a small fake JPEG
	// is delivered.
	CaptureFunc func(flash FlashMode) (Photo, error)

	// Hold, when set, delays every delivery until it is closed.
	Hold chan struct{}

	mu         sync.Mutex
	configured bool
	running    bool
	calls      []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Flash  FlashMode
	Time   time.Time
}

// FakeJPEG is the payload delivered by a default Mock capture.
var FakeJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0xFF, 0xD9}

// NewMock creates a mock device that captures FakeJPEG.
func NewMock() *Mock {
	return &Mock{}
}

// Configure records the call and marks the device configured.
func (m *Mock) Configure(cfg Config) error {
	m.record("Configure", FlashOff)
	if m.ConfigureFunc != nil {
		if err := m.ConfigureFunc(cfg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.configured = true
	m.mu.Unlock()
	return nil
}

// Start marks the device running.
func (m *Mock) Start() error {
	m.record("Start", FlashOff)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.configured {
		return ErrNotConfigured
	}
	m.running = true
	return nil
}

// Stop marks the device stopped.
func (m *Mock) Stop() error {
	m.record("Stop", FlashOff)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// Running reports the running flag.
func (m *Mock) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Frame returns FakeJPEG while running.
func (m *Mock) Frame() ([]byte, error) {
	if !m.Running() {
		return nil, ErrNotRunning
	}
	return FakeJPEG, nil
}

// Capture delivers asynchronously, exactly once.
func (m *Mock) Capture(flash FlashMode, deliver func(Photo, error)) {
	m.record("Capture", flash)
	go func() {
		if m.Hold != nil {
			<-m.Hold
		}
		if m.CaptureFunc != nil {
			deliver(m.CaptureFunc(flash))
			return
		}
		deliver(Photo{Data: FakeJPEG, Width: 1, Height: 1, Flash: flash, Taken: time.Now()}, nil)
	}()
}

func (m *Mock) record(method string, flash FlashMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Flash: flash, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// MockAuthorizer implements Authorizer for testing.
type MockAuthorizer struct {
	mu       sync.Mutex
	state    Authorization
	answer   Authorization
	requests int
}

// NewMockAuthorizer starts in state; Request moves NotDetermined to answer.
func NewMockAuthorizer(state, answer Authorization) *MockAuthorizer {
	return &MockAuthorizer{state: state, answer: answer}
}

// Status returns the current state.
func (a *MockAuthorizer) Status() Authorization {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Request resolves NotDetermined to the configured answer.
func (a *MockAuthorizer) Request(ctx context.Context) (Authorization, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	if a.state == NotDetermined {
		a.state = a.answer
	}
	return a.state, nil
}

// Requests returns how many times Request was called.
func (a *MockAuthorizer) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// MockOpener implements SettingsOpener for testing.
type MockOpener struct {
	mu    sync.Mutex
	opens int
	Err   error
}

// Open records the call.
func (o *MockOpener) Open(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	return o.Err
}

// Opens returns how many times Open was called.
func (o *MockOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Device         = (*Mock)(nil)
	_ Authorizer     = (*MockAuthorizer)(nil)
	_ SettingsOpener = (*MockOpener)(nil)
)
