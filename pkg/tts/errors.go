package tts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoAPIKey is returned by hosted backends built without a key.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrEmptyText is returned when there is nothing to say.
	ErrEmptyText = errors.New("tts: empty text")

	// ErrProviderUnavailable means no backend could speak.
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// APIError is a non-200 answer from a hosted speech endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string // provider error code, when given
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tts [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tts [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports rate limiting and server-side failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ProviderError tags an error with the backend that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// WrapError tags err with provider. A nil err stays nil and an error
// already tagged is returned unchanged.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError lists every backend's failure, in the order they were tried.
type ChainError struct {
	Failures []*ProviderError
}

func (e *ChainError) add(provider string, err error) {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		pe = &ProviderError{Provider: provider, Err: err}
	}
	e.Failures = append(e.Failures, pe)
}

// Providers returns the names of the backends that failed.
func (e *ChainError) Providers() []string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Provider
	}
	return names
}

func (e *ChainError) Error() string {
	if len(e.Failures) == 0 {
		return ErrProviderUnavailable.Error()
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Provider, f.Err)
	}
	return "tts: every backend failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes each failure to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Is matches ErrProviderUnavailable.
func (e *ChainError) Is(target error) bool {
	return target == ErrProviderUnavailable
}
