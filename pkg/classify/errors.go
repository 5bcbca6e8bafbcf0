package classify

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrInferenceFailed marks every classification failure.
	ErrInferenceFailed = errors.New("classify: inference failed")

	// ErrModelNotFound is returned when the model artifact is missing.
	ErrModelNotFound = errors.New("classify: model not found")

	// ErrNoLabels is returned when the labels file is empty.
	ErrNoLabels = errors.New("classify: no labels")

	// ErrEmptyImage is returned for empty or undecodable input.
	ErrEmptyImage = errors.New("classify: empty image")

	// ErrNoProviders is returned when a chain has no providers.
	ErrNoProviders = errors.New("classify: no providers")
)

// APIError represents an error response from a classification service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the service.
	Message string

	// Provider identifies which provider returned the error.
	Provider string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("classify [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ProviderError wraps an error with provider context. It always matches
// ErrInferenceFailed.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("classify [%s]: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports ErrInferenceFailed for every ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrInferenceFailed
}

// WrapError wraps an error with provider context.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// ChainError aggregates errors from all providers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "classify chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("classify chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("classify chain: all %d providers failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// Is reports ErrInferenceFailed for every ChainError.
func (e *ChainError) Is(target error) bool {
	return target == ErrInferenceFailed
}
