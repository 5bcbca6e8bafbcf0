package tts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Chain speaks through the first backend that succeeds. The result records
// which backend that was and how many were tried.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a chain over providers, tried in the order given.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "tts.chain"),
	}, nil
}

// NewChainWithLogger creates a chain that logs through logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "tts.chain")
	return chain, nil
}

// Name implements Provider.
func (c *Chain) Name() string { return "chain" }

// Synthesize tries each backend in turn. Blank text is rejected before any
// backend is asked.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	var failed ChainError
	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.Synthesize(ctx, text)
		if err != nil {
			c.logger.Warn("speech backend failed", "backend", p.Name(), "error", err)
			failed.add(p.Name(), err)
			continue
		}

		if result.Provider == "" {
			result.Provider = p.Name()
		}
		result.Attempts = i + 1
		if i > 0 {
			c.logger.Info("fell back to another speech backend",
				"backend", result.Provider,
				"failed", failed.Providers(),
			)
		}
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &failed
}

// Health passes as soon as one backend is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var failed ChainError
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
			return nil
		}
		failed.add(p.Name(), err)
	}
	return &failed
}

// Close closes every backend and joins their errors.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		errs = append(errs, WrapError(p.Name(), p.Close()))
	}
	return errors.Join(errs...)
}

// Providers returns the backends in the order they are tried.
func (c *Chain) Providers() []Provider {
	return c.providers
}

var _ Provider = (*Chain)(nil)
