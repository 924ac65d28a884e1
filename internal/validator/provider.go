package validator

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AcquireFunc produces a Validator. Acquisition may be expensive (loading
// and instantiating a parser add-on), so the Provider calls it at most once.
type AcquireFunc func(ctx context.Context) (Validator, error)

// Provider memoizes a single validator acquisition.
//
// Both outcomes are cached: a successful acquisition is reused for every
// later call, and a failed one is not retried. Callers degrade to empty
// diagnostics on failure rather than surfacing an error to the client.
type Provider struct {
	acquire AcquireFunc
	logger  *zap.Logger

	once      sync.Once
	validator Validator
	err       error
}

// NewProvider creates a provider around acquire.
func NewProvider(acquire AcquireFunc, logger *zap.Logger) *Provider {
	return &Provider{
		acquire: acquire,
		logger:  logger.With(zap.String("component", "validator-provider")),
	}
}

// Acquire returns the memoized validator, running the acquisition on first
// use. A failure is wrapped in *AcquireError and returned on every call.
func (p *Provider) Acquire(ctx context.Context) (Validator, error) {
	p.once.Do(func() {
		v, err := p.acquire(ctx)
		if err != nil {
			p.err = &AcquireError{Err: err}
			p.logger.Warn("SQL validator acquisition failed", zap.Error(err))
			return
		}
		p.validator = v
		p.logger.Info("SQL validator acquired")
	})

	return p.validator, p.err
}
