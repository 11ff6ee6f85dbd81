// Package market abstracts the external market data source. The rest of the
// system only sees the Provider interface: a latest quote and a trailing
// window of closing prices per symbol.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-labs/signal-backend/pkg/types"
)

// ErrProvider wraps any upstream fetch failure. Callers treat it as
// recoverable: back off and retry, never terminate the subscription.
var ErrProvider = errors.New("market data provider failure")

// Provider supplies quotes and price history on demand.
type Provider interface {
	// GetQuote returns the latest quote for a symbol.
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)

	// GetHistory returns up to lookback trailing daily closes for a symbol,
	// oldest first.
	GetHistory(ctx context.Context, symbol string, lookback int) (types.PriceSeries, error)
}

// timeoutProvider bounds every upstream call with its own deadline,
// independent of the caller's scheduling interval.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a provider so each call carries a maximum wait.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: timeout}
}

func (p *timeoutProvider) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.GetQuote(ctx, symbol)
}

func (p *timeoutProvider) GetHistory(ctx context.Context, symbol string, lookback int) (types.PriceSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.inner.GetHistory(ctx, symbol, lookback)
}
