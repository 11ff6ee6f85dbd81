// Package stream drives one subscription: fetch, decide, record, push, wait.
//
// The loop is a small state machine (Attaching -> Streaming <-> Backoff ->
// Closed). Provider failures push a typed error frame and stretch the wait;
// they never close the subscription. Only an unknown strategy id, a dead
// sink or context cancellation does.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lumen-labs/signal-backend/internal/engine"
	"github.com/lumen-labs/signal-backend/internal/market"
	"github.com/lumen-labs/signal-backend/internal/metrics"
	"github.com/lumen-labs/signal-backend/internal/session"
	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/lumen-labs/signal-backend/pkg/types"
	"go.uber.org/zap"
)

// State is the lifecycle phase of a loop.
type State int32

const (
	StateAttaching State = iota
	StateStreaming
	StateBackoff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAttaching:
		return "attaching"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// minHistory is the trailing window fetched each cycle. It covers the
// largest default indicator lookback plus the market-context window.
const minHistory = 30

// Config sets the loop cadence.
type Config struct {
	// Interval is the wait between successful cycles.
	Interval time.Duration
	// ErrorInterval is the longer wait after a failed cycle.
	ErrorInterval time.Duration
}

// DefaultConfig mirrors the original cadence: five second updates, ten
// second backoff.
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Second,
		ErrorInterval: 10 * time.Second,
	}
}

// Loop evaluates one strategy on a fixed cadence and pushes the outcome of
// every cycle to its sink. It holds non-owning references to the registry
// and session store.
type Loop struct {
	logger     *zap.Logger
	cfg        Config
	strategyID string
	registry   *strategy.Registry
	sessions   *session.Store
	provider   market.Provider
	metrics    *metrics.Metrics
	state      atomic.Int32
}

// New creates a loop for one subscription.
func New(
	logger *zap.Logger,
	cfg Config,
	strategyID string,
	registry *strategy.Registry,
	sessions *session.Store,
	provider market.Provider,
	m *metrics.Metrics,
) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.ErrorInterval <= 0 {
		cfg.ErrorInterval = 2 * cfg.Interval
	}
	return &Loop{
		logger:     logger,
		cfg:        cfg,
		strategyID: strategyID,
		registry:   registry,
		sessions:   sessions,
		provider:   provider,
		metrics:    m,
	}
}

// State reports the loop's current phase.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// Run drives the subscription until the context is cancelled, the sink dies
// or the strategy id turns out to be unknown. Every push happens before the
// next fetch begins; the loop never runs ahead of its subscriber.
func (l *Loop) Run(ctx context.Context, sink Sink) error {
	defer l.setState(StateClosed)

	cfg, err := l.registry.Get(l.strategyID)
	if err != nil {
		// Unknown id is terminal: one error frame, then close.
		_ = sink.Send(ErrorMessage{Type: TypeError, Message: "Strategy not found"})
		l.logger.Warn("Subscription rejected", zap.String("strategy", l.strategyID))
		return err
	}

	// Idempotent: the session normally exists since strategy creation.
	l.sessions.Create(l.strategyID, cfg.Symbol)

	l.metrics.ActiveSubscriptions.Inc()
	defer l.metrics.ActiveSubscriptions.Dec()

	if quote, qerr := l.provider.GetQuote(ctx, cfg.Symbol); qerr == nil {
		if serr := sink.Send(InitialData{Type: TypeInitialData, Data: quote}); serr != nil {
			return serr
		}
	} else if !errors.Is(qerr, context.Canceled) {
		l.metrics.ProviderErrors.Inc()
		if serr := sink.Send(ErrorMessage{Type: TypeError, Message: fmt.Sprintf("Could not fetch data for %s", cfg.Symbol)}); serr != nil {
			return serr
		}
	}

	l.setState(StateStreaming)
	l.logger.Info("Subscription streaming",
		zap.String("strategy", l.strategyID),
		zap.String("symbol", cfg.Symbol),
	)

	for {
		interval := l.cfg.Interval

		if err := l.cycle(ctx, cfg, sink); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var dead *SinkClosedError
			if errors.As(err, &dead) {
				return err
			}

			// Recoverable: report, back off, keep the subscription alive.
			l.metrics.ProviderErrors.Inc()
			l.setState(StateBackoff)
			l.logger.Warn("Cycle failed, backing off",
				zap.String("strategy", l.strategyID),
				zap.Error(err),
			)
			if serr := sink.Send(ErrorMessage{Type: TypeError, Message: err.Error()}); serr != nil {
				return serr
			}
			interval = l.cfg.ErrorInterval
		} else {
			l.setState(StateStreaming)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// cycle performs one fetch-decide-record-push pass.
func (l *Loop) cycle(ctx context.Context, cfg strategy.Config, sink Sink) error {
	quote, err := l.provider.GetQuote(ctx, cfg.Symbol)
	if err != nil {
		return fmt.Errorf("%w: quote %s: %v", market.ErrProvider, cfg.Symbol, err)
	}

	lookback := cfg.Lookback()
	if lookback < minHistory {
		lookback = minHistory
	}
	series, err := l.provider.GetHistory(ctx, cfg.Symbol, lookback)
	if err != nil {
		return fmt.Errorf("%w: history %s: %v", market.ErrProvider, cfg.Symbol, err)
	}

	decision := engine.Decide(cfg, quote.Price, series)
	l.metrics.Decisions.WithLabelValues(string(decision.Action)).Inc()

	now := time.Now()
	if decision.Action != types.ActionHold {
		trade := types.Trade{
			Timestamp:   now,
			Action:      decision.Action,
			Price:       quote.Price,
			Explanation: decision.Explanation,
		}
		if err := l.sessions.RecordTrade(l.strategyID, trade); err != nil {
			return fmt.Errorf("record trade: %w", err)
		}
	}

	snapshot, err := l.sessions.Snapshot(l.strategyID)
	if err != nil {
		return fmt.Errorf("session snapshot: %w", err)
	}

	update := Update{
		Type:           TypeUpdate,
		Symbol:         cfg.Symbol,
		Price:          quote.Price,
		Action:         decision.Action,
		Explanation:    decision.Explanation,
		Timestamp:      now,
		SimulationData: snapshot,
	}
	if err := sink.Send(update); err != nil {
		return &SinkClosedError{Err: err}
	}

	l.metrics.UpdatesPushed.Inc()
	return nil
}

// SinkClosedError marks a push failure, meaning the subscriber is gone and
// the loop must stop scheduling further fetches.
type SinkClosedError struct {
	Err error
}

func (e *SinkClosedError) Error() string {
	return fmt.Sprintf("subscriber gone: %v", e.Err)
}

func (e *SinkClosedError) Unwrap() error {
	return e.Err
}
