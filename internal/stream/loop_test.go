package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumen-labs/signal-backend/internal/metrics"
	"github.com/lumen-labs/signal-backend/internal/session"
	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// scriptedProvider serves a fixed series and can be told to fail a number
// of quote calls after the initial one.
type scriptedProvider struct {
	mu           sync.Mutex
	closes       []float64
	calls        int
	failFrom     int // 1-based call number of the first failure, 0 = never
	failCount    int
	failuresLeft int
}

func newScriptedProvider(closes []float64, failFrom, failCount int) *scriptedProvider {
	return &scriptedProvider{
		closes:       closes,
		failFrom:     failFrom,
		failCount:    failCount,
		failuresLeft: failCount,
	}
}

func (p *scriptedProvider) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failFrom > 0 && p.calls >= p.failFrom && p.failuresLeft > 0 {
		p.failuresLeft--
		return types.Quote{}, errors.New("simulated outage")
	}

	price := decimal.NewFromFloat(p.closes[len(p.closes)-1])
	return types.Quote{
		Symbol:    symbol,
		Price:     price,
		Name:      symbol,
		Timestamp: time.Now(),
	}, nil
}

func (p *scriptedProvider) GetHistory(ctx context.Context, symbol string, lookback int) (types.PriceSeries, error) {
	series := make(types.PriceSeries, 0, len(p.closes))
	for i, c := range p.closes {
		series = append(series, types.PricePoint{
			Timestamp: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Close:     decimal.NewFromFloat(c),
		})
	}
	if lookback < len(series) {
		series = series[len(series)-lookback:]
	}
	return series, nil
}

// chanSink collects pushed frames. Closing it makes further sends fail.
type chanSink struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (s *chanSink) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink closed")
	}
	s.frames = append(s.frames, msg)
	return nil
}

func (s *chanSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *chanSink) Frames() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, len(s.frames))
	copy(out, s.frames)
	return out
}

func testLoop(t *testing.T, provider *scriptedProvider, cfg strategy.Config) (*Loop, *session.Store, string) {
	t.Helper()

	logger := zap.NewNop()
	registry := strategy.NewRegistry(logger)
	id, err := registry.Create(cfg)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sessions := session.NewStore(logger)
	sessions.Create(id, cfg.Symbol)

	m, _ := metrics.New()
	loop := New(logger, Config{Interval: 5 * time.Millisecond, ErrorInterval: 10 * time.Millisecond},
		id, registry, sessions, provider, m)
	return loop, sessions, id
}

func holdConfig() strategy.Config {
	// A huge drop threshold: every cycle decides HOLD.
	return strategy.Config{
		Kind:      strategy.KindPriceDrop,
		Symbol:    "AAPL",
		PriceDrop: &strategy.PriceDropParams{Threshold: decimal.NewFromInt(90)},
	}
}

func buyConfig() strategy.Config {
	// Threshold 5 against a 10% drop: every cycle decides BUY.
	return strategy.Config{
		Kind:      strategy.KindPriceDrop,
		Symbol:    "AAPL",
		PriceDrop: &strategy.PriceDropParams{Threshold: decimal.NewFromInt(5)},
	}
}

func waitForFrames(t *testing.T, sink *chanSink, n int) []any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frames := sink.Frames(); len(frames) >= n {
			return frames
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d frames, got %d", n, len(sink.Frames()))
	return nil
}

func TestLoopUnknownStrategy(t *testing.T) {
	logger := zap.NewNop()
	registry := strategy.NewRegistry(logger)
	sessions := session.NewStore(logger)
	m, _ := metrics.New()

	provider := newScriptedProvider([]float64{100, 90}, 0, 0)
	loop := New(logger, DefaultConfig(), "missing", registry, sessions, provider, m)

	sink := &chanSink{}
	err := loop.Run(context.Background(), sink)
	if !errors.Is(err, strategy.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	frames := sink.Frames()
	if len(frames) != 1 {
		t.Fatalf("Expected exactly one frame, got %d", len(frames))
	}
	msg, ok := frames[0].(ErrorMessage)
	if !ok || msg.Type != TypeError {
		t.Fatalf("Expected error frame, got %+v", frames[0])
	}
	if loop.State() != StateClosed {
		t.Errorf("Expected Closed, got %s", loop.State())
	}
}

func TestLoopStreamsUpdates(t *testing.T) {
	provider := newScriptedProvider([]float64{100, 90}, 0, 0)
	loop, _, _ := testLoop(t, provider, holdConfig())
	sink := &chanSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, sink) }()

	frames := waitForFrames(t, sink, 4)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	initial, ok := frames[0].(InitialData)
	if !ok || initial.Type != TypeInitialData {
		t.Fatalf("First frame must be initial_data, got %+v", frames[0])
	}
	if initial.Data.Symbol != "AAPL" {
		t.Errorf("Unexpected quote symbol %s", initial.Data.Symbol)
	}

	for i, f := range frames[1:] {
		update, ok := f.(Update)
		if !ok {
			t.Fatalf("Frame %d is not an update: %+v", i+1, f)
		}
		if update.Action != types.ActionHold {
			t.Errorf("Expected HOLD, got %s", update.Action)
		}
		if len(update.SimulationData.Trades) != 0 {
			t.Errorf("HOLD cycles must not record trades, got %d", len(update.SimulationData.Trades))
		}
		if update.Explanation == "" {
			t.Error("Update missing explanation")
		}
	}

	if loop.State() != StateClosed {
		t.Errorf("Expected Closed after cancel, got %s", loop.State())
	}
}

func TestLoopRecordsTrades(t *testing.T) {
	provider := newScriptedProvider([]float64{100, 90}, 0, 0)
	loop, sessions, id := testLoop(t, provider, buyConfig())
	sink := &chanSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, sink) }()

	frames := waitForFrames(t, sink, 3)
	cancel()
	<-done

	update, ok := frames[1].(Update)
	if !ok {
		t.Fatalf("Expected update, got %+v", frames[1])
	}
	if update.Action != types.ActionBuy {
		t.Fatalf("Expected BUY, got %s", update.Action)
	}
	if len(update.SimulationData.Trades) != 1 {
		t.Errorf("Expected 1 trade in first update, got %d", len(update.SimulationData.Trades))
	}

	snap, err := sessions.Snapshot(id)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Performance.TradeCount < 2 {
		t.Errorf("Expected trades to accumulate, got %d", snap.Performance.TradeCount)
	}
}

func TestLoopRecoversFromProviderFailures(t *testing.T) {
	// Quote call 1 serves initial data; calls 2-4 fail; call 5 onwards
	// succeed. The loop must push exactly 3 error frames, keep the trade
	// log untouched during the outage, then resume updates.
	provider := newScriptedProvider([]float64{100, 90}, 2, 3)
	loop, sessions, id := testLoop(t, provider, holdConfig())
	sink := &chanSink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, sink) }()

	frames := waitForFrames(t, sink, 5)
	cancel()
	<-done

	var errCount, updateCount int
	for _, f := range frames {
		switch f.(type) {
		case ErrorMessage:
			errCount++
		case Update:
			updateCount++
		}
	}

	if errCount != 3 {
		t.Errorf("Expected exactly 3 error frames, got %d", errCount)
	}
	if updateCount == 0 {
		t.Error("Expected updates to resume after the outage")
	}

	// Errors must precede the first update.
	sawUpdate := false
	for _, f := range frames[1:] {
		if _, ok := f.(Update); ok {
			sawUpdate = true
		}
		if _, ok := f.(ErrorMessage); ok && sawUpdate {
			t.Error("Error frame after recovery")
		}
	}

	snap, _ := sessions.Snapshot(id)
	if len(snap.Trades) != 0 {
		t.Errorf("Trade log changed during failures: %d trades", len(snap.Trades))
	}
}

func TestLoopStopsWhenSinkCloses(t *testing.T) {
	provider := newScriptedProvider([]float64{100, 90}, 0, 0)
	loop, _, _ := testLoop(t, provider, holdConfig())
	sink := &chanSink{}

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background(), sink) }()

	waitForFrames(t, sink, 2)
	sink.Close()

	select {
	case err := <-done:
		var closed *SinkClosedError
		if !errors.As(err, &closed) {
			t.Errorf("Expected SinkClosedError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Loop did not stop after sink closed")
	}

	if loop.State() != StateClosed {
		t.Errorf("Expected Closed, got %s", loop.State())
	}
}

func TestLoopCancellationStopsPushes(t *testing.T) {
	provider := newScriptedProvider([]float64{100, 90}, 0, 0)
	loop, _, _ := testLoop(t, provider, holdConfig())
	sink := &chanSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, sink) }()

	waitForFrames(t, sink, 2)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Loop did not stop after cancellation")
	}

	count := len(sink.Frames())
	time.Sleep(30 * time.Millisecond)
	if got := len(sink.Frames()); got != count {
		t.Errorf("Frames pushed after cancellation: %d -> %d", count, got)
	}
}
