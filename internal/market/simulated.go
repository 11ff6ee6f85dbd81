package market

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// companyNames maps well-known tickers to display names. Unknown symbols
// fall back to the ticker itself.
var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"TSLA":  "Tesla, Inc.",
	"NVDA":  "NVIDIA Corporation",
}

// SimulatedProvider serves quotes from a per-symbol random walk. The walk is
// seeded from the symbol, so two providers created with the same seed
// produce the same history. It stands in for a live feed in paper mode.
type SimulatedProvider struct {
	logger *zap.Logger
	seed   int64

	mu      sync.Mutex
	symbols map[string]*walk
}

type walk struct {
	rng     *rand.Rand
	history types.PriceSeries
	prev    decimal.Decimal
}

// NewSimulatedProvider creates a simulated provider. The seed offsets every
// symbol's walk; a fixed seed makes runs reproducible.
func NewSimulatedProvider(logger *zap.Logger, seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		logger:  logger,
		seed:    seed,
		symbols: make(map[string]*walk),
	}
}

// GetQuote advances the symbol's walk by one step and returns the result.
func (p *SimulatedProvider) GetQuote(ctx context.Context, symbol string) (types.Quote, error) {
	if err := ctx.Err(); err != nil {
		return types.Quote{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.walkFor(symbol)
	prev := w.prev
	price := p.step(w)

	change := price.Sub(prev)
	changePct := decimal.Zero
	if !prev.IsZero() {
		changePct = change.Div(prev).Mul(decimal.NewFromInt(100))
	}

	name, ok := companyNames[symbol]
	if !ok {
		name = symbol
	}

	return types.Quote{
		Symbol:        symbol,
		Price:         price,
		Name:          name,
		Change:        change,
		ChangePercent: changePct,
		Volume:        1_000_000 + w.rng.Int63n(9_000_000),
		Timestamp:     time.Now(),
	}, nil
}

// GetHistory returns the trailing lookback closes, extending the walk if the
// stored history is shorter.
func (p *SimulatedProvider) GetHistory(ctx context.Context, symbol string, lookback int) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lookback <= 0 {
		return types.PriceSeries{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.walkFor(symbol)
	for len(w.history) < lookback {
		p.step(w)
	}

	tail := w.history[len(w.history)-lookback:]
	out := make(types.PriceSeries, len(tail))
	copy(out, tail)
	return out, nil
}

// walkFor returns the walk for symbol, creating and priming it on first use.
func (p *SimulatedProvider) walkFor(symbol string) *walk {
	if w, ok := p.symbols[symbol]; ok {
		return w
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))

	start := decimal.NewFromFloat(50 + rng.Float64()*200)
	w := &walk{rng: rng, prev: start}
	p.symbols[symbol] = w

	p.logger.Debug("Seeded simulated walk",
		zap.String("symbol", symbol),
		zap.String("start", start.StringFixed(2)),
	)
	return w
}

// step advances the walk one tick, appends it to history and returns the new
// price. Moves stay within ±2% per step.
func (p *SimulatedProvider) step(w *walk) decimal.Decimal {
	drift := decimal.NewFromFloat((w.rng.Float64() - 0.5) * 0.04)
	price := w.prev.Add(w.prev.Mul(drift)).Round(4)
	if !price.IsPositive() {
		price = w.prev
	}

	w.prev = price
	w.history = append(w.history, types.PricePoint{
		Timestamp: time.Now(),
		Close:     price,
	})

	const maxHistory = 512
	if len(w.history) > maxHistory {
		w.history = w.history[len(w.history)-maxHistory:]
	}
	return price
}
