// Package session tracks per-strategy simulation state: the append-only
// trade log, the running position and a performance summary. State lives in
// memory for the life of the process.
package session

import (
	"errors"
	"sync"

	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNotFound indicates no session exists for the given strategy id.
var ErrNotFound = errors.New("session not found")

var (
	startingCash = decimal.NewFromInt(10000)
	investFrac   = decimal.NewFromFloat(0.10)
	hundred      = decimal.NewFromInt(100)
)

// state is the mutable record for one strategy. The trade log is append-only;
// entries are never rewritten.
type state struct {
	trades   []types.Trade
	position types.Position
	cash     decimal.Decimal
}

// Store owns all session state, keyed by strategy id. The streaming loop for
// a given id is the only writer for that id; the store's lock additionally
// keeps concurrent loops for a shared id serialized.
type Store struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[string]*state
}

// NewStore creates an empty session store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger:   logger,
		sessions: make(map[string]*state),
	}
}

// Create initializes the session for a newly registered strategy.
func (s *Store) Create(id, symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return
	}
	s.sessions[id] = &state{
		trades: make([]types.Trade, 0),
		position: types.Position{
			Symbol:   symbol,
			Shares:   decimal.Zero,
			AvgPrice: decimal.Zero,
		},
		cash: startingCash,
	}
}

// RecordTrade appends a BUY or SELL to the log and applies it to the
// simulated position. A BUY invests a fixed fraction of remaining cash at
// the trade price; a SELL flattens the position at the trade price.
func (s *Store) RecordTrade(id string, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}

	st.trades = append(st.trades, trade)

	switch trade.Action {
	case types.ActionBuy:
		s.applyBuy(st, trade.Price)
	case types.ActionSell:
		s.applySell(st, trade.Price)
	}

	s.logger.Debug("Trade recorded",
		zap.String("strategy", id),
		zap.String("action", string(trade.Action)),
		zap.String("price", trade.Price.String()),
	)
	return nil
}

func (s *Store) applyBuy(st *state, price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}
	invest := st.cash.Mul(investFrac)
	if !invest.IsPositive() {
		return
	}

	bought := invest.Div(price)
	cost := st.position.AvgPrice.Mul(st.position.Shares).Add(invest)
	total := st.position.Shares.Add(bought)

	st.position.Shares = total
	st.position.AvgPrice = cost.Div(total)
	st.cash = st.cash.Sub(invest)
}

func (s *Store) applySell(st *state, price decimal.Decimal) {
	if !st.position.Shares.IsPositive() {
		return
	}
	st.cash = st.cash.Add(st.position.Shares.Mul(price))
	st.position.Shares = decimal.Zero
	st.position.AvgPrice = decimal.Zero
}

// Snapshot returns a deep copy of the session state, safe for the caller to
// marshal after the loop moves on.
func (s *Store) Snapshot(id string) (types.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return types.SessionSnapshot{}, ErrNotFound
	}

	trades := make([]types.Trade, len(st.trades))
	copy(trades, st.trades)

	return types.SessionSnapshot{
		Trades: trades,
		Performance: types.Performance{
			TotalReturn: s.totalReturn(st),
			TradeCount:  len(st.trades),
		},
		CurrentPosition: st.position,
		Cash:            st.cash,
	}, nil
}

// totalReturn is the percentage change of realized value (cash plus position
// at average cost) against starting cash.
func (s *Store) totalReturn(st *state) decimal.Decimal {
	equity := st.cash.Add(st.position.Shares.Mul(st.position.AvgPrice))
	return equity.Sub(startingCash).Div(startingCash).Mul(hundred)
}
