// Package types provides shared type definitions for the signal backend.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the trading action a decision carries.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Quote is a point-in-time snapshot of a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Name          string          `json:"name"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	Timestamp     time.Time       `json:"timestamp"`
}

// PricePoint is a single close observation.
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}

// PriceSeries is an ordered sequence of price points, oldest first.
type PriceSeries []PricePoint

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []decimal.Decimal {
	closes := make([]decimal.Decimal, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent point. The second return is false when the
// series is empty.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// Trade is a single executed simulation trade. Trades are immutable once
// appended to a session's log.
type Trade struct {
	Timestamp   time.Time       `json:"timestamp"`
	Action      Action          `json:"action"`
	Price       decimal.Decimal `json:"price"`
	Explanation string          `json:"explanation"`
}

// Position is the running position snapshot for one session.
type Position struct {
	Symbol   string          `json:"symbol"`
	Shares   decimal.Decimal `json:"shares"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// Performance summarizes a session's simulated results.
type Performance struct {
	TotalReturn decimal.Decimal `json:"total_return"`
	TradeCount  int             `json:"trades_count"`
}

// SessionSnapshot is a point-in-time copy of a session's state, safe to
// marshal and hand to subscribers.
type SessionSnapshot struct {
	Trades          []Trade         `json:"trades"`
	Performance     Performance     `json:"performance"`
	CurrentPosition Position        `json:"current_position"`
	Cash            decimal.Decimal `json:"cash"`
}
