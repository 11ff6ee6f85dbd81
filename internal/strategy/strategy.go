// Package strategy defines the supported strategy kinds, their parameter
// records and validation, and the in-memory registry of user strategies.
package strategy

import (
	"encoding/json"
	"fmt"

	"github.com/lumen-labs/signal-backend/internal/indicator"
	"github.com/shopspring/decimal"
)

// Kind identifies a strategy rule. The set is closed: the decision engine
// dispatches exhaustively on it.
type Kind string

const (
	KindPriceDrop Kind = "price_drop"
	KindCrossover Kind = "moving_average"
	KindRSI       Kind = "rsi"
)

// PriceDropParams configures the price-drop entry rule.
type PriceDropParams struct {
	Threshold decimal.Decimal `json:"threshold"`
}

// CrossoverParams configures the moving-average crossover rule.
type CrossoverParams struct {
	ShortPeriod int `json:"short_period"`
	LongPeriod  int `json:"long_period"`
}

// RSIParams configures the RSI threshold rule.
type RSIParams struct {
	Oversold   decimal.Decimal `json:"oversold"`
	Overbought decimal.Decimal `json:"overbought"`
}

// Config is an immutable strategy configuration. Exactly one of the
// parameter records is set, matching Kind.
type Config struct {
	Kind      Kind
	Symbol    string
	PriceDrop *PriceDropParams
	Crossover *CrossoverParams
	RSI       *RSIParams
}

// configWire is the flat JSON shape the presentation layer speaks.
type configWire struct {
	Kind        Kind             `json:"type"`
	Symbol      string           `json:"symbol"`
	Threshold   *decimal.Decimal `json:"threshold,omitempty"`
	ShortPeriod *int             `json:"short_period,omitempty"`
	LongPeriod  *int             `json:"long_period,omitempty"`
	Oversold    *decimal.Decimal `json:"oversold,omitempty"`
	Overbought  *decimal.Decimal `json:"overbought,omitempty"`
}

// UnmarshalJSON decodes the flat wire payload into the tagged form.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w configWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*c = Config{Kind: w.Kind, Symbol: w.Symbol}
	switch w.Kind {
	case KindPriceDrop:
		p := PriceDropParams{}
		if w.Threshold != nil {
			p.Threshold = *w.Threshold
		}
		c.PriceDrop = &p
	case KindCrossover:
		p := CrossoverParams{}
		if w.ShortPeriod != nil {
			p.ShortPeriod = *w.ShortPeriod
		}
		if w.LongPeriod != nil {
			p.LongPeriod = *w.LongPeriod
		}
		c.Crossover = &p
	case KindRSI:
		p := RSIParams{}
		if w.Oversold != nil {
			p.Oversold = *w.Oversold
		}
		if w.Overbought != nil {
			p.Overbought = *w.Overbought
		}
		c.RSI = &p
	}
	return nil
}

// MarshalJSON encodes the tagged form back to the flat wire payload.
func (c Config) MarshalJSON() ([]byte, error) {
	w := configWire{Kind: c.Kind, Symbol: c.Symbol}
	switch {
	case c.PriceDrop != nil:
		w.Threshold = &c.PriceDrop.Threshold
	case c.Crossover != nil:
		w.ShortPeriod = &c.Crossover.ShortPeriod
		w.LongPeriod = &c.Crossover.LongPeriod
	case c.RSI != nil:
		w.Oversold = &c.RSI.Oversold
		w.Overbought = &c.RSI.Overbought
	}
	return json.Marshal(w)
}

// Validate rejects malformed or out-of-range configurations before they
// reach the registry.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "symbol is required"}
	}

	switch c.Kind {
	case KindPriceDrop:
		if c.PriceDrop == nil || !c.PriceDrop.Threshold.IsPositive() {
			return &ValidationError{Field: "threshold", Reason: "threshold must be positive"}
		}
	case KindCrossover:
		if c.Crossover == nil || c.Crossover.ShortPeriod <= 0 || c.Crossover.LongPeriod <= 0 {
			return &ValidationError{Field: "short_period", Reason: "periods must be positive"}
		}
		if c.Crossover.ShortPeriod >= c.Crossover.LongPeriod {
			return &ValidationError{Field: "short_period", Reason: "short period must be less than long period"}
		}
	case KindRSI:
		if c.RSI == nil || !c.RSI.Oversold.IsPositive() || !c.RSI.Overbought.IsPositive() {
			return &ValidationError{Field: "oversold", Reason: "thresholds must be positive"}
		}
		if c.RSI.Oversold.GreaterThanOrEqual(c.RSI.Overbought) {
			return &ValidationError{Field: "oversold", Reason: "oversold must be below overbought"}
		}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown strategy type %q", c.Kind)}
	}
	return nil
}

// Lookback returns the number of trailing price points the decision engine
// needs to evaluate this configuration.
func (c Config) Lookback() int {
	switch c.Kind {
	case KindPriceDrop:
		return 2
	case KindCrossover:
		if c.Crossover != nil {
			return c.Crossover.LongPeriod
		}
		return 0
	case KindRSI:
		return indicator.DefaultRSIPeriod + 1
	}
	return 0
}
