// Package engine evaluates strategy configurations against price history.
//
// Decide is deterministic and free of side effects: identical inputs yield
// identical decisions, which keeps every cycle of the streaming loop
// reproducible. Indicator failures never escape; they degrade to HOLD.
package engine

import (
	"github.com/lumen-labs/signal-backend/internal/explain"
	"github.com/lumen-labs/signal-backend/internal/indicator"
	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Decide maps a strategy configuration, the current price and the recent
// price series to a decision. The series is expected oldest first with the
// latest close last.
func Decide(cfg strategy.Config, currentPrice decimal.Decimal, series types.PriceSeries) types.Decision {
	var (
		action = types.ActionHold
		ctx    = types.IndicatorContext{}
	)

	switch cfg.Kind {
	case strategy.KindPriceDrop:
		action, ctx = decidePriceDrop(cfg.PriceDrop, series)
	case strategy.KindCrossover:
		action, ctx = decideCrossover(cfg.Crossover, series)
	case strategy.KindRSI:
		action, ctx = decideRSI(cfg.RSI, series)
	}

	return types.Decision{
		Action:      action,
		Context:     ctx,
		Explanation: explain.Explain(cfg.Kind, action, ctx),
	}
}

// decidePriceDrop buys when the latest move is at or below the negative
// threshold. There is deliberately no sell branch: this is an entry-only
// rule.
func decidePriceDrop(p *strategy.PriceDropParams, series types.PriceSeries) (types.Action, types.IndicatorContext) {
	change, err := indicator.PercentChange(series)
	if err != nil {
		return types.ActionHold, types.IndicatorContext{}
	}

	ctx := types.IndicatorContext{
		"price_change_pct": change,
		"threshold":        p.Threshold,
	}

	if change.LessThanOrEqual(p.Threshold.Neg()) {
		return types.ActionBuy, ctx
	}
	return types.ActionHold, ctx
}

// decideCrossover buys while the short average sits strictly above the long
// average. Crossing back below is not signaled.
func decideCrossover(p *strategy.CrossoverParams, series types.PriceSeries) (types.Action, types.IndicatorContext) {
	shortMA, err := indicator.SMA(series, p.ShortPeriod)
	if err != nil {
		return types.ActionHold, types.IndicatorContext{}
	}
	longMA, err := indicator.SMA(series, p.LongPeriod)
	if err != nil {
		return types.ActionHold, types.IndicatorContext{}
	}

	ctx := types.IndicatorContext{
		"short_ma":     shortMA,
		"long_ma":      longMA,
		"short_period": decimal.NewFromInt(int64(p.ShortPeriod)),
		"long_period":  decimal.NewFromInt(int64(p.LongPeriod)),
	}

	if shortMA.GreaterThan(longMA) {
		return types.ActionBuy, ctx
	}
	return types.ActionHold, ctx
}

// decideRSI buys strictly below the oversold level and sells strictly above
// the overbought level. Exact threshold values resolve to HOLD.
func decideRSI(p *strategy.RSIParams, series types.PriceSeries) (types.Action, types.IndicatorContext) {
	rsi, err := indicator.RSI(series, indicator.DefaultRSIPeriod)
	if err != nil {
		return types.ActionHold, types.IndicatorContext{}
	}

	ctx := types.IndicatorContext{
		"rsi":        rsi,
		"oversold":   p.Oversold,
		"overbought": p.Overbought,
	}

	switch {
	case rsi.LessThan(p.Oversold):
		return types.ActionBuy, ctx
	case rsi.GreaterThan(p.Overbought):
		return types.ActionSell, ctx
	}
	return types.ActionHold, ctx
}
