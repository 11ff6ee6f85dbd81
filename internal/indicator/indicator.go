// Package indicator provides pure technical indicator calculations over a
// price series. All functions are side-effect free and deterministic.
package indicator

import (
	"errors"

	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// ErrInsufficientData indicates the series is too short for the requested
// calculation.
var ErrInsufficientData = errors.New("insufficient data")

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

var hundred = decimal.NewFromInt(100)

// PercentChange returns the percentage move from the second-to-last close to
// the last close.
func PercentChange(series types.PriceSeries) (decimal.Decimal, error) {
	if len(series) < 2 {
		return decimal.Zero, ErrInsufficientData
	}
	last := series[len(series)-1].Close
	prev := series[len(series)-2].Close
	if prev.IsZero() {
		return decimal.Zero, ErrInsufficientData
	}
	return last.Sub(prev).Div(prev).Mul(hundred), nil
}

// SMA returns the simple moving average of the last period closes.
func SMA(series types.PriceSeries, period int) (decimal.Decimal, error) {
	if period <= 0 || len(series) < period {
		return decimal.Zero, ErrInsufficientData
	}
	sum := decimal.Zero
	for _, p := range series[len(series)-period:] {
		sum = sum.Add(p.Close)
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

// RSI returns the Relative Strength Index over the last period deltas.
// A window with zero average loss yields exactly 100 rather than an error,
// so strictly rising series read as fully overbought.
func RSI(series types.PriceSeries, period int) (decimal.Decimal, error) {
	if period <= 0 || len(series) < period+1 {
		return decimal.Zero, ErrInsufficientData
	}

	window := series[len(series)-period-1:]
	gains := decimal.Zero
	losses := decimal.Zero
	for i := 1; i < len(window); i++ {
		delta := window[i].Close.Sub(window[i-1].Close)
		if delta.IsPositive() {
			gains = gains.Add(delta)
		} else {
			losses = losses.Add(delta.Neg())
		}
	}

	if losses.IsZero() {
		return hundred, nil
	}

	periodDec := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(periodDec)
	avgLoss := losses.Div(periodDec)
	rs := avgGain.Div(avgLoss)

	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs))), nil
}
