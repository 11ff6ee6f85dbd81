package explain

import (
	"fmt"
	"strings"

	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	two     = decimal.NewFromInt(2)
	five    = decimal.NewFromInt(5)
	hundred = decimal.NewFromInt(100)
)

// MarketContext summarizes recent price action for a symbol so explanations
// can situate a decision in the wider trend.
func MarketContext(symbol string, currentPrice decimal.Decimal, series types.PriceSeries) string {
	if len(series) < 2 {
		return "Insufficient data for market context."
	}

	prev := series[len(series)-2].Close
	change1d := decimal.Zero
	if !prev.IsZero() {
		change1d = currentPrice.Sub(prev).Div(prev).Mul(hundred)
	}

	change5d := decimal.Zero
	if len(series) >= 6 {
		ref := series[len(series)-6].Close
		if !ref.IsZero() {
			change5d = currentPrice.Sub(ref).Div(ref).Mul(hundred)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market Context for %s\n\n", symbol)
	fmt.Fprintf(&b, "Current Price: $%s\n", currentPrice.StringFixed(2))
	fmt.Fprintf(&b, "1-Day Change: %s%%\n", change1d.StringFixed(2))
	fmt.Fprintf(&b, "5-Day Change: %s%%\n\n", change5d.StringFixed(2))
	b.WriteString("Market Sentiment:\n")

	switch {
	case change1d.GreaterThan(two):
		b.WriteString("- Strong positive momentum today\n")
	case change1d.LessThan(two.Neg()):
		b.WriteString("- Significant selling pressure today\n")
	default:
		b.WriteString("- Relatively stable trading today\n")
	}

	switch {
	case change5d.GreaterThan(five):
		b.WriteString("- Strong upward trend over the week\n")
	case change5d.LessThan(five.Neg()):
		b.WriteString("- Downward trend over the week\n")
	default:
		b.WriteString("- Sideways movement over the week\n")
	}

	return b.String()
}

// RiskFactors returns the standing risk caveats for a strategy kind.
func RiskFactors(kind strategy.Kind) string {
	switch kind {
	case strategy.KindPriceDrop:
		return `Risk Factors for Price Drop Strategy:

- Continued Decline: The price might keep falling after you buy
- Market Conditions: Bad news might cause further drops
- Timing Risk: You might buy too early in a longer decline

Risk Management Tips:
- Set stop-loss orders to limit potential losses
- Don't invest more than you can afford to lose
- Consider the overall market conditions`

	case strategy.KindCrossover:
		return `Risk Factors for Moving Average Strategy:

- False Signals: Crossovers can sometimes be misleading
- Lag: Moving averages are based on past data
- Sideways Markets: May generate many small trades

Risk Management Tips:
- Use additional confirmation signals
- Be patient with the strategy
- Consider transaction costs`

	case strategy.KindRSI:
		return `Risk Factors for RSI Strategy:

- Oversold Can Stay Oversold: RSI can remain low for extended periods
- Overbought Can Stay Overbought: Strong trends can keep RSI high
- False Signals: RSI can give conflicting signals in trending markets

Risk Management Tips:
- Use RSI with other indicators
- Don't rely solely on RSI levels
- Consider the overall trend`
	}

	return "All trading involves risk. Past performance doesn't guarantee future results."
}
