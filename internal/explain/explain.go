// Package explain turns a strategy decision into a plain-language narrative.
// Output depends only on the inputs: no clock, no market state, no I/O.
package explain

import (
	"fmt"
	"strings"

	"github.com/lumen-labs/signal-backend/internal/strategy"
	"github.com/lumen-labs/signal-backend/pkg/types"
)

// fallback is returned when no template exists for a (kind, action) pair.
const fallback = "The strategy conditions have been met for this action."

// baseTemplates holds the one-line summaries keyed by strategy kind and
// lowercased action.
var baseTemplates = map[strategy.Kind]map[string]string{
	strategy.KindPriceDrop: {
		"buy":  "The stock price has dropped significantly, which often indicates a good buying opportunity. This is like finding a sale at your favorite store - when prices go down, you can buy more for less money.",
		"hold": "The price hasn't dropped enough to trigger a buy signal. We're waiting for a better opportunity to enter the market.",
		"sell": "The price has recovered from the drop, so we're taking profits. This is like selling something you bought on sale when the price goes back up.",
	},
	strategy.KindCrossover: {
		"buy":  "The short-term trend is now stronger than the long-term trend, suggesting the stock is gaining momentum. Think of it like a car accelerating - the speed is picking up.",
		"hold": "The trends are not aligned yet. We're waiting for a clear signal that the stock is moving in the right direction.",
		"sell": "The short-term trend is weakening compared to the long-term trend, suggesting we should take profits.",
	},
	strategy.KindRSI: {
		"buy":  "The stock is oversold, meaning it has been sold too much and is likely to bounce back. This is like a rubber band that's been stretched too far - it will snap back.",
		"hold": "The stock is trading at normal levels. We're waiting for either oversold or overbought conditions.",
		"sell": "The stock is overbought, meaning it has been bought too much and might pull back. This is like a rubber band that's been compressed too much.",
	},
}

// Explain builds the full narrative for a decision. Unknown (kind, action)
// pairs fall back to a generic line; missing context values read as zero.
func Explain(kind strategy.Kind, action types.Action, ctx types.IndicatorContext) string {
	base := fallback
	if actions, ok := baseTemplates[kind]; ok {
		if t, ok := actions[strings.ToLower(string(action))]; ok {
			base = t
		}
	}

	switch kind {
	case strategy.KindPriceDrop:
		return explainPriceDrop(action, ctx, base)
	case strategy.KindCrossover:
		return explainCrossover(action, ctx, base)
	case strategy.KindRSI:
		return explainRSI(action, ctx, base)
	}
	return base
}

func explainPriceDrop(action types.Action, ctx types.IndicatorContext, base string) string {
	change := ctx.Value("price_change_pct")
	threshold := ctx.Value("threshold")

	switch action {
	case types.ActionBuy:
		var b strings.Builder
		fmt.Fprintf(&b, "Price Drop Detected!\n\n")
		fmt.Fprintf(&b, "The stock price has dropped by %s%%, which is more than your threshold of %s%%.\n\n",
			change.Abs().StringFixed(2), threshold.String())
		b.WriteString("What this means:\n")
		b.WriteString("- The stock is now cheaper than it was before\n")
		b.WriteString("- This could be a temporary dip or a buying opportunity\n")
		b.WriteString("- You're getting more shares for the same amount of money\n\n")
		b.WriteString("Why this strategy works:\n")
		b.WriteString("- Stocks often bounce back after significant drops\n")
		b.WriteString("- You're buying when others might be selling (contrarian approach)\n")
		b.WriteString("- Lower prices mean higher potential returns\n\n")
		b.WriteString("Risk reminder: Past performance doesn't guarantee future results.")
		return b.String()

	case types.ActionHold:
		var b strings.Builder
		fmt.Fprintf(&b, "Waiting for Opportunity\n\n")
		b.WriteString("The price hasn't dropped enough to trigger a buy signal yet.\n\n")
		b.WriteString("Current situation:\n")
		fmt.Fprintf(&b, "- Price change: %s%%\n", change.StringFixed(2))
		fmt.Fprintf(&b, "- Your threshold: %s%%\n\n", threshold.String())
		b.WriteString("What we're watching for:\n")
		fmt.Fprintf(&b, "- A price drop of %s%% or more\n", threshold.String())
		b.WriteString("- This would signal a potential buying opportunity\n\n")
		b.WriteString("Patience is key: Good opportunities come to those who wait.")
		return b.String()
	}
	return base
}

func explainCrossover(action types.Action, ctx types.IndicatorContext, base string) string {
	shortMA := ctx.Value("short_ma")
	longMA := ctx.Value("long_ma")

	switch action {
	case types.ActionBuy:
		var b strings.Builder
		b.WriteString("Trend Reversal Detected!\n\n")
		fmt.Fprintf(&b, "The short-term average ($%s) has crossed above the long-term average ($%s).\n\n",
			shortMA.StringFixed(2), longMA.StringFixed(2))
		b.WriteString("What this means:\n")
		b.WriteString("- The stock is gaining momentum\n")
		b.WriteString("- Recent prices are higher than the long-term average\n")
		b.WriteString("- This suggests an upward trend is starting\n\n")
		b.WriteString("Why this strategy works:\n")
		b.WriteString("- Moving averages smooth out price noise\n")
		b.WriteString("- Crossovers often signal trend changes\n")
		b.WriteString("- You're buying when the trend is turning positive\n\n")
		b.WriteString("Think of it like: A car that was slowing down is now accelerating again.")
		return b.String()

	case types.ActionHold:
		var b strings.Builder
		b.WriteString("Trends Not Aligned\n\n")
		b.WriteString("The moving averages haven't crossed yet, so we're waiting for a clear signal.\n\n")
		b.WriteString("Current averages:\n")
		fmt.Fprintf(&b, "- Short-term: $%s\n", shortMA.StringFixed(2))
		fmt.Fprintf(&b, "- Long-term: $%s\n\n", longMA.StringFixed(2))
		b.WriteString("What we're waiting for:\n")
		b.WriteString("- Short-term average to cross above long-term average\n")
		b.WriteString("- This would signal the start of an upward trend\n\n")
		b.WriteString("Strategy: We only buy when trends are clearly aligned.")
		return b.String()
	}
	return base
}

func explainRSI(action types.Action, ctx types.IndicatorContext, base string) string {
	rsi := ctx.Value("rsi")

	switch action {
	case types.ActionBuy:
		var b strings.Builder
		b.WriteString("Oversold Condition Detected!\n\n")
		fmt.Fprintf(&b, "The RSI is %s, which indicates the stock is oversold.\n\n", rsi.StringFixed(1))
		b.WriteString("What this means:\n")
		b.WriteString("- The stock has been sold too much recently\n")
		b.WriteString("- It's likely to bounce back from this level\n")
		b.WriteString("- This is often a good time to buy\n\n")
		b.WriteString("Why RSI works:\n")
		b.WriteString("- RSI measures how fast prices are moving\n")
		b.WriteString("- Values below 30 usually mean oversold\n")
		b.WriteString("- Stocks often recover from oversold conditions\n\n")
		b.WriteString("Think of it like: A pendulum that has swung too far in one direction will swing back.")
		return b.String()

	case types.ActionSell:
		var b strings.Builder
		b.WriteString("Overbought Condition Detected!\n\n")
		fmt.Fprintf(&b, "The RSI is %s, which indicates the stock is overbought.\n\n", rsi.StringFixed(1))
		b.WriteString("What this means:\n")
		b.WriteString("- The stock has been bought too much recently\n")
		b.WriteString("- It might pull back from this level\n")
		b.WriteString("- This could be a good time to take profits\n\n")
		b.WriteString("Why RSI works:\n")
		b.WriteString("- RSI measures momentum and speed of price changes\n")
		b.WriteString("- Values above 70 usually mean overbought\n")
		b.WriteString("- Stocks often pull back from overbought conditions\n\n")
		b.WriteString("Think of it like: A pendulum that has swung too far will swing back the other way.")
		return b.String()

	case types.ActionHold:
		var b strings.Builder
		b.WriteString("Normal RSI Levels\n\n")
		fmt.Fprintf(&b, "The RSI is %s, which is within normal trading ranges.\n\n", rsi.StringFixed(1))
		b.WriteString("What this means:\n")
		b.WriteString("- The stock is not extremely overbought or oversold\n")
		b.WriteString("- Price movements are within normal patterns\n")
		b.WriteString("- No clear buy or sell signal at this time\n\n")
		b.WriteString("RSI ranges:\n")
		b.WriteString("- 0-30: Oversold (potential buy)\n")
		b.WriteString("- 30-70: Normal range (hold)\n")
		b.WriteString("- 70-100: Overbought (potential sell)\n\n")
		b.WriteString("Strategy: We wait for extreme conditions to make decisions.")
		return b.String()
	}
	return base
}
