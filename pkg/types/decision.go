package types

import "github.com/shopspring/decimal"

// IndicatorContext maps indicator names to the values that drove a decision.
type IndicatorContext map[string]decimal.Decimal

// Value returns the named context value, or zero when absent. HOLD and
// insufficient-data decisions legitimately carry partial context, so lookups
// never fail.
func (c IndicatorContext) Value(name string) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	if v, ok := c[name]; ok {
		return v
	}
	return decimal.Zero
}

// Decision is the outcome of one strategy evaluation. It is constructed
// fresh each cycle and never mutated afterwards.
type Decision struct {
	Action      Action           `json:"action"`
	Context     IndicatorContext `json:"context"`
	Explanation string           `json:"explanation"`
}
