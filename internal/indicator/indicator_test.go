package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/lumen-labs/signal-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func series(closes ...float64) types.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(types.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = types.PricePoint{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Close:     decimal.NewFromFloat(c),
		}
	}
	return s
}

func TestPercentChange(t *testing.T) {
	got, err := PercentChange(series(100, 94))
	if err != nil {
		t.Fatalf("PercentChange failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(-6)) {
		t.Errorf("Expected -6, got %s", got)
	}

	got, err = PercentChange(series(100, 96))
	if err != nil {
		t.Fatalf("PercentChange failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("Expected -4, got %s", got)
	}
}

func TestPercentChangeInsufficientData(t *testing.T) {
	for _, s := range []types.PriceSeries{nil, series(), series(100)} {
		if _, err := PercentChange(s); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Expected ErrInsufficientData for %d points, got %v", len(s), err)
		}
	}
}

func TestSMA(t *testing.T) {
	got, err := SMA(series(10, 12, 14), 2)
	if err != nil {
		t.Fatalf("SMA failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(13)) {
		t.Errorf("Expected 13, got %s", got)
	}

	got, err = SMA(series(10, 12, 14), 3)
	if err != nil {
		t.Fatalf("SMA failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected 12, got %s", got)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	if _, err := SMA(series(10, 12), 3); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := SMA(series(10, 12), 0); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for zero period, got %v", err)
	}
}

func TestRSIMonotonicRise(t *testing.T) {
	// Zero average loss must read as exactly 100, never NaN or an error.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	got, err := RSI(series(closes...), DefaultRSIPeriod)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected RSI 100 for rising series, got %s", got)
	}
}

func TestRSIMonotonicFall(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	got, err := RSI(series(closes...), DefaultRSIPeriod)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if !got.Equal(decimal.Zero) {
		t.Errorf("Expected RSI 0 for falling series, got %s", got)
	}
}

func TestRSIBalanced(t *testing.T) {
	// Alternating +1/-1 deltas: average gain equals average loss, RSI 50.
	closes := []float64{100}
	for i := 0; i < 7; i++ {
		closes = append(closes, 101, 100)
	}

	got, err := RSI(series(closes...), DefaultRSIPeriod)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected RSI 50 for balanced series, got %s", got)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	closes := make([]float64, DefaultRSIPeriod) // one short of period+1
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	if _, err := RSI(series(closes...), DefaultRSIPeriod); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}
