package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/crossover/internal/core"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14

	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if !almostEqual(sma[i], v, 1e-9) {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	if got := SMA([]float64{1, 2, 3}, 0); len(got) != 0 {
		t.Errorf("expected empty slice for period 0, got %v", got)
	}
}

func bars(closes ...float64) []core.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = core.PriceBar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return out
}

func TestTrim_AlignsBarsWithAverage(t *testing.T) {
	in := bars(10, 11, 12, 13, 14, 15)

	usable, ma, err := Trim(in, 3)
	if err != nil {
		t.Fatalf("Trim() error = %v", err)
	}
	if len(usable) != 4 || len(ma) != 4 {
		t.Fatalf("expected 4 usable bars, got %d bars / %d values", len(usable), len(ma))
	}
	if !usable[0].Date.Equal(in[2].Date) {
		t.Errorf("first usable bar = %v, want %v", usable[0].Date, in[2].Date)
	}
	if !almostEqual(ma[0], 11, 1e-9) {
		t.Errorf("ma[0] = %f, want 11", ma[0])
	}

	// The caller's slice must not alias the trimmed copy.
	usable[0].Close = -1
	if in[2].Close != 12 {
		t.Error("Trim must copy the bars it returns")
	}
}

func TestTrim_InsufficientData(t *testing.T) {
	_, _, err := Trim(bars(10, 11, 12), 3)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestTrim_InvalidWindow(t *testing.T) {
	_, _, err := Trim(bars(10, 11, 12), 1)
	if !errors.Is(err, core.ErrInvalidParameters) {
		t.Errorf("expected INVALID_PARAMETERS, got %v", err)
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
