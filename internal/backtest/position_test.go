package backtest

import (
	"math"
	"testing"
)

func TestLeveragedLots(t *testing.T) {
	tests := []struct {
		name     string
		capital  float64
		leverage float64
		price    float64
		minLots  int
		wantLots int
		wantHow  sizing
	}{
		{"floors", 10_000, 1, 30, 0, 333, sized},
		{"minimum", 100, 1, 1_000, 1, 1, sized},
		{"zero notional", 10_000, 1, 0, 1, 1, sizedNoNotional},
		{"at cap", maxLots, 1, 1, 0, maxLots, sized},
		{"above cap", 1e12, 10, 1, 1, maxLots, sizedCapped},
		{"infinite capital", math.Inf(1), 1, 1, 0, maxLots, sizedCapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lots, how := leveragedLots(tt.capital, tt.leverage, tt.price, 1, tt.minLots)
			if lots != tt.wantLots {
				t.Errorf("lots = %d, want %d", lots, tt.wantLots)
			}
			if how != tt.wantHow {
				t.Errorf("sizing = %d, want %d", how, tt.wantHow)
			}
		})
	}
}
