package backtest

import (
	"math"
	"time"

	"github.com/newthinker/crossover/internal/core"
)

// DrawdownSeries returns, for each equity point, the percentage by which
// capital sits below its running peak, clamped to [0, 100].
func DrawdownSeries(curve []EquityPoint, diag *core.Diagnostics) []float64 {
	out := make([]float64, len(curve))
	peak := math.Inf(-1)
	for i, pt := range curve {
		peak = math.Max(peak, pt.Capital)
		if peak <= 0 {
			diag.Guard(core.GuardDrawdown, i, pt.Date, "running peak %v is not positive, drawdown set to 0", peak)
			continue
		}
		dd := (peak - pt.Capital) / peak * 100
		out[i] = math.Min(math.Max(dd, 0), 100)
	}
	return out
}

// MaxDrawdown returns the largest value of a drawdown series, in percent.
func MaxDrawdown(series []float64) float64 {
	var maxDD float64
	for _, dd := range series {
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// DrawdownDetail locates the worst peak-to-trough decline in money terms.
type DrawdownDetail struct {
	Pct        float64
	Amount     float64
	PeakDate   time.Time
	TroughDate time.Time
}

// WorstDrawdown finds the point of maximum percentage drawdown and reports
// its peak, trough and money amount.
func WorstDrawdown(curve []EquityPoint, series []float64) DrawdownDetail {
	if len(curve) == 0 || len(series) != len(curve) {
		return DrawdownDetail{}
	}

	trough := 0
	for i, dd := range series {
		if dd > series[trough] {
			trough = i
		}
	}
	if series[trough] == 0 {
		return DrawdownDetail{}
	}

	peak := 0
	for i := 0; i <= trough; i++ {
		if curve[i].Capital >= curve[peak].Capital {
			peak = i
		}
	}

	return DrawdownDetail{
		Pct:        series[trough],
		Amount:     curve[peak].Capital - curve[trough].Capital,
		PeakDate:   curve[peak].Date,
		TroughDate: curve[trough].Date,
	}
}

// TotalReturnPct is the percentage change from initial to final capital.
func TotalReturnPct(initial, final float64) float64 {
	return (final - initial) / initial * 100
}
