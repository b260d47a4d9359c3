package backtest

import (
	"fmt"
	"math"

	"github.com/newthinker/crossover/internal/core"
)

// Grouping selects the calendar bucket for period returns.
type Grouping int

const (
	ByYear Grouping = iota
	ByMonth
)

func (g Grouping) key(pt EquityPoint) string {
	if g == ByMonth {
		return fmt.Sprintf("%04d-%02d", pt.Date.Year(), int(pt.Date.Month()))
	}
	return fmt.Sprintf("%04d", pt.Date.Year())
}

// PeriodReturn is the change between the first and last observation of a
// calendar period.
type PeriodReturn struct {
	Period    string // "2024" or "2024-03"
	Start     float64
	End       float64
	ReturnPct float64
}

// PeriodReturns groups the capital curve by calendar period and returns
// last/first - 1 for each group, in chronological order.
func PeriodReturns(curve []EquityPoint, g Grouping, diag *core.Diagnostics) []PeriodReturn {
	return periodReturns(curve, g, func(pt EquityPoint) float64 { return pt.Capital }, diag)
}

// IndexPeriodReturns does the same over the index closes, the buy-and-hold
// benchmark for the run.
func IndexPeriodReturns(curve []EquityPoint, g Grouping) []PeriodReturn {
	return periodReturns(curve, g, func(pt EquityPoint) float64 { return pt.IndexClose }, nil)
}

func periodReturns(curve []EquityPoint, g Grouping, value func(EquityPoint) float64, diag *core.Diagnostics) []PeriodReturn {
	var out []PeriodReturn
	for i := 0; i < len(curve); {
		key := g.key(curve[i])
		j := i
		for j+1 < len(curve) && g.key(curve[j+1]) == key {
			j++
		}

		first, last := value(curve[i]), value(curve[j])
		denom := first
		if denom == 0 {
			diag.Guard(core.GuardPeriodReturn, i, curve[i].Date, "period %s starts at 0, denominator replaced by 1", key)
			denom = 1
		}
		out = append(out, PeriodReturn{
			Period:    key,
			Start:     first,
			End:       last,
			ReturnPct: (last/denom - 1) * 100,
		})
		i = j + 1
	}
	return out
}

// YearDrawdown is the maximum drawdown measured within one calendar year.
type YearDrawdown struct {
	Year           int
	MaxDrawdownPct float64
}

// YearlyMaxDrawdown restarts the running peak at each year boundary.
func YearlyMaxDrawdown(curve []EquityPoint) []YearDrawdown {
	var out []YearDrawdown
	for i := 0; i < len(curve); {
		year := curve[i].Date.Year()
		j := i
		for j+1 < len(curve) && curve[j+1].Date.Year() == year {
			j++
		}
		out = append(out, YearDrawdown{
			Year:           year,
			MaxDrawdownPct: MaxDrawdown(DrawdownSeries(curve[i:j+1], nil)),
		})
		i = j + 1
	}
	return out
}

// ReturnBucket counts monthly returns falling in [Lower, Upper) percent.
type ReturnBucket struct {
	Lower int
	Upper int
	Count int
	Share float64 // percent of all months
}

// MonthlyIndexDistribution buckets monthly index returns into 1% bins from
// -20% to +21%. Returns outside that band are not counted; empty bins are
// omitted.
func MonthlyIndexDistribution(curve []EquityPoint) []ReturnBucket {
	const lo, hi = -20, 21

	months := IndexPeriodReturns(curve, ByMonth)
	if len(months) == 0 {
		return nil
	}

	counts := make([]int, hi-lo)
	for _, m := range months {
		b := int(math.Floor(m.ReturnPct))
		if b < lo || b >= hi {
			continue
		}
		counts[b-lo]++
	}

	var out []ReturnBucket
	for i, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, ReturnBucket{
			Lower: lo + i,
			Upper: lo + i + 1,
			Count: n,
			Share: float64(n) / float64(len(months)) * 100,
		})
	}
	return out
}
