// Package report turns engine results into the JSON documents served by the
// CLI and the HTTP API. Dates are YYYY-MM-DD; amounts are rounded to cents.
package report

import (
	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/review"
)

// Series is a dated value column.
type Series struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// RunSummary holds the headline numbers of a run.
type RunSummary struct {
	Period             string  `json:"period"`
	FinalAssets        float64 `json:"finalAssets"`
	TotalReturnPct     float64 `json:"totalReturnPct"`
	MaxDrawdownPct     float64 `json:"maxDrawdownPct"`
	WinRatePct         float64 `json:"winRatePct"`
	TradeCount         int     `json:"tradeCount"`
	TotalHoldDays      int     `json:"totalHoldDays"`
	MaxTradeReturnPct  float64 `json:"maxTradeReturnPct"`
	MinTradeReturnPct  float64 `json:"minTradeReturnPct"`
	MaxDrawdownAmount  float64 `json:"maxDrawdownAmount"`
	TotalFees          float64 `json:"totalFees"`
	TotalContributions float64 `json:"totalContributions"`
}

// Trade is one closed round trip.
type Trade struct {
	ID                  int     `json:"id"`
	EntryDate           string  `json:"entryDate"`
	ExitDate            string  `json:"exitDate"`
	Direction           string  `json:"direction"`
	HoldDays            int     `json:"holdDays"`
	EntryPrice          float64 `json:"entryPrice"`
	ExitPrice           float64 `json:"exitPrice"`
	Lots                int     `json:"lots"`
	TotalFee            float64 `json:"totalFee"`
	PnL                 float64 `json:"pnl"`
	ReturnOnCapitalPct  float64 `json:"returnOnCapitalPct"`
	ReturnOnNotionalPct float64 `json:"returnOnNotionalPct"`
	CapitalAfter        float64 `json:"capitalAfter"`
	EntryReason         string  `json:"entryReason"`
	ExitReason          string  `json:"exitReason"`
}

// OpenPosition is the position still held after the last bar.
type OpenPosition struct {
	Direction        string  `json:"direction"`
	EntryDate        string  `json:"entryDate"`
	EntryPrice       float64 `json:"entryPrice"`
	LastPrice        float64 `json:"lastPrice"`
	Lots             int     `json:"lots"`
	UnrealizedPnL    float64 `json:"unrealizedPnL"`
	EstimatedExitFee float64 `json:"estimatedExitFee"`
}

// Rebalance is one lot adjustment.
type Rebalance struct {
	Date         string  `json:"date"`
	Direction    string  `json:"direction"`
	FromLots     int     `json:"fromLots"`
	ToLots       int     `json:"toLots"`
	Fee          float64 `json:"fee"`
	CapitalAfter float64 `json:"capitalAfter"`
}

// PeriodReturn is a calendar period's change in percent.
type PeriodReturn struct {
	Period    string  `json:"period"`
	ReturnPct float64 `json:"returnPct"`
}

// YearValue pairs a year with a number.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ReturnBucket is a 1% bin of monthly index returns.
type ReturnBucket struct {
	Lower    int     `json:"lowerPct"`
	Upper    int     `json:"upperPct"`
	Count    int     `json:"count"`
	SharePct float64 `json:"sharePct"`
}

// Analytics holds the calendar breakdowns.
type Analytics struct {
	YearlyReturns            []PeriodReturn `json:"yearlyReturns"`
	MonthlyReturns           []PeriodReturn `json:"monthlyReturns"`
	YearlyIndexReturns       []PeriodReturn `json:"yearlyIndexReturns"`
	MonthlyIndexReturns      []PeriodReturn `json:"monthlyIndexReturns"`
	MonthlyIndexDistribution []ReturnBucket `json:"monthlyIndexDistribution"`
	YearlyMaxDrawdownPct     []YearValue    `json:"yearlyMaxDrawdownPct"`
	LotsByYear               []YearValue    `json:"lotsByYear"`
	WorstDrawdownPeak        string         `json:"worstDrawdownPeak,omitempty"`
	WorstDrawdownTrough      string         `json:"worstDrawdownTrough,omitempty"`
}

// Guard is a recorded division-by-zero substitution.
type Guard struct {
	Site    string `json:"site"`
	Index   int    `json:"index"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message"`
}

// Run is the document for one backtest.
type Run struct {
	Success        bool                `json:"success"`
	Parameters     backtest.Parameters `json:"parameters"`
	Summary        RunSummary          `json:"summary"`
	Trades         []Trade             `json:"trades"`
	CapitalHistory Series              `json:"capitalHistory"`
	MddHistory     Series              `json:"mddHistory"`
	IndexHistory   Series              `json:"indexHistory"`
	OpenPosition   *OpenPosition       `json:"openPosition,omitempty"`
	Rebalances     []Rebalance         `json:"rebalances"`
	Analytics      Analytics           `json:"analytics"`
	Guards         []Guard             `json:"guards,omitempty"`
	ArchiveID      string              `json:"archiveId,omitempty"`
	Review         *review.Review      `json:"review,omitempty"`
}

// FromResult builds the run document.
func FromResult(res *backtest.Result) *Run {
	s := res.Summary
	run := &Run{
		Success:    true,
		Parameters: res.Params,
		Summary: RunSummary{
			Period:             s.Period(),
			FinalAssets:        money(s.FinalAssets),
			TotalReturnPct:     pct(s.TotalReturnPct),
			MaxDrawdownPct:     pct(s.MaxDrawdownPct),
			WinRatePct:         pct(s.WinRatePct),
			TradeCount:         s.TradeCount,
			TotalHoldDays:      s.TotalHoldDays,
			MaxTradeReturnPct:  pct(s.MaxTradeReturnPct),
			MinTradeReturnPct:  pct(s.MinTradeReturnPct),
			MaxDrawdownAmount:  money(res.Analytics.WorstDrawdown.Amount),
			TotalFees:          money(s.TotalFees),
			TotalContributions: money(s.TotalContributions),
		},
		Trades:     make([]Trade, len(res.Trades)),
		Rebalances: make([]Rebalance, len(res.Rebalances)),
	}

	for i, t := range res.Trades {
		run.Trades[i] = Trade{
			ID:                  t.ID,
			EntryDate:           core.FormatDate(t.EntryDate),
			ExitDate:            core.FormatDate(t.ExitDate),
			Direction:           string(t.Direction),
			HoldDays:            t.HoldDays,
			EntryPrice:          price(t.EntryPrice),
			ExitPrice:           price(t.ExitPrice),
			Lots:                t.Lots,
			TotalFee:            money(t.TotalFee),
			PnL:                 money(t.PnL),
			ReturnOnCapitalPct:  pct(t.ReturnOnCapitalPct),
			ReturnOnNotionalPct: pct(t.ReturnOnNotionalPct),
			CapitalAfter:        money(t.CapitalAfter),
			EntryReason:         string(t.EntryReason),
			ExitReason:          string(t.ExitReason),
		}
	}

	n := len(res.Equity)
	dates := make([]string, n)
	capital := make([]float64, n)
	index := make([]float64, n)
	for i, pt := range res.Equity {
		dates[i] = core.FormatDate(pt.Date)
		capital[i] = money(pt.Capital)
		index[i] = price(pt.IndexClose)
	}
	run.CapitalHistory = Series{Dates: dates, Values: capital}
	run.MddHistory = Series{Dates: dates, Values: roundAll(res.Drawdown, pctPlaces)}
	run.IndexHistory = Series{Dates: dates, Values: index}

	if op := res.OpenPosition; op != nil {
		run.OpenPosition = &OpenPosition{
			Direction:        string(op.Direction),
			EntryDate:        core.FormatDate(op.EntryDate),
			EntryPrice:       price(op.EntryPrice),
			LastPrice:        price(op.LastPrice),
			Lots:             op.Lots,
			UnrealizedPnL:    money(op.UnrealizedPnL),
			EstimatedExitFee: money(op.EstimatedExitFee),
		}
	}

	for i, rb := range res.Rebalances {
		run.Rebalances[i] = Rebalance{
			Date:         core.FormatDate(rb.Date),
			Direction:    string(rb.Direction),
			FromLots:     rb.FromLots,
			ToLots:       rb.ToLots,
			Fee:          money(rb.Fee),
			CapitalAfter: money(rb.CapitalAfter),
		}
	}

	run.Analytics = analytics(res.Analytics)

	for _, g := range res.Diagnostics.Guards {
		guard := Guard{Site: g.Site, Index: g.Index, Message: g.Message}
		if !g.Date.IsZero() {
			guard.Date = core.FormatDate(g.Date)
		}
		run.Guards = append(run.Guards, guard)
	}

	return run
}

func analytics(a backtest.Analytics) Analytics {
	out := Analytics{
		YearlyReturns:       periods(a.YearlyReturns),
		MonthlyReturns:      periods(a.MonthlyReturns),
		YearlyIndexReturns:  periods(a.YearlyIndexReturns),
		MonthlyIndexReturns: periods(a.MonthlyIndexReturns),
	}
	for _, b := range a.MonthlyIndexDistribution {
		out.MonthlyIndexDistribution = append(out.MonthlyIndexDistribution, ReturnBucket{
			Lower:    b.Lower,
			Upper:    b.Upper,
			Count:    b.Count,
			SharePct: pct(b.Share),
		})
	}
	for _, y := range a.YearlyMaxDrawdown {
		out.YearlyMaxDrawdownPct = append(out.YearlyMaxDrawdownPct, YearValue{Year: y.Year, Value: pct(y.MaxDrawdownPct)})
	}
	for _, y := range a.LotsByYear {
		out.LotsByYear = append(out.LotsByYear, YearValue{Year: y.Year, Value: float64(y.Lots)})
	}
	if wd := a.WorstDrawdown; !wd.PeakDate.IsZero() {
		out.WorstDrawdownPeak = core.FormatDate(wd.PeakDate)
		out.WorstDrawdownTrough = core.FormatDate(wd.TroughDate)
	}
	return out
}

func periods(in []backtest.PeriodReturn) []PeriodReturn {
	out := make([]PeriodReturn, len(in))
	for i, p := range in {
		out[i] = PeriodReturn{Period: p.Period, ReturnPct: pct(p.ReturnPct)}
	}
	return out
}
