package backtest

import (
	"time"

	"github.com/newthinker/crossover/internal/core"
)

// Direction is the side of an open position.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// sign is +1 for Long and -1 for Short.
func (d Direction) sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Reason explains why a position was entered or exited.
type Reason string

const (
	ReasonCrossAbove  Reason = "cross_above" // close moved above the average
	ReasonCrossBelow  Reason = "cross_below" // close moved below the average
	ReasonHoldStart   Reason = "hold_start"
	ReasonEndOfSeries Reason = "end_of_series"
)

// Result holds the complete backtest output
type Result struct {
	Params       Parameters
	Summary      Summary
	Trades       []Trade
	Equity       []EquityPoint
	Drawdown     []float64 // percent below running peak, one per equity point
	OpenPosition *OpenPositionReport
	Rebalances   []RebalanceEvent
	Analytics    Analytics
	Diagnostics  core.Diagnostics
}

// Summary holds the headline statistics of a run.
type Summary struct {
	StartDate          time.Time
	EndDate            time.Time
	FinalAssets        float64
	TotalReturnPct     float64
	MaxDrawdownPct     float64 // non-positive, e.g. -12.34
	WinRatePct         float64
	TradeCount         int
	TotalHoldDays      int
	MaxTradeReturnPct  float64
	MinTradeReturnPct  float64
	TotalFees          float64
	TotalContributions float64
}

// Period renders the run's date span as "start ~ end".
func (s Summary) Period() string {
	return core.FormatDate(s.StartDate) + " ~ " + core.FormatDate(s.EndDate)
}

// Trade represents a simulated trade from entry to exit
type Trade struct {
	ID                  int
	EntryDate           time.Time
	ExitDate            time.Time
	Direction           Direction
	HoldDays            int
	EntryPrice          float64
	ExitPrice           float64
	Lots                int
	TotalFee            float64
	PnL                 float64 // net of entry and exit fees
	ReturnOnCapitalPct  float64 // PnL over initial capital
	ReturnOnNotionalPct float64 // PnL over entry notional
	CapitalAfter        float64
	EntryReason         Reason
	ExitReason          Reason
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// EquityPoint is the capital and index close at the end of one bar.
type EquityPoint struct {
	Date       time.Time
	Capital    float64
	IndexClose float64
}

// OpenPositionReport describes a position still open after the last bar.
// Its P&L is already marked into capital; the exit fee is not charged.
type OpenPositionReport struct {
	Direction        Direction
	EntryDate        time.Time
	EntryPrice       float64
	LastPrice        float64
	Lots             int
	UnrealizedPnL    float64
	EstimatedExitFee float64
}

// RebalanceEvent records a lot adjustment on an open position.
type RebalanceEvent struct {
	Date         time.Time
	Direction    Direction
	FromLots     int
	ToLots       int
	Fee          float64
	CapitalAfter float64
}
