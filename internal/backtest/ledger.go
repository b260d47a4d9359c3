package backtest

import (
	"math"
	"sort"
)

// Ledger is the append-only record of closed trades.
type Ledger struct {
	trades     []Trade
	lotsByYear map[int]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{lotsByYear: make(map[int]int)}
}

// Append records a closed trade.
func (l *Ledger) Append(t Trade) {
	l.trades = append(l.trades, t)
}

// AddLots adds traded lots to a calendar year's turnover.
func (l *Ledger) AddLots(year, lots int) {
	if lots <= 0 {
		return
	}
	l.lotsByYear[year] += lots
}

// Count returns the number of closed trades.
func (l *Ledger) Count() int {
	return len(l.trades)
}

// Trades returns a copy of the closed trades in order.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// WinRate is the fraction of trades with positive PnL, 0 with no trades.
func (l *Ledger) WinRate() float64 {
	if len(l.trades) == 0 {
		return 0
	}
	var wins int
	for _, t := range l.trades {
		if t.IsWin() {
			wins++
		}
	}
	return float64(wins) / float64(len(l.trades))
}

// TotalHoldDays sums HoldDays over all trades.
func (l *Ledger) TotalHoldDays() int {
	var total int
	for _, t := range l.trades {
		total += t.HoldDays
	}
	return total
}

// ReturnRange returns the lowest and highest ReturnOnNotionalPct, both 0
// with no trades.
func (l *Ledger) ReturnRange() (lo, hi float64) {
	if len(l.trades) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, t := range l.trades {
		lo = math.Min(lo, t.ReturnOnNotionalPct)
		hi = math.Max(hi, t.ReturnOnNotionalPct)
	}
	return lo, hi
}

// YearLots is the number of lots traded in a calendar year.
type YearLots struct {
	Year int
	Lots int
}

// LotsByYear returns yearly turnover sorted by year.
func (l *Ledger) LotsByYear() []YearLots {
	out := make([]YearLots, 0, len(l.lotsByYear))
	for y, n := range l.lotsByYear {
		out = append(out, YearLots{Year: y, Lots: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
