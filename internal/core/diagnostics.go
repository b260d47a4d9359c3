package core

import (
	"fmt"
	"time"
)

// GuardEvent records a numeric substitution made to avoid dividing by zero
// or overflowing a position size.
// The substitution changes the result, so callers get to see every one.
type GuardEvent struct {
	Site    string
	Index   int
	Date    time.Time
	Message string
}

// Diagnostics collects guard events for one computation. A nil *Diagnostics
// discards everything.
type Diagnostics struct {
	Guards []GuardEvent
}

// Guard appends a guard event.
func (d *Diagnostics) Guard(site string, index int, date time.Time, format string, args ...any) {
	if d == nil {
		return
	}
	d.Guards = append(d.Guards, GuardEvent{
		Site:    site,
		Index:   index,
		Date:    date,
		Message: fmt.Sprintf(format, args...),
	})
}

// Count returns the number of recorded guard events.
func (d *Diagnostics) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Guards)
}

// Guard sites.
const (
	GuardEntrySizing     = "entry_sizing"
	GuardRebalanceSizing = "rebalance_sizing"
	GuardTradeReturn     = "trade_return"
	GuardDrawdown        = "drawdown"
	GuardPeriodReturn    = "period_return"
	GuardDailyReturn     = "daily_return"
	GuardLotCap          = "lot_cap"
)
