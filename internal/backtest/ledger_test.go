package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_Empty(t *testing.T) {
	l := NewLedger()

	assert.Equal(t, 0, l.Count())
	assert.Equal(t, 0.0, l.WinRate())
	assert.Equal(t, 0, l.TotalHoldDays())
	lo, hi := l.ReturnRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
	assert.Empty(t, l.LotsByYear())
}

func TestLedger_Stats(t *testing.T) {
	l := NewLedger()
	l.Append(Trade{ID: 1, PnL: 100, HoldDays: 3, ReturnOnNotionalPct: 2.5})
	l.Append(Trade{ID: 2, PnL: -40, HoldDays: 10, ReturnOnNotionalPct: -1})
	l.Append(Trade{ID: 3, PnL: 0, HoldDays: 1, ReturnOnNotionalPct: 0})
	l.Append(Trade{ID: 4, PnL: 5, HoldDays: 6, ReturnOnNotionalPct: 0.1})

	assert.Equal(t, 4, l.Count())
	assert.Equal(t, 0.5, l.WinRate(), "zero PnL is not a win")
	assert.Equal(t, 20, l.TotalHoldDays())

	lo, hi := l.ReturnRange()
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 2.5, hi)
}

func TestLedger_TradesIsCopy(t *testing.T) {
	l := NewLedger()
	l.Append(Trade{ID: 1, PnL: 1})

	trades := l.Trades()
	trades[0].PnL = -99

	assert.Equal(t, 1.0, l.Trades()[0].PnL)
}

func TestLedger_LotsByYear(t *testing.T) {
	l := NewLedger()
	l.AddLots(2024, 3)
	l.AddLots(2022, 1)
	l.AddLots(2024, 2)
	l.AddLots(2023, 0)

	assert.Equal(t, []YearLots{{Year: 2022, Lots: 1}, {Year: 2024, Lots: 5}}, l.LotsByYear())
}
