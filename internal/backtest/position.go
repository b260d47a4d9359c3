package backtest

import (
	"math"
	"time"
)

// openPosition is the only position state the engine carries. A nil
// *openPosition means flat; there is no partially reset state in between.
type openPosition struct {
	direction  Direction
	entryPrice float64
	entryDate  time.Time
	lots       int
	entryFee   float64
	reason     Reason

	// month boundaries crossed since entry or the last rebalance
	monthsSinceRebalance int
}

// markToMarket is the P&L of holding the position from prev to close.
func (p *openPosition) markToMarket(prev, close, pointValue float64) float64 {
	return p.direction.sign() * (close - prev) * float64(p.lots) * pointValue
}

// grossPnL is the P&L from entry to close, before fees.
func (p *openPosition) grossPnL(close, pointValue float64) float64 {
	return p.direction.sign() * (close - p.entryPrice) * float64(p.lots) * pointValue
}

// carry is one day of backwardation credit on the position's notional.
func (p *openPosition) carry(close, pointValue, annualRatePct float64) float64 {
	return float64(p.lots) * close * pointValue * (annualRatePct / 100 / 252)
}

// sizing reports how leveragedLots arrived at its answer.
type sizing int

const (
	sized sizing = iota
	sizedNoNotional
	sizedCapped
)

// maxLots bounds a computed position size.
const maxLots = math.MaxInt32

// leveragedLots is floor(capital × leverage / (price × pointValue)), never
// below minLots and never above maxLots.
func leveragedLots(capital, leverage, price, pointValue float64, minLots int) (int, sizing) {
	perLot := price * pointValue
	if perLot <= 0 {
		return minLots, sizedNoNotional
	}
	raw := math.Floor(capital * leverage / perLot)
	if raw < float64(minLots) || math.IsNaN(raw) {
		return minLots, sized
	}
	if raw > maxLots {
		return maxLots, sizedCapped
	}
	return int(raw), sized
}

// holdDays counts calendar days between entry and exit.
func holdDays(entry, exit time.Time) int {
	return int(exit.Sub(entry).Hours() / 24)
}
