package backtest

import (
	"math"
	"time"

	"github.com/newthinker/crossover/internal/core"
)

// simulation is the private arena of one run. Nothing in it is shared.
type simulation struct {
	p Parameters

	capital float64
	pos     *openPosition
	ledger  *Ledger

	equity     []EquityPoint
	rebalances []RebalanceEvent
	diag       core.Diagnostics

	prevClose float64
	prevDate  time.Time

	fees          float64
	contributions float64
}

func newSimulation(p Parameters, bars int) *simulation {
	return &simulation{
		p:       p,
		capital: p.InitialCapital,
		ledger:  NewLedger(),
		equity:  make([]EquityPoint, 0, bars),
	}
}

// step processes one bar. The order of the money movements below is part of
// the contract: contribution, mark-to-market, carry, rebalance, then signals.
func (s *simulation) step(i int, bar core.PriceBar, ma float64, last bool) {
	monthChanged := i > 0 && !core.SameMonth(bar.Date, s.prevDate)

	if monthChanged && s.p.MonthlyContribution > 0 {
		s.capital += s.p.MonthlyContribution
		s.contributions += s.p.MonthlyContribution
	}

	if s.pos != nil {
		s.capital += s.pos.markToMarket(s.prevClose, bar.Close, s.p.PointValue)

		if s.p.EnableBackwardationCarry {
			s.capital += s.pos.carry(bar.Close, s.p.PointValue, s.p.BackwardationAnnualRatePct)
		}

		if monthChanged {
			s.pos.monthsSinceRebalance++
			if s.rebalanceDue() {
				s.rebalance(i, bar)
			}
		}
	}

	s.transition(i, bar, bar.Close-ma, last)

	s.equity = append(s.equity, EquityPoint{Date: bar.Date, Capital: s.capital, IndexClose: bar.Close})
	s.prevClose = bar.Close
	s.prevDate = bar.Date
}

func (s *simulation) rebalanceDue() bool {
	return s.p.LotMode == LotDynamic &&
		s.p.EnableRebalance &&
		s.pos.monthsSinceRebalance >= s.p.RebalancePeriodMonths
}

// transition applies the trade-mode table to the current signal.
func (s *simulation) transition(i int, bar core.PriceBar, signal float64, last bool) {
	if s.pos == nil {
		if dir, reason, ok := s.entrySignal(i, signal); ok {
			s.open(i, bar, dir, reason)
		}
		return
	}

	switch s.p.TradeMode {
	case HoldToEnd:
		if last {
			s.close(i, bar, ReasonEndOfSeries)
		}
	case LongOnly, ShortOnly:
		if s.pos.direction == Long && signal < 0 {
			s.close(i, bar, ReasonCrossBelow)
		} else if s.pos.direction == Short && signal > 0 {
			s.close(i, bar, ReasonCrossAbove)
		}
	case Both:
		if s.pos.direction.sign()*signal < 0 {
			next, reason := s.pos.direction.Opposite(), crossReason(signal)
			s.close(i, bar, reason)
			s.open(i, bar, next, reason)
		}
	}
}

func crossReason(signal float64) Reason {
	if signal > 0 {
		return ReasonCrossAbove
	}
	return ReasonCrossBelow
}

// entrySignal decides whether a flat book opens on bar i. Hold-to-end buys
// the first usable bar; the signal modes have no previous bar to compare
// against there and start evaluating on bar 1.
func (s *simulation) entrySignal(i int, signal float64) (Direction, Reason, bool) {
	if s.p.TradeMode == HoldToEnd {
		if i == 0 {
			return Long, ReasonHoldStart, true
		}
		return "", "", false
	}
	if i == 0 {
		return "", "", false
	}

	switch s.p.TradeMode {
	case LongOnly:
		if signal > 0 {
			return Long, ReasonCrossAbove, true
		}
	case ShortOnly:
		if signal < 0 {
			return Short, ReasonCrossBelow, true
		}
	case Both:
		if signal > 0 {
			return Long, ReasonCrossAbove, true
		}
		if signal < 0 {
			return Short, ReasonCrossBelow, true
		}
	}
	return "", "", false
}

func (s *simulation) open(i int, bar core.PriceBar, dir Direction, reason Reason) {
	lots := s.p.FixedLots
	if s.p.LotMode == LotDynamic {
		var how sizing
		lots, how = leveragedLots(s.capital, s.p.Leverage, bar.Close, s.p.PointValue, 1)
		switch how {
		case sizedNoNotional:
			s.diag.Guard(core.GuardEntrySizing, i, bar.Date, "notional per lot is not positive at close %v, sized at %d lot", bar.Close, lots)
		case sizedCapped:
			s.diag.Guard(core.GuardLotCap, i, bar.Date, "entry size capped at %d lots at close %v", lots, bar.Close)
		}
	}

	var fee float64
	if s.p.UseFee {
		fee = s.p.BuyFee * float64(lots)
	}
	s.capital -= fee
	s.fees += fee

	s.pos = &openPosition{
		direction:  dir,
		entryPrice: bar.Close,
		entryDate:  bar.Date,
		lots:       lots,
		entryFee:   fee,
		reason:     reason,
	}
	s.ledger.AddLots(bar.Date.Year(), lots)
}

func (s *simulation) close(i int, bar core.PriceBar, reason Reason) {
	pos := s.pos

	var exitFee float64
	if s.p.UseFee {
		exitFee = s.p.SellFee * float64(pos.lots)
	}
	s.capital -= exitFee
	s.fees += exitFee

	totalFee := pos.entryFee + exitFee
	pnl := pos.grossPnL(bar.Close, s.p.PointValue) - totalFee

	notional := pos.entryPrice * float64(pos.lots) * s.p.PointValue
	var notionalPct float64
	if notional == 0 {
		s.diag.Guard(core.GuardTradeReturn, i, bar.Date, "trade closed with %d lots, notional return set to 0", pos.lots)
	} else {
		notionalPct = pnl / notional * 100
	}

	s.ledger.Append(Trade{
		ID:                  s.ledger.Count() + 1,
		EntryDate:           pos.entryDate,
		ExitDate:            bar.Date,
		Direction:           pos.direction,
		HoldDays:            holdDays(pos.entryDate, bar.Date),
		EntryPrice:          pos.entryPrice,
		ExitPrice:           bar.Close,
		Lots:                pos.lots,
		TotalFee:            totalFee,
		PnL:                 pnl,
		ReturnOnCapitalPct:  pnl / s.p.InitialCapital * 100,
		ReturnOnNotionalPct: notionalPct,
		CapitalAfter:        s.capital,
		EntryReason:         pos.reason,
		ExitReason:          reason,
	})
	s.pos = nil
}

func (s *simulation) rebalance(i int, bar core.PriceBar) {
	target, how := leveragedLots(s.capital, s.p.Leverage, bar.Close, s.p.PointValue, 0)
	switch how {
	case sizedNoNotional:
		s.diag.Guard(core.GuardRebalanceSizing, i, bar.Date, "notional per lot is not positive at close %v, target set to 0", bar.Close)
	case sizedCapped:
		s.diag.Guard(core.GuardLotCap, i, bar.Date, "rebalance target capped at %d lots at close %v", target, bar.Close)
	}
	s.pos.monthsSinceRebalance = 0

	diff := target - s.pos.lots
	if diff == 0 {
		return
	}
	delta := int(math.Abs(float64(diff)))

	var fee float64
	if s.p.UseFee {
		fee = float64(delta) * (s.p.BuyFee + s.p.SellFee)
	}
	s.capital -= fee
	s.fees += fee

	s.rebalances = append(s.rebalances, RebalanceEvent{
		Date:         bar.Date,
		Direction:    s.pos.direction,
		FromLots:     s.pos.lots,
		ToLots:       target,
		Fee:          fee,
		CapitalAfter: s.capital,
	})
	s.pos.lots = target
	s.ledger.AddLots(bar.Date.Year(), delta)
}

func (s *simulation) result() *Result {
	first, last := s.equity[0], s.equity[len(s.equity)-1]

	drawdown := DrawdownSeries(s.equity, &s.diag)
	lo, hi := s.ledger.ReturnRange()

	res := &Result{
		Params: s.p,
		Summary: Summary{
			StartDate:          first.Date,
			EndDate:            last.Date,
			FinalAssets:        last.Capital,
			TotalReturnPct:     TotalReturnPct(s.p.InitialCapital, last.Capital),
			MaxDrawdownPct:     -MaxDrawdown(drawdown),
			WinRatePct:         s.ledger.WinRate() * 100,
			TradeCount:         s.ledger.Count(),
			TotalHoldDays:      s.ledger.TotalHoldDays(),
			MaxTradeReturnPct:  hi,
			MinTradeReturnPct:  lo,
			TotalFees:          s.fees,
			TotalContributions: s.contributions,
		},
		Trades:     s.ledger.Trades(),
		Equity:     s.equity,
		Drawdown:   drawdown,
		Rebalances: s.rebalances,
		Analytics: Analytics{
			YearlyReturns:            PeriodReturns(s.equity, ByYear, &s.diag),
			MonthlyReturns:           PeriodReturns(s.equity, ByMonth, &s.diag),
			YearlyIndexReturns:       IndexPeriodReturns(s.equity, ByYear),
			MonthlyIndexReturns:      IndexPeriodReturns(s.equity, ByMonth),
			MonthlyIndexDistribution: MonthlyIndexDistribution(s.equity),
			YearlyMaxDrawdown:        YearlyMaxDrawdown(s.equity),
			LotsByYear:               s.ledger.LotsByYear(),
			WorstDrawdown:            WorstDrawdown(s.equity, drawdown),
		},
	}

	if s.pos != nil {
		var exitFee float64
		if s.p.UseFee {
			exitFee = s.p.SellFee * float64(s.pos.lots)
		}
		res.OpenPosition = &OpenPositionReport{
			Direction:        s.pos.direction,
			EntryDate:        s.pos.entryDate,
			EntryPrice:       s.pos.entryPrice,
			LastPrice:        last.IndexClose,
			Lots:             s.pos.lots,
			UnrealizedPnL:    s.pos.grossPnL(last.IndexClose, s.p.PointValue),
			EstimatedExitFee: exitFee,
		}
	}

	res.Diagnostics = s.diag
	return res
}
