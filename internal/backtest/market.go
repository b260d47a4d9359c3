package backtest

import (
	"fmt"
	"time"

	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/indicator"
)

// recentSignals is how many trailing bars MarketStatus reports.
const recentSignals = 100

// MarketStatus is the latest crossover reading for a series.
type MarketStatus struct {
	LatestDate     time.Time
	LatestPrice    float64
	IndicatorValue float64
	PriceDiff      float64
	Signal         Direction // Long when close > average, otherwise Short
	Recent         []SignalPoint
}

// SignalPoint is +1 when the close was above its average and -1 otherwise.
type SignalPoint struct {
	Date   time.Time
	Signal int
}

// CurrentStatus evaluates the last bar against its moving average and the
// signal for each of the trailing bars that have an average.
func CurrentStatus(bars []core.PriceBar, window int) (*MarketStatus, error) {
	if window < 2 {
		return nil, core.Errorf(core.ErrInvalidParameters, "indicator window must be at least 2, got %d", window)
	}
	if err := core.ValidateSeries(bars); err != nil {
		return nil, err
	}

	ma := indicator.SMA(core.Closes(bars), window)
	if len(ma) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d bars cannot fill a %d-bar average", len(bars), window))
	}

	// ma[k] belongs to bars[k+offset]
	offset := window - 1
	latest := bars[len(bars)-1]
	latestMA := ma[len(ma)-1]
	diff := latest.Close - latestMA

	status := &MarketStatus{
		LatestDate:     core.Day(latest.Date),
		LatestPrice:    latest.Close,
		IndicatorValue: latestMA,
		PriceDiff:      diff,
		Signal:         Short,
	}
	if diff > 0 {
		status.Signal = Long
	}

	from := max(offset, len(bars)-recentSignals)
	status.Recent = make([]SignalPoint, 0, len(bars)-from)
	for i := from; i < len(bars); i++ {
		sig := -1
		if bars[i].Close > ma[i-offset] {
			sig = 1
		}
		status.Recent = append(status.Recent, SignalPoint{Date: core.Day(bars[i].Date), Signal: sig})
	}

	return status, nil
}
