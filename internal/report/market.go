package report

import (
	"github.com/newthinker/crossover/internal/backtest"
	"github.com/newthinker/crossover/internal/core"
)

// Signals is the trailing signal column.
type Signals struct {
	Dates   []string `json:"dates"`
	Signals []int    `json:"signals"`
}

// Market is the current crossover reading.
type Market struct {
	Symbol         string  `json:"symbol,omitempty"`
	Window         int     `json:"window"`
	LatestDate     string  `json:"latestDate"`
	LatestPrice    float64 `json:"latestPrice"`
	IndicatorValue float64 `json:"indicatorValue"`
	PriceDiff      float64 `json:"priceDiff"`
	Signal         string  `json:"signal"`
	Recent100      Signals `json:"recent100"`
}

// FromMarket builds the market document.
func FromMarket(symbol string, window int, st *backtest.MarketStatus) *Market {
	out := &Market{
		Symbol:         symbol,
		Window:         window,
		LatestDate:     core.FormatDate(st.LatestDate),
		LatestPrice:    price(st.LatestPrice),
		IndicatorValue: price(st.IndicatorValue),
		PriceDiff:      price(st.PriceDiff),
		Signal:         string(st.Signal),
		Recent100: Signals{
			Dates:   make([]string, len(st.Recent)),
			Signals: make([]int, len(st.Recent)),
		},
	}
	for i, p := range st.Recent {
		out.Recent100.Dates[i] = core.FormatDate(p.Date)
		out.Recent100.Signals[i] = p.Signal
	}
	return out
}
