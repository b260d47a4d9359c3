package collector

import (
	"context"
	"time"

	"github.com/newthinker/crossover/internal/core"
)

// Collector fetches daily closing prices.
type Collector interface {
	// Name identifies the source ("yahoo", "csv", ...).
	Name() string

	// FetchHistory returns the daily closes of symbol between start and end
	// inclusive, oldest first. A zero start or end leaves that side open.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error)
}
