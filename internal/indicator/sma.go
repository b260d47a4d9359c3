package indicator

import (
	"fmt"

	"github.com/newthinker/crossover/internal/core"
)

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period < 1 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// Trim drops the warm-up bars that have no moving average and returns the
// remaining bars aligned index-for-index with their SMA values. At least two
// usable bars are required.
func Trim(bars []core.PriceBar, window int) ([]core.PriceBar, []float64, error) {
	if window < 2 {
		return nil, nil, core.Errorf(core.ErrInvalidParameters, "indicator window must be at least 2, got %d", window)
	}

	ma := SMA(core.Closes(bars), window)
	if len(ma) < 2 {
		return nil, nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d bars leave %d usable after a %d-bar warm-up", len(bars), len(ma), window-1))
	}

	usable := make([]core.PriceBar, len(ma))
	copy(usable, bars[window-1:])
	return usable, ma, nil
}
