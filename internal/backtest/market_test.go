package backtest

import (
	"errors"
	"testing"

	"github.com/newthinker/crossover/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentStatus(t *testing.T) {
	bars := daily("2024-06-01", 10, 12, 14, 13, 9)

	status, err := CurrentStatus(bars, 3)
	require.NoError(t, err)

	assert.Equal(t, date("2024-06-05"), status.LatestDate)
	assert.Equal(t, 9.0, status.LatestPrice)
	assert.InDelta(t, 12, status.IndicatorValue, 1e-9)
	assert.InDelta(t, -3, status.PriceDiff, 1e-9)
	assert.Equal(t, Short, status.Signal)

	require.Len(t, status.Recent, 3)
	assert.Equal(t, date("2024-06-03"), status.Recent[0].Date)
	assert.Equal(t, []int{1, -1, -1},
		[]int{status.Recent[0].Signal, status.Recent[1].Signal, status.Recent[2].Signal})
}

func TestCurrentStatus_EqualCloseIsShort(t *testing.T) {
	status, err := CurrentStatus(daily("2024-06-01", 5, 5, 5), 2)
	require.NoError(t, err)
	assert.Equal(t, Short, status.Signal)
	assert.Equal(t, 0.0, status.PriceDiff)
}

func TestCurrentStatus_RecentIsCapped(t *testing.T) {
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	bars := daily("2023-01-01", closes...)

	status, err := CurrentStatus(bars, 20)
	require.NoError(t, err)

	assert.Equal(t, Long, status.Signal)
	require.Len(t, status.Recent, 100)
	assert.Equal(t, bars[150].Date, status.Recent[0].Date)
	assert.Equal(t, bars[249].Date, status.Recent[99].Date)
}

func TestCurrentStatus_Errors(t *testing.T) {
	_, err := CurrentStatus(daily("2024-06-01", 1, 2, 3), 1)
	assert.True(t, errors.Is(err, core.ErrInvalidParameters))

	_, err = CurrentStatus(daily("2024-06-01", 1, 2), 3)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = CurrentStatus(nil, 3)
	assert.True(t, errors.Is(err, core.ErrInvalidParameters))
}
