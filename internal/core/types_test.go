package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		bars    []PriceBar
		wantErr bool
	}{
		{
			name: "sorted unique",
			bars: []PriceBar{{day("2024-01-02"), 100}, {day("2024-01-03"), 101}},
		},
		{
			name:    "empty",
			bars:    nil,
			wantErr: true,
		},
		{
			name:    "unsorted",
			bars:    []PriceBar{{day("2024-01-03"), 100}, {day("2024-01-02"), 101}},
			wantErr: true,
		},
		{
			name:    "duplicate date",
			bars:    []PriceBar{{day("2024-01-02"), 100}, {day("2024-01-02"), 101}},
			wantErr: true,
		},
		{
			name:    "duplicate day with different time of day",
			bars:    []PriceBar{{day("2024-01-02"), 100}, {day("2024-01-02").Add(5 * time.Hour), 101}},
			wantErr: true,
		},
		{
			name:    "zero close",
			bars:    []PriceBar{{day("2024-01-02"), 0}},
			wantErr: true,
		},
		{
			name:    "NaN close",
			bars:    []PriceBar{{day("2024-01-02"), 100}, {day("2024-01-03"), math.NaN()}},
			wantErr: true,
		},
		{
			name:    "+Inf close",
			bars:    []PriceBar{{day("2024-01-02"), math.Inf(1)}},
			wantErr: true,
		},
		{
			name:    "-Inf close",
			bars:    []PriceBar{{day("2024-01-02"), math.Inf(-1)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.bars)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidParameters))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSeries_DoesNotReorder(t *testing.T) {
	bars := []PriceBar{{day("2024-01-03"), 100}, {day("2024-01-02"), 101}}
	_ = ValidateSeries(bars)
	assert.Equal(t, day("2024-01-03"), bars[0].Date)
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth(day("2024-01-02"), day("2024-01-31")))
	assert.False(t, SameMonth(day("2024-01-31"), day("2024-02-01")))
	assert.False(t, SameMonth(day("2023-01-15"), day("2024-01-15")))
}

func TestFilterRange(t *testing.T) {
	bars := []PriceBar{
		{day("2024-01-02"), 1},
		{day("2024-01-03"), 2},
		{day("2024-01-04"), 3},
	}

	got := FilterRange(bars, day("2024-01-03"), time.Time{})
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Close)

	got = FilterRange(bars, time.Time{}, day("2024-01-03"))
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[1].Close)
}

func TestCloses(t *testing.T) {
	bars := []PriceBar{{day("2024-01-02"), 1.5}, {day("2024-01-03"), 2.5}}
	assert.Equal(t, []float64{1.5, 2.5}, Closes(bars))
}
