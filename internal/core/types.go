package core

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-date format used at every boundary.
const DateLayout = "2006-01-02"

// PriceBar is one daily close.
type PriceBar struct {
	Date  time.Time
	Close float64
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// ValidateSeries checks that bars are non-empty, strictly increasing by
// calendar day and carry positive closes. The series is never reordered.
func ValidateSeries(bars []PriceBar) error {
	if len(bars) == 0 {
		return WrapError(ErrInvalidParameters, fmt.Errorf("price series is empty"))
	}
	for i, b := range bars {
		if !(b.Close > 0) || math.IsInf(b.Close, 0) {
			return Errorf(ErrInvalidParameters, "bar %d (%s): close must be a positive finite number, got %v",
				i, FormatDate(b.Date), b.Close)
		}
		if i == 0 {
			continue
		}
		prev := Day(bars[i-1].Date)
		cur := Day(b.Date)
		if cur.Equal(prev) {
			return Errorf(ErrInvalidParameters, "bar %d: duplicate date %s", i, FormatDate(cur))
		}
		if cur.Before(prev) {
			return Errorf(ErrInvalidParameters, "bar %d: date %s precedes %s, series must be sorted",
				i, FormatDate(cur), FormatDate(prev))
		}
	}
	return nil
}

// Closes extracts the close column.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// FilterRange returns the bars whose dates fall within [start, end].
// A zero start or end leaves that side open.
func FilterRange(bars []PriceBar, start, end time.Time) []PriceBar {
	out := make([]PriceBar, 0, len(bars))
	for _, b := range bars {
		d := Day(b.Date)
		if !start.IsZero() && d.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(Day(end)) {
			continue
		}
		out = append(out, b)
	}
	return out
}
