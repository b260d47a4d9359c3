package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal places used in reports.
const (
	moneyPlaces = 2
	pctPlaces   = 2
	pricePlaces = 2
)

// round rounds half away from zero at the given places. NaN and infinities
// become 0 so the report always encodes as JSON.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func money(v float64) float64 { return round(v, moneyPlaces) }
func pct(v float64) float64   { return round(v, pctPlaces) }
func price(v float64) float64 { return round(v, pricePlaces) }

func roundAll(vs []float64, places int32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round(v, places)
	}
	return out
}
