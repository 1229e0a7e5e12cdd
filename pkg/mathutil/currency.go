// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Halves round away from zero on the shortest decimal form of val, so 1.005
// becomes 1.01. Non-finite values are returned unchanged.
func Round(val float64) float64 {
	return RoundTo(val, constants.CurrencyPlaces)
}

// RoundTo rounds a value to the given number of decimal places.
func RoundTo(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}
