// Package format renders amounts for display.
package format

import (
	"math"
	"strings"

	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(amount).Round(constants.CurrencyPlaces)
	if d.IsNegative() {
		return "-$" + groupThousands(d.Neg().StringFixed(constants.CurrencyPlaces))
	}
	return "$" + groupThousands(d.StringFixed(constants.CurrencyPlaces))
}

// NumericCurrency returns a currency string without a currency symbol or separators (e.g., "-1234.56").
func NumericCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	return decimal.NewFromFloat(amount).StringFixed(constants.CurrencyPlaces)
}

// Percent renders a percentage with two decimals (e.g., "6.30%").
func Percent(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(rate).StringFixed(2) + "%"
}

// Factor renders a present value factor with four decimals.
func Factor(factor float64) string {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(factor).StringFixed(constants.FactorPlaces)
}

func groupThousands(fixed string) string {
	intPart, decPart, _ := strings.Cut(fixed, ".")
	if len(intPart) <= 3 {
		return fixed
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	if decPart == "" {
		return builder.String()
	}
	return builder.String() + "." + decPart
}
