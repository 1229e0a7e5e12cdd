package tables

import (
	"math"

	"github.com/iwvelando/gift-annuity/pkg/annuity"
)

// BuiltinSource is the report name of the built-in tables.
const BuiltinSource = "builtin"

const (
	builtinFirstAge      = 60
	builtinMinFactorAge  = 20
	builtinMaxFactorAge  = 100
	builtinMinDiscount   = 3.0
	builtinMaxDiscount   = 6.0
	builtinFactorFloor   = 4.0
	builtinFactorCeiling = 20.0
)

// builtinRates are suggested single life payout rates for ages 60 through 90,
// used when no published table is available.
var builtinRates = []float64{
	5.2, 5.4, 5.5, 5.7, 5.9, 6.1, 6.3, 6.5, 6.7, 6.9,
	7.0, 7.2, 7.4, 7.6, 7.8, 8.0, 8.1, 8.3, 8.5, 8.7,
	8.9, 9.1, 9.3, 9.5, 9.7, 9.9, 10.0, 10.1, 10.1, 10.1,
	10.1,
}

// Builtin returns the default single life rates and a placeholder single life
// factor grid on g's columns between 3.0% and 6.0%. The placeholder factor is
// max(4, 20 - 0.3*(age-60) - 1.5*(rate-3)); it is a rough stand-in and not a
// published actuarial value. There are no joint life entries.
func Builtin(g annuity.Granularity) Source {
	src := Source{Report: Report{Source: BuiltinSource}}

	for i, rate := range builtinRates {
		src.Rows.SingleRates = append(src.Rows.SingleRates, annuity.SingleLifeRate{Age: builtinFirstAge + i, Rate: rate})
	}

	step := g.Step()
	first := int(math.Ceil(builtinMinDiscount/step - 1e-9))
	last := int(math.Floor(builtinMaxDiscount/step + 1e-9))
	for age := builtinMinFactorAge; age <= builtinMaxFactorAge; age++ {
		for n := first; n <= last; n++ {
			rate, _ := g.KeyFor(float64(n) * step).Rate()
			src.Rows.SingleFactors = append(src.Rows.SingleFactors, annuity.SingleLifeFactor{
				Age:          age,
				DiscountRate: rate,
				Factor:       placeholderFactor(age, rate),
			})
		}
	}

	src.Report.Accepted = src.Rows.Len()
	return src
}

func placeholderFactor(age int, rate float64) float64 {
	factor := builtinFactorCeiling - float64(age-builtinFirstAge)*0.3 - (rate-builtinMinDiscount)*1.5
	return math.Max(builtinFactorFloor, factor)
}
