package annuity

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DiscountKey is a discount rate quantized to a factor table's column
// granularity, rendered with exactly as many decimals as the step, e.g. "4.2".
// The empty key never matches a table entry.
type DiscountKey string

// Rate returns the discount rate the key stands for.
func (k DiscountKey) Rate() (float64, bool) {
	if k == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(string(k))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// String implements fmt.Stringer.
func (k DiscountKey) String() string {
	return string(k)
}

// Granularity is the step between adjacent discount rate columns of a factor
// table, in percentage points. The zero value behaves like DefaultGranularity.
type Granularity struct {
	step decimal.Decimal
}

// DefaultGranularity quantizes discount rates to 0.1 percentage points.
var DefaultGranularity = Granularity{step: decimal.New(1, -1)}

// NewGranularity returns a Granularity with the given positive step.
func NewGranularity(step float64) (Granularity, error) {
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return Granularity{}, fmt.Errorf("discount rate step must be a positive number, got %v", step)
	}
	return Granularity{step: decimal.NewFromFloat(step)}, nil
}

// Step returns the step in percentage points.
func (g Granularity) Step() float64 {
	return g.stepValue().InexactFloat64()
}

// String implements fmt.Stringer.
func (g Granularity) String() string {
	return g.stepValue().String()
}

// KeyFor quantizes rate to the nearest multiple of the step, rounding halves
// away from zero. The arithmetic is decimal, applied to the shortest decimal
// representation of rate, so 4.2, 4.24 and 4.249999 all yield "4.2" while 4.25
// yields "4.3" at the default step. Non-finite rates yield the empty key.
func (g Granularity) KeyFor(rate float64) DiscountKey {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ""
	}
	step := g.stepValue()
	steps := decimal.NewFromFloat(rate).Div(step).Round(0)
	return DiscountKey(steps.Mul(step).StringFixed(g.places()))
}

func (g Granularity) stepValue() decimal.Decimal {
	if g.step.IsZero() {
		return DefaultGranularity.step
	}
	return g.step
}

func (g Granularity) places() int32 {
	if exp := g.stepValue().Exponent(); exp < 0 {
		return -exp
	}
	return 0
}
