package annuity

import "strings"

// Frequency is how often the annuity pays out during a year.
type Frequency string

// Supported payout frequencies.
const (
	Annual     Frequency = "Annual"
	Semiannual Frequency = "Semiannual"
	Quarterly  Frequency = "Quarterly"
	Monthly    Frequency = "Monthly"
)

// Frequencies lists the supported payout frequencies, least frequent first.
var Frequencies = []Frequency{Annual, Semiannual, Quarterly, Monthly}

var frequencyAdjustments = map[Frequency]float64{
	Annual:     1.0,
	Semiannual: 0.975,
	Quarterly:  0.96,
	Monthly:    0.945,
}

var paymentsPerYear = map[Frequency]int{
	Annual:     1,
	Semiannual: 2,
	Quarterly:  4,
	Monthly:    12,
}

// AdjustmentFor returns the factor multiplier for f. Frequencies outside the
// supported set are treated as Annual and get 1.0; this is not an error.
func AdjustmentFor(f Frequency) float64 {
	if m, ok := frequencyAdjustments[f]; ok {
		return m
	}
	return frequencyAdjustments[Annual]
}

// PaymentsPerYear returns the number of payments per year for f, 1 for
// frequencies outside the supported set.
func PaymentsPerYear(f Frequency) int {
	if n, ok := paymentsPerYear[f]; ok {
		return n
	}
	return 1
}

// Known reports whether f is one of the supported frequencies.
func (f Frequency) Known() bool {
	_, ok := frequencyAdjustments[f]
	return ok
}

// ParseFrequency matches s against the supported frequencies ignoring case and
// surrounding space. Unmatched input is returned as-is so that the Annual
// fallback still applies downstream.
func ParseFrequency(s string) Frequency {
	trimmed := strings.TrimSpace(s)
	for _, f := range Frequencies {
		if strings.EqualFold(trimmed, string(f)) {
			return f
		}
	}
	return Frequency(trimmed)
}
