package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"Midpoint that binary floats store low", 1.005, 1.01},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round up", -1.235, -1.24},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
		{"Very small negative", -0.001, 0.00},
		{"Exactly one cent", 0.01, 0.01},
		{"Nearly two cents", 0.019, 0.02},
		{"Deduction", 59850.000000000004, 59850.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if result != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundToNonFinite(t *testing.T) {
	if got := RoundTo(math.Inf(1), 2); !math.IsInf(got, 1) {
		t.Errorf("RoundTo(+Inf) = %v, expected +Inf", got)
	}
	if got := RoundTo(math.NaN(), 2); !math.IsNaN(got) {
		t.Errorf("RoundTo(NaN) = %v, expected NaN", got)
	}
	if got := RoundTo(9.87654, 4); got != 9.8765 {
		t.Errorf("RoundTo(9.87654, 4) = %v, expected 9.8765", got)
	}
}
