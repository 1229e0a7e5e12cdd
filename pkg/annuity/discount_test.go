package annuity

import (
	"math"
	"testing"
)

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		expected DiscountKey
	}{
		{name: "On grid", rate: 4.2, expected: "4.2"},
		{name: "Below half step", rate: 4.24, expected: "4.2"},
		{name: "Just below half step", rate: 4.249999, expected: "4.2"},
		{name: "Half step rounds away from zero", rate: 4.25, expected: "4.3"},
		{name: "Just below grid point", rate: 4.15, expected: "4.2"},
		{name: "Whole number", rate: 3, expected: "3.0"},
		{name: "Upper bound", rate: 6.0, expected: "6.0"},
		{name: "Zero", rate: 0, expected: "0.0"},
		{name: "Negative", rate: -1.26, expected: "-1.3"},
		{name: "Large", rate: 1234.56, expected: "1234.6"},
		{name: "NaN", rate: math.NaN(), expected: ""},
		{name: "Positive infinity", rate: math.Inf(1), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultGranularity.KeyFor(tt.rate); got != tt.expected {
				t.Errorf("KeyFor(%v) = %q, expected %q", tt.rate, got, tt.expected)
			}
		})
	}
}

func TestKeyForIsIdempotentOnGrid(t *testing.T) {
	for _, step := range []float64{0.1, 0.2, 0.25, 0.5, 1} {
		g, err := NewGranularity(step)
		if err != nil {
			t.Fatalf("NewGranularity(%v) error = %v", step, err)
		}
		for i := 0; i <= 200; i++ {
			key := g.KeyFor(float64(i) * step / 2)
			rate, ok := key.Rate()
			if !ok {
				t.Fatalf("step %v: key %q has no rate", step, key)
			}
			if again := g.KeyFor(rate); again != key {
				t.Errorf("step %v: KeyFor(%v) = %q, expected %q", step, rate, again, key)
			}
		}
	}
}

func TestGranularityPlaces(t *testing.T) {
	tests := []struct {
		step     float64
		rate     float64
		expected DiscountKey
	}{
		{step: 0.2, rate: 4.3, expected: "4.4"},
		{step: 0.25, rate: 4.3, expected: "4.25"},
		{step: 0.5, rate: 4.3, expected: "4.5"},
		{step: 1, rate: 4.3, expected: "4"},
	}

	for _, tt := range tests {
		g, err := NewGranularity(tt.step)
		if err != nil {
			t.Fatalf("NewGranularity(%v) error = %v", tt.step, err)
		}
		if got := g.KeyFor(tt.rate); got != tt.expected {
			t.Errorf("step %v: KeyFor(%v) = %q, expected %q", tt.step, tt.rate, got, tt.expected)
		}
	}
}

func TestNewGranularityRejectsInvalidSteps(t *testing.T) {
	for _, step := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := NewGranularity(step); err == nil {
			t.Errorf("NewGranularity(%v) expected error but got none", step)
		}
	}
}

func TestZeroGranularityUsesDefault(t *testing.T) {
	var g Granularity
	if g.Step() != 0.1 {
		t.Errorf("Step() = %v, expected 0.1", g.Step())
	}
	if got := g.KeyFor(4.2); got != "4.2" {
		t.Errorf("KeyFor(4.2) = %q, expected 4.2", got)
	}
}

func TestDiscountKeyRate(t *testing.T) {
	if _, ok := DiscountKey("").Rate(); ok {
		t.Error("expected empty key to have no rate")
	}
	if _, ok := DiscountKey("abc").Rate(); ok {
		t.Error("expected malformed key to have no rate")
	}
	if rate, ok := DiscountKey("4.2").Rate(); !ok || rate != 4.2 {
		t.Errorf("Rate() = %v/%t, expected 4.2/true", rate, ok)
	}
}
