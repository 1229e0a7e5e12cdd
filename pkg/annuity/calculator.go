package annuity

import (
	"fmt"
	"math"
)

// Fallback values substituted when a table lookup misses.
const (
	DefaultFallbackRate   = 6.0
	DefaultFallbackFactor = 9.0
)

// WarningFactorFallback is the code of the warning raised when no factor was
// found for the request and the fallback factor was used instead.
const WarningFactorFallback = "factor_fallback"

// GiftRequest describes one gift to estimate. JointAge is only meaningful when
// Joint is set, and zero means it was not supplied. DiscountRate is in percent.
type GiftRequest struct {
	DonorAge     int       `json:"donorAge" yaml:"donorAge"`
	JointAge     int       `json:"jointAge,omitempty" yaml:"jointAge,omitempty"`
	Joint        bool      `json:"joint" yaml:"joint"`
	GiftAmount   float64   `json:"giftAmount" yaml:"giftAmount"`
	Frequency    Frequency `json:"frequency" yaml:"frequency"`
	DiscountRate float64   `json:"discountRate" yaml:"discountRate"`
}

// Fallbacks records which lookups missed and were replaced by defaults.
type Fallbacks struct {
	Rate   bool `json:"rate"`
	Factor bool `json:"factor"`
}

// Warning is advisory metadata attached to an otherwise complete result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnnuityResult carries every value resolved or derived for a GiftRequest.
type AnnuityResult struct {
	Request             GiftRequest `json:"request"`
	DiscountKey         DiscountKey `json:"discountKey"`
	Rate                float64     `json:"rate"`
	Factor              float64     `json:"factor"`
	FrequencyMultiplier float64     `json:"frequencyMultiplier"`
	AdjustedFactor      float64     `json:"adjustedFactor"`
	AnnualPayout        float64     `json:"annualPayout"`
	EstimatedDeduction  float64     `json:"estimatedDeduction"`
	CharitableRemainder float64     `json:"charitableRemainder"`
	Fallbacks           Fallbacks   `json:"fallbacks"`
	Warnings            []Warning   `json:"warnings,omitempty"`
}

// FallbackUsed reports whether any lookup fell back to a default.
func (r AnnuityResult) FallbackUsed() bool {
	return r.Fallbacks.Rate || r.Fallbacks.Factor
}

// HasWarnings reports whether the result carries advisory warnings.
func (r AnnuityResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Calculator resolves rates and factors for gift requests. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	rates          *RateTable
	factors        *FactorTable
	fallbackRate   float64
	fallbackFactor float64
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithFallbackRate overrides the rate used when the rate table misses.
func WithFallbackRate(rate float64) Option {
	return func(c *Calculator) {
		c.fallbackRate = rate
	}
}

// WithFallbackFactor overrides the factor used when the factor table misses.
func WithFallbackFactor(factor float64) Option {
	return func(c *Calculator) {
		c.fallbackFactor = factor
	}
}

// NewCalculator returns a Calculator over the given tables. Either table may be
// nil, in which case every lookup against it falls back.
func NewCalculator(rates *RateTable, factors *FactorTable, opts ...Option) *Calculator {
	c := &Calculator{
		rates:          rates,
		factors:        factors,
		fallbackRate:   DefaultFallbackRate,
		fallbackFactor: DefaultFallbackFactor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate produces the AnnuityResult for req.
//
// Joint requests look up the ordered pair (DonorAge, JointAge) as given. A rate
// miss falls back silently; a factor miss falls back and adds a
// WarningFactorFallback warning. The only error is ErrInvalidInput.
func (c *Calculator) Calculate(req GiftRequest) (AnnuityResult, error) {
	if err := validateRequest(req); err != nil {
		return AnnuityResult{}, err
	}

	result := AnnuityResult{Request: req}

	var rateFound bool
	if req.Joint {
		result.Rate, rateFound = c.rates.LookupJoint(req.DonorAge, req.JointAge)
	} else {
		result.Rate, rateFound = c.rates.LookupSingle(req.DonorAge)
	}
	if !rateFound {
		result.Rate = c.fallbackRate
		result.Fallbacks.Rate = true
	}

	result.DiscountKey = c.factors.DiscountKeyFor(req.DiscountRate)

	var factorFound bool
	if req.Joint {
		result.Factor, factorFound = c.factors.LookupJoint(req.DonorAge, req.JointAge, result.DiscountKey)
	} else {
		result.Factor, factorFound = c.factors.LookupSingle(req.DonorAge, result.DiscountKey)
	}
	if !factorFound {
		result.Factor = c.fallbackFactor
		result.Fallbacks.Factor = true
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarningFactorFallback,
			Message: factorFallbackMessage(req, result.DiscountKey, c.fallbackFactor),
		})
	}

	result.FrequencyMultiplier = AdjustmentFor(req.Frequency)
	result.AnnualPayout = req.GiftAmount * result.Rate / 100
	result.AdjustedFactor = result.Factor * result.FrequencyMultiplier
	result.EstimatedDeduction = result.AnnualPayout * result.AdjustedFactor
	result.CharitableRemainder = req.GiftAmount - result.EstimatedDeduction

	if !finite(result.AnnualPayout, result.EstimatedDeduction, result.CharitableRemainder) {
		return AnnuityResult{}, fmt.Errorf("%w: gift amount %v overflows the payout or deduction", ErrInvalidInput, req.GiftAmount)
	}

	return result, nil
}

func validateRequest(req GiftRequest) error {
	if math.IsNaN(req.GiftAmount) || math.IsInf(req.GiftAmount, 0) {
		return fmt.Errorf("%w: gift amount must be a finite number, got %v", ErrInvalidInput, req.GiftAmount)
	}
	if req.GiftAmount <= 0 {
		return fmt.Errorf("%w: gift amount must be greater than zero, got %v", ErrInvalidInput, req.GiftAmount)
	}
	if req.Joint && req.JointAge == 0 {
		return fmt.Errorf("%w: joint annuity requested without a joint annuitant age", ErrInvalidInput)
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func factorFallbackMessage(req GiftRequest, key DiscountKey, fallback float64) string {
	if req.Joint {
		return fmt.Sprintf("no present value factor for ages %d/%d at %s%%, using fallback factor %.1f",
			req.DonorAge, req.JointAge, key, fallback)
	}
	return fmt.Sprintf("no present value factor for age %d at %s%%, using fallback factor %.1f",
		req.DonorAge, key, fallback)
}
