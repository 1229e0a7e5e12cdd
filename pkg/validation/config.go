// Package validation provides configuration validation utilities.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
)

// giftFields mirrors a GiftRequest with the conventional bounds of published
// rate and factor tables. Violations are advisory, never fatal.
type giftFields struct {
	DonorAge     int `validate:"gte=20,lte=100"`
	JointAge     int `validate:"omitempty,gte=20,lte=100"`
	Joint        bool
	GiftAmount   float64 `validate:"gt=0"`
	Frequency    string  `validate:"omitempty,frequency"`
	DiscountRate float64 `validate:"gte=3,lte=6"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return annuity.Frequency(fl.Field().String()).Known()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		gift := sl.Current().Interface().(giftFields)
		if gift.Joint && gift.JointAge == 0 {
			sl.ReportError(gift.JointAge, "JointAge", "JointAge", "required_with_joint", "")
		}
	}, giftFields{})
	return v
}

// ValidateGift checks a gift request against the conventional table ranges and
// returns one warning per violation. The calculation itself still runs on any
// request, falling back where tables miss.
func ValidateGift(name string, req annuity.GiftRequest) []string {
	err := validate.Struct(giftFields{
		DonorAge:     req.DonorAge,
		JointAge:     req.JointAge,
		Joint:        req.Joint,
		GiftAmount:   req.GiftAmount,
		Frequency:    string(req.Frequency),
		DiscountRate: req.DiscountRate,
	})
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{fmt.Sprintf("Gift '%s' could not be validated: %v", name, err)}
	}

	warnings := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		warnings = append(warnings, describe(name, fe))
	}
	return warnings
}

func describe(name string, fe validator.FieldError) string {
	switch fe.Field() {
	case "DonorAge":
		return fmt.Sprintf("Gift '%s' donor age %v is outside the conventional table range %d-%d - rate and factor lookups will likely fall back",
			name, fe.Value(), constants.MinAge, constants.MaxAge)
	case "JointAge":
		if fe.Tag() == "required_with_joint" {
			return fmt.Sprintf("Gift '%s' is a joint annuity without a joint annuitant age - calculation will be rejected", name)
		}
		return fmt.Sprintf("Gift '%s' joint annuitant age %v is outside the conventional table range %d-%d - lookups will likely fall back",
			name, fe.Value(), constants.MinAge, constants.MaxAge)
	case "GiftAmount":
		return fmt.Sprintf("Gift '%s' amount %v must be greater than zero - calculation will be rejected", name, fe.Value())
	case "Frequency":
		return fmt.Sprintf("Gift '%s' payment frequency %q is not recognised - annual payments will be assumed", name, fe.Value())
	case "DiscountRate":
		return fmt.Sprintf("Gift '%s' discount rate %v%% is outside the expected range %.1f-%.1f - factor lookup will likely fall back",
			name, fe.Value(), constants.MinDiscountRate, constants.MaxDiscountRate)
	}
	return fmt.Sprintf("Gift '%s' field %s failed %s validation", name, fe.Field(), fe.Tag())
}

// GiftConfig is one configured gift scenario.
type GiftConfig struct {
	Name    string
	Active  bool
	Request annuity.GiftRequest
}

// ConfigValidator performs comprehensive configuration validation
type ConfigValidator struct {
	Gifts []GiftConfig
}

// ValidateAll validates every active gift and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	for _, gift := range cv.Gifts {
		if !gift.Active {
			continue
		}
		warnings = append(warnings, ValidateGift(gift.Name, gift.Request)...)
	}

	return warnings
}
