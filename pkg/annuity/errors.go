package annuity

import "errors"

var (
	// ErrInvalidInput is returned when a gift request cannot be calculated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateKey is returned when a table is built with the same key twice.
	ErrDuplicateKey = errors.New("duplicate table key")

	// ErrInvalidRow is returned when a table row carries a value that can never
	// be looked up, such as a non-finite discount rate.
	ErrInvalidRow = errors.New("invalid table row")
)
