// Package constants provides shared constants for the gift-annuity application.
package constants

// Donor and rate conventions
const (
	// MinAge is the youngest age published rate tables conventionally cover
	MinAge = 20

	// MaxAge is the oldest age published rate tables conventionally cover
	MaxAge = 100

	// MinDiscountRate is the lowest expected 7520-style discount rate, in percent
	MinDiscountRate = 3.0

	// MaxDiscountRate is the highest expected 7520-style discount rate, in percent
	MaxDiscountRate = 6.0

	// DefaultDiscountStep is the default spacing of factor table columns, in percentage points
	DefaultDiscountStep = 0.1

	// DefaultScheduleYears is the number of years shown in a payout schedule
	DefaultScheduleYears = 20
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Table source constants
const (
	// TablesSourceBuiltin uses the rates and placeholder factors compiled into the binary
	TablesSourceBuiltin = "builtin"

	// TablesSourceFile reads rates and factors from the configured table files
	TablesSourceFile = "file"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. CGA_LOGGING_LEVEL
	EnvPrefix = "CGA"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// MaxBodySizeBytes is the largest request body limit the server accepts (1 MB)
	MaxBodySizeBytes int64 = 1 << 20

	// MaxScheduleYears caps the schedule length accepted over HTTP
	MaxScheduleYears = 100
)

// Presentation constants
const (
	// CurrencyPlaces is the number of decimals money is rounded to for display
	CurrencyPlaces = 2

	// FactorPlaces is the number of decimals factors are shown with
	FactorPlaces = 4
)
