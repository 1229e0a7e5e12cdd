// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/iwvelando/gift-annuity/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read for environment overrides before the configuration.
const DefaultEnvFile = ".env"

// Configuration holds all configuration for gift-annuity.
type Configuration struct {
	Tables     TablesConfig     `yaml:"tables,omitempty"`
	Calculator CalculatorConfig `yaml:"calculator,omitempty"`
	Gifts      []Gift           `yaml:"gifts,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
}

// TablesConfig selects where rate and factor tables come from.
type TablesConfig struct {
	Source       string   `yaml:"source,omitempty"`       // builtin, file
	Files        []string `yaml:"files,omitempty"`        // .yaml, .csv or .hcl, earlier files win
	DiscountStep float64  `yaml:"discountStep,omitempty"` // factor column spacing in percentage points
}

// CalculatorConfig holds the values used when a table lookup misses. Loaded
// configurations always carry positive values; a zero value left in a
// programmatic CalculatorConfig keeps the calculator default.
type CalculatorConfig struct {
	FallbackRate   float64 `yaml:"fallbackRate,omitempty"`
	FallbackFactor float64 `yaml:"fallbackFactor,omitempty"`
}

// Gift is one named gift scenario.
type Gift struct {
	Name         string            `yaml:"name"`
	Active       bool              `yaml:"active"`
	DonorAge     int               `yaml:"donorAge"`
	JointAge     int               `yaml:"jointAge,omitempty"`
	Joint        bool              `yaml:"joint,omitempty"`
	GiftAmount   float64           `yaml:"giftAmount"`
	Frequency    annuity.Frequency `yaml:"frequency,omitempty"`
	DiscountRate float64           `yaml:"discountRate"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format        string `yaml:"format,omitempty"`        // pretty, csv, json
	ScheduleYears int    `yaml:"scheduleYears,omitempty"` // 0 disables the payout schedule
}

// Request converts the gift into a calculator request. The frequency name is
// matched case-insensitively.
func (g Gift) Request() annuity.GiftRequest {
	return annuity.GiftRequest{
		DonorAge:     g.DonorAge,
		JointAge:     g.JointAge,
		Joint:        g.Joint,
		GiftAmount:   g.GiftAmount,
		Frequency:    annuity.ParseFrequency(string(g.Frequency)),
		DiscountRate: g.DiscountRate,
	}
}

// ActiveGifts returns the gifts marked active, in configuration order.
func (c *Configuration) ActiveGifts() []Gift {
	var gifts []Gift
	for _, gift := range c.Gifts {
		if gift.Active {
			gifts = append(gifts, gift)
		}
	}
	return gifts
}

// Granularity returns the factor table granularity for the configured
// discount step.
func (t TablesConfig) Granularity() (annuity.Granularity, error) {
	if t.DiscountStep == 0 {
		return annuity.DefaultGranularity, nil
	}
	return annuity.NewGranularity(t.DiscountStep)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tables.source", constants.TablesSourceBuiltin)
	v.SetDefault("tables.files", []string{})
	v.SetDefault("tables.discountStep", constants.DefaultDiscountStep)
	v.SetDefault("calculator.fallbackRate", annuity.DefaultFallbackRate)
	v.SetDefault("calculator.fallbackFactor", annuity.DefaultFallbackFactor)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.scheduleYears", 0)
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading env file %s, %w", path, err)
	}
	return nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Any key can be
// overridden from the environment with the CGA prefix, e.g. CGA_LOGGING_LEVEL
// or CGA_TABLES_SOURCE, including values from a .env file in the working
// directory.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.check(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// check rejects settings nothing could run with.
func (c *Configuration) check() error {
	switch c.Tables.Source {
	case constants.TablesSourceBuiltin:
	case constants.TablesSourceFile:
		if len(c.Tables.Files) == 0 {
			return fmt.Errorf("tables source %q requires at least one entry in tables.files", c.Tables.Source)
		}
	default:
		return fmt.Errorf("expected tables source of %s or %s, got %s",
			constants.TablesSourceBuiltin, constants.TablesSourceFile, c.Tables.Source)
	}

	if _, err := c.Tables.Granularity(); err != nil {
		return fmt.Errorf("invalid tables.discountStep: %w", err)
	}

	if c.Calculator.FallbackRate <= 0 {
		return fmt.Errorf("calculator.fallbackRate must be greater than zero, got %v", c.Calculator.FallbackRate)
	}
	if c.Calculator.FallbackFactor <= 0 {
		return fmt.Errorf("calculator.fallbackFactor must be greater than zero, got %v", c.Calculator.FallbackFactor)
	}

	if c.Output.ScheduleYears < 0 {
		return fmt.Errorf("output.scheduleYears must not be negative, got %d", c.Output.ScheduleYears)
	}

	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{}
	seen := make(map[string]bool)
	var warnings []string

	for _, gift := range c.Gifts {
		if gift.Active && seen[gift.Name] {
			warnings = append(warnings, fmt.Sprintf("Gift '%s' is defined more than once - results will share a name", gift.Name))
		}
		seen[gift.Name] = true

		validator.Gifts = append(validator.Gifts, validation.GiftConfig{
			Name:    gift.Name,
			Active:  gift.Active,
			Request: gift.Request(),
		})
	}

	if len(c.ActiveGifts()) == 0 && len(c.Gifts) > 0 {
		warnings = append(warnings, "No gifts are marked active - nothing will be calculated")
	}

	return append(warnings, validator.ValidateAll()...)
}
