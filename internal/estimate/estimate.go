// Package estimate loads the configured tables and runs gift requests through
// the annuity calculator.
package estimate

import (
	"fmt"

	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/iwvelando/gift-annuity/pkg/tables"
	"github.com/iwvelando/gift-annuity/pkg/validation"
	"go.uber.org/zap"
)

// Result holds the calculation for one named gift.
type Result struct {
	Name       string                `json:"name"`
	Estimate   annuity.AnnuityResult `json:"estimate"`
	Advisories []string              `json:"advisories,omitempty"`
}

// Estimator runs gift requests against one immutable table set. It is safe
// for concurrent use.
type Estimator struct {
	logger     *zap.Logger
	tables     *tables.Set
	calculator *annuity.Calculator
}

// LoadTables builds the table set selected by conf. Rows skipped while
// loading are logged and kept in the set's reports; a file that yields no rows
// at all still produces a valid, empty table.
func LoadTables(logger *zap.Logger, conf config.TablesConfig) (*tables.Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	g, err := conf.Granularity()
	if err != nil {
		return nil, err
	}

	var sources []tables.Source
	switch conf.Source {
	case constants.TablesSourceFile:
		for _, path := range conf.Files {
			src, err := tables.LoadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load table file %s: %w", path, err)
			}
			sources = append(sources, src)
		}
	case constants.TablesSourceBuiltin, "":
		logger.Debug("using built-in rate table and placeholder factors",
			zap.String("op", "estimate.LoadTables"),
		)
		sources = append(sources, tables.Builtin(g))
	default:
		return nil, fmt.Errorf("unknown tables source %q", conf.Source)
	}

	set, err := tables.Build(g, sources...)
	if err != nil {
		return nil, err
	}

	for _, report := range set.Reports {
		for _, skipped := range report.Skipped {
			logger.Warn("skipped table row",
				zap.String("op", "estimate.LoadTables"),
				zap.String("source", report.Source),
				zap.String("table", skipped.Table),
				zap.Int("row", skipped.Row),
				zap.String("reason", skipped.Reason),
			)
		}
		logger.Info(fmt.Sprintf("loaded %d rows from %s", report.Accepted, report.Source),
			zap.String("op", "estimate.LoadTables"),
			zap.Int("skipped", len(report.Skipped)),
		)
	}

	singleRates, jointRates := set.Rates.Len()
	singleFactors, jointFactors := set.Factors.Len()
	if singleRates+jointRates+singleFactors+jointFactors == 0 {
		logger.Warn("no table rows loaded - every calculation will use fallback values",
			zap.String("op", "estimate.LoadTables"),
		)
	}

	return set, nil
}

// New returns an Estimator over set using the configured fallbacks. Zero
// fallbacks keep the calculator defaults.
func New(logger *zap.Logger, set *tables.Set, conf config.CalculatorConfig) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if set == nil {
		set = &tables.Set{}
	}

	var opts []annuity.Option
	if conf.FallbackRate != 0 {
		opts = append(opts, annuity.WithFallbackRate(conf.FallbackRate))
	}
	if conf.FallbackFactor != 0 {
		opts = append(opts, annuity.WithFallbackFactor(conf.FallbackFactor))
	}

	return &Estimator{
		logger:     logger,
		tables:     set,
		calculator: annuity.NewCalculator(set.Rates, set.Factors, opts...),
	}
}

// Tables returns the table set the estimator was built with.
func (e *Estimator) Tables() *tables.Set {
	return e.tables
}

// Estimate runs one request. Advisory range checks are attached to the result
// and never block the calculation; only annuity.ErrInvalidInput does.
func (e *Estimator) Estimate(name string, req annuity.GiftRequest) (Result, error) {
	result, err := e.calculator.Calculate(req)
	if err != nil {
		return Result{}, fmt.Errorf("gift %s: %w", name, err)
	}

	if result.FallbackUsed() {
		e.logFallbacks(name, result)
	}

	return Result{
		Name:       name,
		Estimate:   result,
		Advisories: validation.ValidateGift(name, req),
	}, nil
}

func (e *Estimator) logFallbacks(name string, result annuity.AnnuityResult) {
	req := result.Request
	if result.Fallbacks.Rate {
		e.logger.Debug(fmt.Sprintf("no payout rate for gift %s, using fallback rate %.2f%%", name, result.Rate),
			zap.String("op", "estimate.Estimate"),
			zap.Int("donorAge", req.DonorAge),
			zap.Int("jointAge", req.JointAge),
			zap.Bool("joint", req.Joint),
		)
	}
	if !result.HasWarnings() {
		return
	}
	for _, warning := range result.Warnings {
		e.logger.Warn(fmt.Sprintf("gift %s: %s", name, warning.Message),
			zap.String("op", "estimate.Estimate"),
			zap.String("code", warning.Code),
		)
	}
}

// EstimateAll runs every active gift in configuration order.
func (e *Estimator) EstimateAll(gifts []config.Gift) ([]Result, error) {
	var results []Result
	for _, gift := range gifts {
		if !gift.Active {
			e.logger.Debug(fmt.Sprintf("skipping gift %s because it is inactive", gift.Name),
				zap.String("op", "estimate.EstimateAll"),
			)
			continue
		}

		result, err := e.Estimate(gift.Name, gift.Request())
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
