package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/annuity"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/iwvelando/gift-annuity/pkg/output"
	"github.com/iwvelando/gift-annuity/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type calculateOptions struct {
	name          string
	donorAge      int
	jointAge      int
	joint         bool
	amount        float64
	frequency     string
	discountRate  float64
	outputFormat  string
	scheduleYears int
}

func newCalculateCmd(a *app) *cobra.Command {
	opts := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Estimate payouts and deductions for gifts",
		Long: `Estimate the annual payout and charitable deduction for every active gift in
the configuration, or for a single gift described with flags.

Examples:
  gift-annuity calculate
  gift-annuity calculate --donor-age 75 --amount 100000 --frequency monthly --discount-rate 4.2
  gift-annuity calculate --donor-age 75 --joint --joint-age 67 --amount 50000 --discount-rate 5.0 --schedule 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "ad-hoc", "name of the gift described with flags")
	flags.IntVar(&opts.donorAge, "donor-age", 0, "age of the donor (first annuitant)")
	flags.IntVar(&opts.jointAge, "joint-age", 0, "age of the joint annuitant")
	flags.BoolVar(&opts.joint, "joint", false, "two-life annuity")
	flags.Float64Var(&opts.amount, "amount", 0, "gift amount in dollars")
	flags.StringVar(&opts.frequency, "frequency", string(annuity.Annual), "payment frequency: annual, semiannual, quarterly, monthly")
	flags.Float64Var(&opts.discountRate, "discount-rate", 0, "discount rate in percent, e.g. 4.2")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.IntVar(&opts.scheduleYears, "schedule", -1, "years of payout schedule to print with pretty output (0 disables)")

	return cmd
}

func (o *calculateOptions) adHoc(cmd *cobra.Command) bool {
	for _, name := range []string{"donor-age", "amount", "discount-rate", "joint", "joint-age"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (o *calculateOptions) gift() config.Gift {
	return config.Gift{
		Name:         o.name,
		Active:       true,
		DonorAge:     o.donorAge,
		JointAge:     o.jointAge,
		Joint:        o.joint,
		GiftAmount:   o.amount,
		Frequency:    annuity.Frequency(o.frequency),
		DiscountRate: o.discountRate,
	}
}

func runCalculate(cmd *cobra.Command, a *app, opts *calculateOptions) error {
	logger := a.logger

	// Determine output format (CLI override takes precedence over config)
	outputFormat := a.conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	scheduleYears := a.conf.Output.ScheduleYears
	if opts.scheduleYears >= 0 {
		scheduleYears = opts.scheduleYears
	}

	gifts := a.conf.Gifts
	if opts.adHoc(cmd) {
		gifts = []config.Gift{opts.gift()}
	}

	// Validate configuration and display any warnings
	warnings := (&config.Configuration{Gifts: gifts}).ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.calculate"),
		)
	}

	active := (&config.Configuration{Gifts: gifts}).ActiveGifts()
	if len(active) == 0 {
		return errors.New("no active gifts to calculate: configure gifts or pass --donor-age, --amount and --discount-rate")
	}

	set, err := estimate.LoadTables(logger, a.conf.Tables)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	est := estimate.New(logger, set, a.conf.Calculator)
	results, err := est.EstimateAll(active)
	if err != nil {
		return fmt.Errorf("failed to compute estimate: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := output.Write(out, outputFormat, results); err != nil {
		return err
	}

	if scheduleYears > 0 {
		if outputFormat != constants.OutputFormatPretty {
			logger.Debug(fmt.Sprintf("payout schedule is only printed with %s output", constants.OutputFormatPretty),
				zap.String("op", "main.calculate"),
			)
			return nil
		}
		for _, result := range results {
			_, _ = fmt.Fprintln(out)
			if err := output.ScheduleFormat(out, result.Name, annuity.PayoutSchedule(result.Estimate, scheduleYears)); err != nil {
				return err
			}
		}
	}

	return nil
}
