package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/gift-annuity/internal/config"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state shared by every command once the root has initialised.
type app struct {
	configPath string
	logLevel   string

	conf   *config.Configuration
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gift-annuity",
		Short: "Estimate charitable gift annuity payouts and deductions",
		Long: `gift-annuity estimates the annual payout and the charitable deduction of a
charitable gift annuity from suggested payout rate tables and present value
factor tables.

Examples:
  gift-annuity calculate --donor-age 75 --amount 100000 --discount-rate 4.2
  gift-annuity calculate --config gifts.yaml --output-format csv
  gift-annuity tables validate rates.yaml factors.csv
  gift-annuity serve --server-config server-config.yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newCalculateCmd(a))
	root.AddCommand(newTablesCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// initialize loads the configuration and builds the logger. A missing default
// configuration file means defaults; a missing explicit one is an error.
func (a *app) initialize(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.conf = conf
	a.logger = logger
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// The version never depends on configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gift-annuity version %s\n", version)
		},
	}
}
