package main

import (
	"errors"
	"fmt"

	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/pkg/output"
	"github.com/iwvelando/gift-annuity/pkg/tables"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTablesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect rate and factor tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the tables selected by the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := estimate.LoadTables(a.logger, a.conf.Tables)
			if err != nil {
				return fmt.Errorf("failed to load tables: %w", err)
			}
			return output.TablesFormat(cmd.OutOrStdout(), set)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file...]",
		Short: "Load table files and report every skipped row",
		Long: `Load table files and report every row that was skipped and why. Without
arguments the files from the configuration are checked. Exits non-zero when a
file cannot be read or when no rows at all were accepted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTablesValidate(cmd, a, args)
		},
	})

	return cmd
}

func runTablesValidate(cmd *cobra.Command, a *app, files []string) error {
	if len(files) == 0 {
		files = a.conf.Tables.Files
	}
	if len(files) == 0 {
		return errors.New("no table files given and none configured in tables.files")
	}

	g, err := a.conf.Tables.Granularity()
	if err != nil {
		return err
	}

	sources := make([]tables.Source, 0, len(files))
	for _, path := range files {
		src, err := tables.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load table file %s: %w", path, err)
		}
		sources = append(sources, src)
	}

	set, err := tables.Build(g, sources...)
	if err != nil {
		return err
	}
	if err := output.ReportFormat(cmd.OutOrStdout(), set.Reports); err != nil {
		return err
	}

	accepted := 0
	for _, report := range set.Reports {
		accepted += report.Accepted
	}
	a.logger.Info(fmt.Sprintf("validated %d table files", len(files)),
		zap.String("op", "main.tablesValidate"),
		zap.Int("accepted", accepted),
		zap.Int("skipped", set.Skipped()),
	)
	if accepted == 0 {
		return errors.New("no table rows were accepted")
	}
	return nil
}
