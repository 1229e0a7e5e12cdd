package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/gift-annuity/internal/estimate"
	"github.com/iwvelando/gift-annuity/internal/server"
	"github.com/iwvelando/gift-annuity/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var serverConfigPath, address, maxBodySize string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimate API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Address = address
			}
			if maxBodySize != "" {
				size, err := server.ParseSize(maxBodySize)
				if err != nil {
					return fmt.Errorf("invalid --max-body-size: %w", err)
				}
				cfg.SetBodySizeBytes(size)
			}

			logger := a.logger
			if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
				logger, err = initializeLogger(cfg.Logging, a.logLevel)
				if err != nil {
					return fmt.Errorf("failed to initialize server logger: %w", err)
				}
				defer func() {
					_ = logger.Sync()
				}()
			}

			set, err := estimate.LoadTables(logger, a.conf.Tables)
			if err != nil {
				return fmt.Errorf("failed to load tables: %w", err)
			}

			gin.SetMode(cfg.Mode)
			handler := server.NewHandler(logger, estimate.New(logger, set, a.conf.Calculator), cfg.BodySizeBytes(), version)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting server",
				zap.String("op", "main.serve"),
				zap.String("address", cfg.Address),
				zap.Int64("maxBodySize", cfg.BodySizeBytes()),
			)
			return server.Run(ctx, logger, cfg, handler)
		},
	}

	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	cmd.Flags().StringVar(&maxBodySize, "max-body-size", "", "request body limit override, e.g. 64K")

	return cmd
}
