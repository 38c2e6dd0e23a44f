package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/pkg/mcpsrv"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		// mcpsrv installs its own logger and closes it in Close.
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(
				mcpsrv.WithDefaultLanguage(cfg.DefaultLanguage),
				mcpsrv.WithLogLevel(cfg.LogLevel),
				mcpsrv.WithLogFile(cfg.LogFile),
			)
			if err != nil {
				return err
			}
			defer server.Close()

			slog.Info("starting typepaste MCP server on stdio")
			if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}
