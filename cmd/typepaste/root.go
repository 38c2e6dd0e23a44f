package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/internal/logging"
)

// usageError marks a bad flag or argument combination.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logCleanup func() error

	root := &cobra.Command{
		Use:           "typepaste",
		Short:         "Generate typed models from JSON samples, JSON Schema, or type declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := logging.Setup(logging.Config{
				Level:      cfg.LogLevel,
				Format:     cfg.LogFormat,
				FilePath:   cfg.LogFile,
				MaxSizeMB:  cfg.LogMaxSizeMB,
				MaxBackups: cfg.LogMaxBackups,
				MaxAgeDays: cfg.LogMaxAgeDays,
				Compress:   cfg.LogCompress,
			})
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			logCleanup = cleanup
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCleanup != nil {
				return logCleanup()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	root.PersistentFlags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file instead of stderr")

	root.AddCommand(
		newGenerateCmd(cfg),
		newCheckCmd(cfg),
		newLanguagesCmd(cfg),
		newServeCmd(cfg),
	)
	return root
}
