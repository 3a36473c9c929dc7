package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"budgetbot/internal/cli"
	"budgetbot/internal/config"
	applog "budgetbot/internal/log"
)

var (
	flagVerbose bool

	appConfig *config.Config
	appLogger *applog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Operate the shopping budget assistant from a terminal",
	Long:          "Inspect and change the budget plan through the same engine the chat server uses.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		appConfig = cfg
		appLogger = applog.New(applog.Config{
			Level:     level,
			Component: "budgetctl",
			Handler:   applog.NewHandler(applog.HandlerConfig{Level: level, Format: cfg.LogFormat, Out: os.Stderr}),
		})
		applog.SetDefault(appLogger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
}

// withRuntime builds the shared runtime, runs fn and releases the backend.
func withRuntime(ctx context.Context, fn func(*cli.Runtime) error) error {
	rt, err := cli.BuildRuntime(ctx, appConfig, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			appLogger.Warn("Backend cleanup failed", "error", err)
		}
	}()
	return fn(rt)
}
