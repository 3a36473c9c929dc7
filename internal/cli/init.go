// Package cli holds the bootstrap steps shared by cmd/budgetbot,
// cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"budgetbot/internal/config"
	applog "budgetbot/internal/log"
	"budgetbot/internal/storage"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads and validates configuration from the environment.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for long-running binaries: it exits on error.
func MustLoadConfig() *config.Config {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger installs the process logger described by cfg and returns it
// with a func that closes the log file, if any.
func SetupLogger(cfg *config.Config, component string) (*applog.Logger, func(), error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var (
		tee   io.Writer
		close = func() {}
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		tee = f
		close = func() { _ = f.Close() }
	}

	handler := applog.NewHandler(applog.HandlerConfig{
		Level:  level,
		Format: cfg.LogFormat,
		Tee:    tee,
	})
	logger := applog.New(applog.Config{Level: level, Component: component, Handler: handler})
	applog.SetDefault(logger)
	return logger, close, nil
}

// InitSQLite opens the SQLite repository or exits the process.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
