package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbot/internal/amqp"
	"budgetbot/internal/planstore/file"
	gsheet "budgetbot/internal/planstore/google"
	"budgetbot/internal/planstore/memory"
	"budgetbot/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case FileBackend:
		res = &BackendResult{Store: file.New(config.PlanFilePath)}
		f.logger.Info("Initialized file backend", "path", config.PlanFilePath)
	case MemoryBackend:
		res = &BackendResult{Store: memory.NewFromFile(config.PlanFilePath)}
		f.logger.Info("Initialized memory backend", "seed", config.PlanFilePath)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Publisher = f.connectAMQP(config)
	res.Cleanup = closeAll(res)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Audit: repo}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend")
	return &BackendResult{Store: cli}, nil
}

// connectAMQP returns nil when events are disabled or the broker is down.
// Updates then proceed without publishing.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without plan events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func closeAll(res *BackendResult) CleanupFunc {
	return func() error {
		var errs []error
		if res.Publisher != nil {
			if err := res.Publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if res.Audit != nil {
			if err := res.Audit.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
