package backend

import (
	"context"

	"budgetbot/internal/amqp"
	"budgetbot/internal/planstore"
	"budgetbot/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is what the binaries wire together.
type BackendResult struct {
	Store planstore.Store
	// Audit is set for the sqlite backend, which also holds plan events.
	Audit *storage.SQLiteRepository
	// Publisher is set when AMQP is configured and reachable.
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	PlanFilePath string
	SQLiteDBPath string

	GoogleSpreadsheetID string
	GoogleSheetName     string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	FileBackend   BackendType = "file"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, MemoryBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
