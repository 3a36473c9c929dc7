package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/config"
	"budgetbot/internal/core"
	"budgetbot/internal/planstore/file"
	"budgetbot/internal/planstore/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./data/budgetbot.db",
		AMQPQueue:    "plan_events",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "./data/budgetbot.db", cfg.SQLiteDBPath)
	assert.Equal(t, "plan_events", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: FileBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: SheetsBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: "nope"}.Validate())
}

func TestCreateFileAndMemoryBackends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget_plan.json")
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: FileBackend, PlanFilePath: path})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, res.Store)
	assert.Nil(t, res.Audit)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Cleanup())

	require.NoError(t, res.Store.Write(ctx, &core.Document{Plan: core.NewPlan(map[string]int64{core.Books: 10})}))

	res, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, PlanFilePath: path})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	doc, err := res.Store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.Plan.TotalBudget)
}

func TestCreateSQLiteBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "budgetbot.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Audit)
	assert.Same(t, res.Audit, res.Store)
	assert.NoError(t, res.Cleanup())
}
