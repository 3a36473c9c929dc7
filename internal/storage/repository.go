package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/planstore"

	_ "modernc.org/sqlite"
)

var _ planstore.Store = (*SQLiteRepository)(nil)

// SQLiteRepository stores the budget document in a single-row table with a
// revision counter, and keeps the plan event audit log.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Read implements planstore.Store.
func (r *SQLiteRepository) Read(ctx context.Context) (*core.Document, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM budget_plans WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoPlan
	}
	if err != nil {
		return nil, fmt.Errorf("select budget plan: %w", err)
	}
	return core.ParseDocument([]byte(body))
}

// Write implements planstore.Store. Each write increments the revision.
func (r *SQLiteRepository) Write(ctx context.Context, doc *core.Document) error {
	if doc == nil || doc.Plan == nil {
		return fmt.Errorf("write empty document: %w", core.ErrPersist)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budget_plans (id, document, revision, updated_at)
		VALUES (1, ?, 1, ?)
		ON CONFLICT (id) DO UPDATE SET
			document   = excluded.document,
			revision   = budget_plans.revision + 1,
			updated_at = excluded.updated_at`,
		string(body), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert budget plan: %w", err)
	}

	slog.DebugContext(ctx, "Budget plan saved to SQLite", "total_budget", doc.Plan.TotalBudget)
	return nil
}

// Version implements planstore.Store.
func (r *SQLiteRepository) Version(ctx context.Context) (core.Version, error) {
	var rev int64
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM budget_plans WHERE id = 1`).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select revision: %w", err)
	}
	return core.Version(rev), nil
}

// RecordPlanEvent appends an audit entry and returns its ID.
func (r *SQLiteRepository) RecordPlanEvent(ctx context.Context, e PlanEvent) (int64, error) {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO plan_events
			(category, previous_amount, amount, total_budget, action, source, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Category, e.PreviousAmount, e.Amount, e.TotalBudget, e.Action, e.Source,
		occurred.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert plan event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("plan event id: %w", err)
	}

	slog.InfoContext(ctx, "Plan event recorded",
		"id", id,
		"category", e.Category,
		"amount", e.Amount,
		"source", e.Source)
	return id, nil
}

// ListPlanEvents returns the most recent events, newest first.
func (r *SQLiteRepository) ListPlanEvents(ctx context.Context, limit int) ([]PlanEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, previous_amount, amount, total_budget, action, source, occurred_at, recorded_at
		FROM plan_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plan events: %w", err)
	}
	defer rows.Close()

	var out []PlanEvent
	for rows.Next() {
		var (
			e                  PlanEvent
			occurred, recorded string
		)
		if err := rows.Scan(&e.ID, &e.Category, &e.PreviousAmount, &e.Amount, &e.TotalBudget,
			&e.Action, &e.Source, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan plan event: %w", err)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurred)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		out = append(out, e)
	}
	return out, rows.Err()
}
