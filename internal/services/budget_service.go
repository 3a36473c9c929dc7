package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetbot/internal/amqp"
	"budgetbot/internal/core"
	"budgetbot/internal/planstore"
)

// Source tags where an update came from. It is carried on published events.
type Source string

const (
	SourceChat  Source = "chat"
	SourceBatch Source = "batch"
	SourceAPI   Source = "api"
	SourceCLI   Source = "cli"
)

// Invalidator is implemented by the plan cache.
type Invalidator interface {
	Invalidate()
}

// EventPublisher is implemented by the AMQP client.
type EventPublisher interface {
	PublishPlanUpdated(ctx context.Context, msg *amqp.PlanUpdatedMessage) error
}

// Outcome describes one committed update.
type Outcome struct {
	Request  core.UpdateRequest
	Previous int64
	Plan     *core.Plan
}

type Failure struct {
	Request core.UpdateRequest
	Err     error
}

// BatchResult lists per-request results in input order.
type BatchResult struct {
	Succeeded []Outcome
	Failed    []Failure
}

// BudgetService applies update requests to the stored plan. All writes go
// through one mutex, so concurrent updates to different categories never
// lose each other.
type BudgetService struct {
	store     planstore.Store
	cache     Invalidator
	publisher EventPublisher

	mu sync.Mutex
}

// NewBudgetService wires the executor. cache and publisher may be nil.
func NewBudgetService(store planstore.Store, cache Invalidator, publisher EventPublisher) *BudgetService {
	return &BudgetService{
		store:     store,
		cache:     cache,
		publisher: publisher,
	}
}

// Apply reads the plan fresh from the store, writes req.Amount into the
// category, recomputes the total and persists. On success the cache is
// invalidated and an event published. core.ErrNoPlan is returned when there is
// nothing to update and core.ErrPersist when the store fails.
func (s *BudgetService) Apply(ctx context.Context, source Source, req core.UpdateRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate update: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Read(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNoPlan) {
			return nil, core.ErrNoPlan
		}
		return nil, fmt.Errorf("read plan: %w: %w", core.ErrPersist, err)
	}

	prev := doc.Plan.Set(req.Category, req.Amount)

	if err := s.store.Write(ctx, doc); err != nil {
		slog.ErrorContext(ctx, "Failed to persist budget plan",
			"category", req.Category,
			"amount", req.Amount,
			"error", err)
		if errors.Is(err, core.ErrPersist) {
			return nil, err
		}
		return nil, fmt.Errorf("write plan: %w: %w", core.ErrPersist, err)
	}

	if s.cache != nil {
		s.cache.Invalidate()
	}

	slog.InfoContext(ctx, "Budget category updated",
		"category", req.Category,
		"previous_amount", prev,
		"amount", req.Amount,
		"total_budget", doc.Plan.TotalBudget,
		"source", string(source))

	out := &Outcome{Request: req, Previous: prev, Plan: doc.Plan}
	s.publish(ctx, source, out)
	return out, nil
}

// ApplyAll applies each request independently and in order. A failure does
// not roll back earlier successes.
func (s *BudgetService) ApplyAll(ctx context.Context, source Source, reqs []core.UpdateRequest) BatchResult {
	var res BatchResult
	for _, req := range reqs {
		out, err := s.Apply(ctx, source, req)
		if err != nil {
			res.Failed = append(res.Failed, Failure{Request: req, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, *out)
	}
	return res
}

// ReplaceDocument stores doc as the whole plan document with its total
// recomputed.
func (s *BudgetService) ReplaceDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc == nil || doc.Plan == nil {
		return nil, core.ErrNoPlan
	}
	doc = doc.Clone()
	doc.Plan.Recalculate()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Write(ctx, doc); err != nil {
		if errors.Is(err, core.ErrPersist) {
			return nil, err
		}
		return nil, fmt.Errorf("write plan: %w: %w", core.ErrPersist, err)
	}
	if s.cache != nil {
		s.cache.Invalidate()
	}
	slog.InfoContext(ctx, "Budget plan replaced",
		"categories", len(doc.Plan.Categories),
		"total_budget", doc.Plan.TotalBudget)
	return doc, nil
}

// publish never fails the update; the plan is already committed.
func (s *BudgetService) publish(ctx context.Context, source Source, out *Outcome) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewPlanUpdatedMessage(out.Request.Category, out.Previous, out.Request.Amount,
		out.Plan.TotalBudget, string(out.Request.Action), string(source))
	if err := s.publisher.PublishPlanUpdated(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish plan update",
			"category", out.Request.Category,
			"error", err)
	}
}
