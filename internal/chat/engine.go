package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/intent"
	"budgetbot/internal/llm"
	"budgetbot/internal/services"
)

// DefaultHistoryExchanges is how many user/assistant pairs are kept besides
// the system entry.
const DefaultHistoryExchanges = 10

// PlanSource is implemented by cache.PlanCache.
type PlanSource interface {
	Get(ctx context.Context, force bool) (*core.Document, error)
	Invalidate()
}

// Executor is implemented by services.BudgetService.
type Executor interface {
	Apply(ctx context.Context, source services.Source, req core.UpdateRequest) (*services.Outcome, error)
	ApplyAll(ctx context.Context, source services.Source, reqs []core.UpdateRequest) services.BatchResult
}

// BatchReply is the result of a non-interactive update.
type BatchReply struct {
	Success bool
	Message string
	Plan    *core.Plan
}

// Engine runs conversation turns. Turns on one session are serialized,
// turns on different sessions run concurrently.
type Engine struct {
	plans     PlanSource
	parser    *intent.Parser
	executor  Executor
	generator llm.Generator
	sessions  *SessionStore
	exchanges int
	now       func() time.Time
}

type Option func(*Engine)

// WithHistoryExchanges bounds the kept history. Values below one are ignored.
func WithHistoryExchanges(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.exchanges = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(plans PlanSource, parser *intent.Parser, executor Executor, generator llm.Generator, sessions *SessionStore, opts ...Option) *Engine {
	e := &Engine{
		plans:     plans,
		parser:    parser,
		executor:  executor,
		generator: generator,
		sessions:  sessions,
		exchanges: DefaultHistoryExchanges,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reply runs one dialogue turn and returns the reply text.
func (e *Engine) Reply(ctx context.Context, sessionID, text string) string {
	sess, release := e.sessions.Acquire(sessionID)
	defer release()

	if sess.pending != nil {
		return e.resolvePending(ctx, sess, text)
	}

	doc := e.snapshot(ctx)
	reqs, err := e.parser.Parse(text, planOf(doc))
	if len(reqs) > 0 {
		if len(reqs) > 1 {
			slog.DebugContext(ctx, "Discarding extra update requests in interactive turn",
				"session_id", sessionID,
				"discarded", len(reqs)-1)
		}
		return e.propose(ctx, sess, reqs[0], doc)
	}

	var unresolved *core.UnresolvedCategoryError
	if errors.As(err, &unresolved) {
		return unresolvedMessage(unresolved.Phrase)
	}

	return e.generate(ctx, sess, text, doc)
}

// propose stores req as the pending update and asks for confirmation.
func (e *Engine) propose(ctx context.Context, sess *Session, req core.UpdateRequest, doc *core.Document) string {
	current, _ := planOf(doc).Amount(req.Category)
	pending := req
	sess.pending = &pending

	slog.InfoContext(ctx, "Budget update awaiting confirmation",
		"session_id", sess.ID,
		"category", req.Category,
		"amount", req.Amount,
		"action", string(req.Action))
	return confirmationMessage(req, current)
}

// resolvePending handles a turn while a confirmation is outstanding. The
// parser is never consulted here.
func (e *Engine) resolvePending(ctx context.Context, sess *Session, text string) string {
	switch classify(text) {
	case answerYes:
		req := *sess.pending
		sess.pending = nil
		_, err := e.executor.Apply(ctx, services.SourceChat, req)
		switch {
		case err == nil:
			return successMessage(req)
		case errors.Is(err, core.ErrNoPlan):
			return msgNoPlan
		default:
			slog.ErrorContext(ctx, "Confirmed budget update failed",
				"session_id", sess.ID,
				"category", req.Category,
				"error", err)
			return msgFailed
		}
	case answerNo:
		sess.pending = nil
		return msgCancelled
	default:
		return msgReprompt
	}
}

// generate delegates a free-form turn to the language model. A failed call
// leaves the history as it was before the turn.
func (e *Engine) generate(ctx context.Context, sess *Session, text string, doc *core.Document) string {
	system := llm.Message{Role: llm.RoleSystem, Content: systemPrompt(doc, e.now())}
	if len(sess.history) == 0 {
		sess.history = []llm.Message{system}
	} else {
		sess.history[0] = system
	}

	sess.history = append(sess.history, llm.Message{Role: llm.RoleUser, Content: text})

	out, err := e.generator.Complete(ctx, append([]llm.Message(nil), sess.history...))
	if err != nil {
		sess.history = sess.history[:len(sess.history)-1]
		slog.ErrorContext(ctx, "Language generation failed",
			"session_id", sess.ID,
			"error", err)
		return msgApology
	}

	sess.history = append(sess.history, llm.Message{Role: llm.RoleAssistant, Content: out})
	sess.history = truncateHistory(sess.history, e.exchanges)
	return formatReply(out)
}

// truncateHistory keeps the system entry and the last n exchanges.
func truncateHistory(h []llm.Message, n int) []llm.Message {
	limit := 1 + 2*n
	if len(h) <= limit {
		return h
	}
	out := make([]llm.Message, 0, limit)
	out = append(out, h[0])
	return append(out, h[len(h)-2*n:]...)
}

// Reset drops the cached plan, clears any pending confirmation and starts the
// session over with a fresh system entry.
func (e *Engine) Reset(ctx context.Context, sessionID string) string {
	e.plans.Invalidate()

	sess, release := e.sessions.Acquire(sessionID)
	defer release()

	doc, err := e.plans.Get(ctx, true)
	if err != nil && !errors.Is(err, core.ErrNoPlan) {
		slog.WarnContext(ctx, "Plan reload on reset failed", "error", err)
	}
	sess.pending = nil
	sess.history = []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt(doc, e.now())}}
	return msgReset
}

// ApplyText parses text for one or more updates and executes all of them
// without confirmation.
func (e *Engine) ApplyText(ctx context.Context, text string) BatchReply {
	doc, err := e.plans.Get(ctx, false)
	if err != nil {
		if errors.Is(err, core.ErrNoPlan) {
			return BatchReply{Message: msgNoPlan}
		}
		slog.ErrorContext(ctx, "Plan unavailable for batch update", "error", err)
		return BatchReply{Message: msgFailed}
	}

	reqs, perr := e.parser.Parse(text, doc.Plan)
	if len(reqs) == 0 {
		var unresolved *core.UnresolvedCategoryError
		if errors.As(perr, &unresolved) {
			return BatchReply{Message: unresolvedMessage(unresolved.Phrase)}
		}
		return BatchReply{Message: msgNoUpdate}
	}

	res := e.executor.ApplyAll(ctx, services.SourceBatch, reqs)
	return summarize(res)
}

func summarize(res services.BatchResult) BatchReply {
	if len(res.Succeeded) == 0 {
		if len(res.Failed) > 0 && errors.Is(res.Failed[0].Err, core.ErrNoPlan) {
			return BatchReply{Message: msgNoPlan}
		}
		return BatchReply{Message: "Failed to update budget: " + failureList(res.Failed)}
	}

	parts := make([]string, 0, len(res.Succeeded))
	for _, s := range res.Succeeded {
		parts = append(parts, fmt.Sprintf("%s to %s", s.Request.Category, core.FormatRupees(s.Request.Amount)))
	}
	last := res.Succeeded[len(res.Succeeded)-1].Plan

	msg := "Successfully updated " + strings.Join(parts, ", ") +
		". New total budget: " + core.FormatRupees(last.TotalBudget) + "."
	if len(res.Failed) > 0 {
		msg += " Failed: " + failureList(res.Failed)
	}
	return BatchReply{Success: true, Message: msg, Plan: last}
}

func failureList(fs []services.Failure) string {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		parts = append(parts, fmt.Sprintf("%s (%v)", f.Request.Category, f.Err))
	}
	return strings.Join(parts, ", ")
}

// snapshot returns the cached document or nil when none is available.
func (e *Engine) snapshot(ctx context.Context) *core.Document {
	doc, err := e.plans.Get(ctx, false)
	if err != nil {
		if !errors.Is(err, core.ErrNoPlan) {
			slog.WarnContext(ctx, "Plan unavailable", "error", err)
		}
		return nil
	}
	return doc
}

func planOf(doc *core.Document) *core.Plan {
	if doc == nil {
		return nil
	}
	return doc.Plan
}

// Sessions exposes the session store for cleanup registration.
func (e *Engine) Sessions() *SessionStore { return e.sessions }
