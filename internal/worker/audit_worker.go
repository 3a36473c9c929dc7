package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbot/internal/amqp"
	"budgetbot/internal/storage"
)

// EventRecorder persists plan events.
type EventRecorder interface {
	RecordPlanEvent(ctx context.Context, e storage.PlanEvent) (int64, error)
}

// AuditWorker turns plan update messages into audit rows.
type AuditWorker struct {
	recorder EventRecorder
}

func NewAuditWorker(recorder EventRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandlePlanUpdated records one event. A returned error makes the consumer
// requeue the message.
func (w *AuditWorker) HandlePlanUpdated(ctx context.Context, msg *amqp.PlanUpdatedMessage) error {
	id, err := w.recorder.RecordPlanEvent(ctx, storage.PlanEvent{
		Category:       msg.Category,
		PreviousAmount: msg.PreviousAmount,
		Amount:         msg.Amount,
		TotalBudget:    msg.TotalBudget,
		Action:         msg.Action,
		Source:         msg.Source,
		OccurredAt:     msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record plan event: %w", err)
	}

	slog.InfoContext(ctx, "Recorded plan event",
		"event_id", id,
		"category", msg.Category,
		"previous_amount", msg.PreviousAmount,
		"amount", msg.Amount,
		"source", msg.Source)
	return nil
}
