package storage

import "time"

// PlanEvent is one audited budget change.
type PlanEvent struct {
	ID             int64
	Category       string
	PreviousAmount int64
	Amount         int64
	TotalBudget    int64
	Action         string
	Source         string
	OccurredAt     time.Time
	RecordedAt     time.Time
}
