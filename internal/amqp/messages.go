package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlanUpdatedMessage announces one committed category change. The audit
// worker stores it as-is; nothing downstream re-reads the plan.
type PlanUpdatedMessage struct {
	Category       string    `json:"category"`
	PreviousAmount int64     `json:"previous_amount"`
	Amount         int64     `json:"amount"`
	TotalBudget    int64     `json:"total_budget"`
	Action         string    `json:"action"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewPlanUpdatedMessage(category string, previous, amount, total int64, action, source string) *PlanUpdatedMessage {
	return &PlanUpdatedMessage{
		Category:       category,
		PreviousAmount: previous,
		Amount:         amount,
		TotalBudget:    total,
		Action:         action,
		Source:         source,
		Timestamp:      time.Now().UTC(),
	}
}

func (m *PlanUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PlanUpdatedMessageFromJSON decodes a delivery body. A message without a
// category is rejected.
func PlanUpdatedMessageFromJSON(data []byte) (*PlanUpdatedMessage, error) {
	var msg PlanUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Category == "" {
		return nil, fmt.Errorf("plan update without category")
	}
	return &msg, nil
}
