package ledger

import (
	"context"
	"time"

	"piggybank/internal/models"
	"piggybank/internal/money"
)

// EventType names a successful ledger operation.
type EventType string

const (
	EventDeposit              EventType = "deposit"
	EventWithdrawal           EventType = "withdrawal"
	EventGoalContribution     EventType = "goal_contribution"
	EventGoalCompleted        EventType = "goal_completed"
	EventGoalCancelled        EventType = "goal_cancelled"
	EventFulfillmentRequested EventType = "fulfillment_requested"
	EventFulfillmentResolved  EventType = "fulfillment_resolved"
	EventPurchaseResolved     EventType = "purchase_resolved"
	EventPurchaseCharged      EventType = "purchase_charged"
	EventInterestAccrued      EventType = "interest_accrued"
)

// Event describes a committed ledger change. Amount is always non-negative;
// Balance is the account balance after the change when it is known.
type Event struct {
	Type        EventType
	AccountID   string
	Amount      money.Amount
	Balance     money.Amount
	GoalID      string
	RequestID   string
	Status      string
	Transaction *models.Transaction
	OccurredAt  time.Time
}

// EventSink receives ledger events after the operation has committed.
// Errors are logged by the engine and never roll the operation back.
type EventSink interface {
	Handle(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f SinkFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

type nopSink struct{}

func (nopSink) Handle(context.Context, Event) error { return nil }

// MultiSink fans an event out to several sinks and returns the first error.
// Every sink is called even when an earlier one fails.
type MultiSink []EventSink

// Handle implements EventSink.
func (m MultiSink) Handle(ctx context.Context, event Event) error {
	var first error
	for _, s := range m {
		if err := s.Handle(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
