package models

import (
	"time"

	"piggybank/internal/money"
)

// FulfillmentStatus tracks the parent-approved redemption of a completed goal.
// Transitions: none -> pending -> approved | rejected.
type FulfillmentStatus string

const (
	FulfillmentNone     FulfillmentStatus = "none"
	FulfillmentPending  FulfillmentStatus = "pending"
	FulfillmentApproved FulfillmentStatus = "approved"
	FulfillmentRejected FulfillmentStatus = "rejected"
)

// Goal is a named savings target with its own sub-balance drawn from an Account.
type Goal struct {
	Base
	AccountID              string            `gorm:"type:uuid;index;not null" json:"account_id"`
	Name                   string            `gorm:"not null" json:"name"`
	TargetAmount           money.Amount      `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount          money.Amount      `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	Category               Category          `gorm:"not null" json:"category"`
	IsCompleted            bool              `gorm:"not null;default:false" json:"is_completed"`
	IsActive               bool              `gorm:"not null;default:true" json:"is_active"`
	FulfillmentStatus      FulfillmentStatus `gorm:"not null;default:'none'" json:"fulfillment_status"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty"`
	FulfillmentRequestedAt *time.Time        `json:"fulfillment_requested_at,omitempty"`
	FulfillmentResolvedAt  *time.Time        `json:"fulfillment_resolved_at,omitempty"`
}

// Remaining returns how much is still needed to reach the target.
func (g *Goal) Remaining() money.Amount {
	if g.CurrentAmount >= g.TargetAmount {
		return 0
	}
	return g.TargetAmount - g.CurrentAmount
}
