package models

import (
	"time"

	"piggybank/internal/money"
)

// PurchaseStatus is the lifecycle state of a purchase request.
type PurchaseStatus string

const (
	PurchaseStatusPending  PurchaseStatus = "pending"
	PurchaseStatusApproved PurchaseStatus = "approved"
	PurchaseStatusRejected PurchaseStatus = "rejected"
)

// PurchaseRequest is a child's spending proposal awaiting a parent's decision.
// Approval only records the decision; charging the child is a separate step.
type PurchaseRequest struct {
	Base
	ChildID       string         `gorm:"type:uuid;index;not null" json:"child_id"`
	AccountID     string         `gorm:"type:uuid;index;not null" json:"account_id"`
	ParentID      string         `gorm:"type:uuid;index;not null" json:"parent_id"`
	Item          string         `gorm:"not null" json:"item"`
	Amount        money.Amount   `gorm:"type:bigint;not null" json:"amount"`
	Category      Category       `gorm:"not null" json:"category"`
	Status        PurchaseStatus `gorm:"not null;default:'pending';index" json:"status"`
	ParentComment string         `json:"parent_comment,omitempty"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
	ChargedAt     *time.Time     `json:"charged_at,omitempty"`
}
