package models

import (
	"time"

	"piggybank/internal/money"
	"piggybank/internal/uuid"

	"gorm.io/gorm"
)

// TransactionType represents the type of a ledger transaction
type TransactionType string

const (
	TransactionTypeEarning        TransactionType = "earning"
	TransactionTypeAllowance      TransactionType = "allowance"
	TransactionTypeSpending       TransactionType = "spending"
	TransactionTypeInterest       TransactionType = "interest"
	TransactionTypeTransfer       TransactionType = "transfer"
	TransactionTypeGoalDeposit    TransactionType = "goal_deposit"
	TransactionTypeGoalWithdrawal TransactionType = "goal_withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeEarning, TransactionTypeAllowance, TransactionTypeSpending,
		TransactionTypeInterest, TransactionTypeTransfer, TransactionTypeGoalDeposit,
		TransactionTypeGoalWithdrawal:
		return true
	}
	return false
}

// IsCredit reports whether amounts of this type add to the account balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeEarning, TransactionTypeAllowance, TransactionTypeInterest,
		TransactionTypeGoalWithdrawal:
		return true
	}
	return false
}

// IsDebit reports whether amounts of this type are taken from the account balance.
func (t TransactionType) IsDebit() bool {
	return t == TransactionTypeSpending || t == TransactionTypeGoalDeposit
}

// Transaction is an immutable ledger record. Credits carry positive amounts,
// debits negative ones. No Base embed, no soft deletes.
type Transaction struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID         string          `gorm:"type:uuid;index;not null" json:"account_id"`
	Type              TransactionType `gorm:"not null" json:"type"`
	Amount            money.Amount    `gorm:"type:bigint;not null" json:"amount"`
	Description       string          `json:"description"`
	Category          Category        `json:"category,omitempty"`
	GoalID            *string         `gorm:"type:uuid" json:"goal_id,omitempty"`
	PurchaseRequestID *string         `gorm:"type:uuid" json:"purchase_request_id,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}
