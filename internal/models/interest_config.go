package models

import (
	"time"

	"github.com/shopspring/decimal"

	"piggybank/internal/money"
)

// InterestConfig is the per-account accrual policy. MonthlyRate is a
// percentage applied once per accrual cycle.
type InterestConfig struct {
	Base
	AccountID       string          `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	MonthlyRate     decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"monthly_rate"`
	MinimumBalance  money.Amount    `gorm:"type:bigint;not null;default:0" json:"minimum_balance"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
	LastAccrualDate *time.Time      `json:"last_accrual_date,omitempty"`
}
