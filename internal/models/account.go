package models

import "piggybank/internal/money"

// Account is a child's spendable balance. Balance is only ever changed by
// the ledger engine; TotalEarned and TotalSpent never decrease.
type Account struct {
	Base
	UserID      string       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ParentID    string       `gorm:"type:uuid;index;not null" json:"parent_id"`
	Name        string       `gorm:"not null" json:"name"`
	Balance     money.Amount `gorm:"type:bigint;not null;default:0" json:"balance"`
	TotalEarned money.Amount `gorm:"type:bigint;not null;default:0" json:"total_earned"`
	TotalSpent  money.Amount `gorm:"type:bigint;not null;default:0" json:"total_spent"`
	Currency    string       `gorm:"size:3;not null;default:'USD'" json:"currency"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
}

// OwnedBy reports whether the parent manages this account.
func (a *Account) OwnedBy(parentID string) bool {
	return a.ParentID == parentID
}
