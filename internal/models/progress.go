package models

import (
	"time"

	"piggybank/internal/uuid"

	"gorm.io/gorm"
)

// Progress holds the gamification state of an account.
type Progress struct {
	Base
	AccountID string `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Points    int64  `gorm:"not null;default:0" json:"points"`
	Level     int    `gorm:"not null;default:1" json:"level"`
}

// TableName overrides the pluralised default.
func (Progress) TableName() string { return "account_progress" }

// AccountBadge records a badge awarded to an account. Each badge is awarded once.
type AccountBadge struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID string    `gorm:"type:uuid;not null;uniqueIndex:uq_account_badge" json:"account_id"`
	Badge     string    `gorm:"not null;uniqueIndex:uq_account_badge" json:"badge"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *AccountBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
