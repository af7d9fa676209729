package services

import (
	"context"
	"encoding/json"

	"piggybank/internal/logger"
	"piggybank/internal/models"

	"gorm.io/gorm"
)

// Audit actions recorded by the handlers.
const (
	AuditCreateChild       = "create_child"
	AuditDisableAccount    = "disable_account"
	AuditEnableAccount     = "enable_account"
	AuditDeposit           = "deposit"
	AuditWithdraw          = "withdraw"
	AuditResolveGoal       = "resolve_fulfillment"
	AuditResolvePurchase   = "resolve_purchase_request"
	AuditChargePurchase    = "charge_purchase_request"
	AuditUpsertInterest    = "upsert_interest_config"
	AuditApplyInterest     = "apply_interest"
	AuditPurgeTransactions = "purge_transactions"
	AuditRunInterestBatch  = "run_interest_batch"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.FromContext(ctx)

	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
