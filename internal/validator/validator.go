// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"piggybank/internal/ledger"
	"piggybank/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("role", validateRole)
		_ = v.RegisterValidation("deposit_type", validateDepositType)
		_ = v.RegisterValidation("category", validateCategory)
		_ = v.RegisterValidation("resolve_action", validateResolveAction)
		_ = v.RegisterValidation("purchase_status", validatePurchaseStatus)
	}
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

// validateDepositType accepts the credit types a parent may pay in directly.
func validateDepositType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionTypeEarning, models.TransactionTypeAllowance:
		return true
	}
	return false
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateResolveAction(fl validator.FieldLevel) bool {
	return ledger.Action(fl.Field().String()).Valid()
}

func validatePurchaseStatus(fl validator.FieldLevel) bool {
	switch models.PurchaseStatus(fl.Field().String()) {
	case models.PurchaseStatusPending, models.PurchaseStatusApproved, models.PurchaseStatusRejected:
		return true
	}
	return false
}
