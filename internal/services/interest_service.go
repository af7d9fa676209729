package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/store"
)

// maxMonthlyRate caps configured interest at 100% per cycle.
var maxMonthlyRate = decimal.NewFromInt(100)

type interestService struct {
	store store.Store
}

// NewInterestService creates a new InterestServicer.
func NewInterestService(st store.Store) InterestServicer {
	return &interestService{store: st}
}

// UpsertConfig creates or replaces the interest settings of a child's
// account. The last accrual date is preserved.
func (s *interestService) UpsertConfig(ctx context.Context, parentID, accountID string, monthlyRate decimal.Decimal, minimumBalance money.Amount, active bool) (*models.InterestConfig, error) {
	if monthlyRate.IsNegative() || monthlyRate.GreaterThan(maxMonthlyRate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly rate must be between 0 and 100")
	}
	if !monthlyRate.Equal(monthlyRate.Round(4)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly rate supports at most 4 decimal places")
	}
	if minimumBalance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Minimum balance must not be negative")
	}

	account, err := visibleAccount(ctx, s.store, Viewer{UserID: parentID, Role: models.RoleParent}, accountID)
	if err != nil {
		return nil, err
	}

	cfg := &models.InterestConfig{
		AccountID:      account.ID,
		MonthlyRate:    monthlyRate,
		MinimumBalance: minimumBalance,
		IsActive:       active,
	}
	if err := s.store.UpsertInterestConfig(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cfg, nil
}

func (s *interestService) GetConfig(ctx context.Context, viewer Viewer, accountID string) (*models.InterestConfig, error) {
	account, err := visibleAccount(ctx, s.store, viewer, accountID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.store.GetInterestConfig(ctx, account.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrInterestConfigNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cfg, nil
}
