package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/store"
)

const maxNameLength = 100

// goalService handles goal bookkeeping. Money moves through LedgerServicer.
type goalService struct {
	store store.Store
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(st store.Store) GoalServicer {
	return &goalService{store: st}
}

// CreateGoal opens a new savings goal on the child's account.
func (s *goalService) CreateGoal(ctx context.Context, childID, name string, target money.Amount, category models.Category) (*models.Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name must be 1-100 characters")
	}
	if target <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Target amount must be greater than zero")
	}
	category, err := normalizeCategory(category)
	if err != nil {
		return nil, err
	}

	account, err := childAccount(ctx, s.store, childID)
	if err != nil {
		return nil, err
	}

	goal := &models.Goal{
		AccountID:         account.ID,
		Name:              name,
		TargetAmount:      target,
		Category:          category,
		IsActive:          true,
		FulfillmentStatus: models.FulfillmentNone,
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// ListGoals lists the goals of an account. A child may omit accountID to
// list their own goals.
func (s *goalService) ListGoals(ctx context.Context, viewer Viewer, accountID string, includeInactive bool) ([]models.Goal, error) {
	var (
		account *models.Account
		err     error
	)
	switch {
	case accountID != "":
		account, err = visibleAccount(ctx, s.store, viewer, accountID)
	case viewer.Role == models.RoleChild:
		account, err = s.store.GetAccountByUser(ctx, viewer.UserID)
		if err != nil {
			err = storeAccountError(err)
		}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required")
	}
	if err != nil {
		return nil, err
	}

	goals, err := s.store.ListGoalsByAccount(ctx, account.ID, includeInactive)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

func (s *goalService) GetGoal(ctx context.Context, viewer Viewer, goalID string) (*models.Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := visibleAccount(ctx, s.store, viewer, goal.AccountID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.ErrGoalForbidden
		}
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes a goal that no longer holds savings: one that is empty
// (never funded or cancelled) or whose fulfillment was approved.
func (s *goalService) DeleteGoal(ctx context.Context, viewer Viewer, goalID string) error {
	goal, err := s.GetGoal(ctx, viewer, goalID)
	if err != nil {
		return err
	}
	if goal.CurrentAmount != 0 && goal.FulfillmentStatus != models.FulfillmentApproved {
		return apperrors.WithMessage(apperrors.ErrGoalState, "goal still holds savings; cancel it first")
	}
	if err := s.store.DeleteGoal(ctx, goal.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.ErrGoalNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func normalizeCategory(c models.Category) (models.Category, error) {
	if c == "" {
		return models.CategoryOther, nil
	}
	if !c.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category")
	}
	return c, nil
}
