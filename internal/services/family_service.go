package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/logger"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/store"
)

// familyService manages children and their accounts.
type familyService struct {
	db     *gorm.DB
	store  store.Store
	ledger LedgerServicer
}

// NewFamilyService creates a new FamilyServicer. The initial allowance of a
// new child is paid through ledger so it is logged like any other deposit.
func NewFamilyService(db *gorm.DB, st store.Store, ledger LedgerServicer) FamilyServicer {
	return &familyService{db: db, store: st, ledger: ledger}
}

// CreateChild creates a child login and its account in one database
// transaction, then pays the initial allowance if one is given. When that
// deposit fails the child still exists and the error is returned alongside it.
func (s *familyService) CreateChild(ctx context.Context, parentID, email, password, displayName string, initialAllowance money.Amount) (*ChildAccount, error) {
	if initialAllowance < 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	var parent models.User
	if err := s.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_active = ?", parentID, models.RoleParent, true).
		First(&parent).Error; err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	child, err := newUser(email, password, displayName, models.RoleChild, &parent.ID)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ParentID: parent.ID,
		Name:     strings.TrimSpace(displayName),
		Currency: "USD",
		IsActive: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(tx, child); err != nil {
			return err
		}
		account.UserID = child.ID
		if account.Name == "" {
			account.Name = child.DisplayName
		}
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ChildAccount{User: child, Account: account}
	if initialAllowance > 0 {
		res, err := s.ledger.Deposit(ctx, account.ID, initialAllowance, models.TransactionTypeAllowance, "Initial allowance")
		if err != nil {
			logger.FromContext(ctx).Errorw("Initial allowance failed",
				"account_id", account.ID,
				"amount", initialAllowance.String(),
				"error", err,
			)
			return result, err
		}
		result.Account = res.Account
	}
	return result, nil
}

// ListChildren returns every account managed by the parent, oldest first.
func (s *familyService) ListChildren(ctx context.Context, parentID string) ([]models.Account, error) {
	accounts, err := s.store.ListAccountsByParent(ctx, parentID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (s *familyService) GetAccount(ctx context.Context, viewer Viewer, accountID string) (*models.Account, error) {
	return visibleAccount(ctx, s.store, viewer, accountID)
}

func (s *familyService) GetOwnAccount(ctx context.Context, childID string) (*models.Account, error) {
	account, err := s.store.GetAccountByUser(ctx, childID)
	if err != nil {
		return nil, storeAccountError(err)
	}
	return account, nil
}

// SetAccountActive enables or disables a child's account. A disabled account
// rejects every balance change until it is enabled again.
func (s *familyService) SetAccountActive(ctx context.Context, parentID, accountID string, active bool) (*models.Account, error) {
	if _, err := visibleAccount(ctx, s.store, Viewer{UserID: parentID, Role: models.RoleParent}, accountID); err != nil {
		return nil, err
	}
	if err := s.store.SetAccountActive(ctx, accountID, active); err != nil {
		return nil, storeAccountError(err)
	}
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storeAccountError(err)
	}
	return account, nil
}
