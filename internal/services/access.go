package services

import (
	"context"
	"errors"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/models"
	"piggybank/internal/store"
)

// visibleAccount loads an account the viewer may see: a parent sees their
// children's accounts, a child sees their own. Anything else is reported as
// not found so account ids cannot be probed.
func visibleAccount(ctx context.Context, st store.AccountStore, viewer Viewer, accountID string) (*models.Account, error) {
	account, err := st.GetAccount(ctx, accountID)
	if err != nil {
		return nil, storeAccountError(err)
	}
	switch viewer.Role {
	case models.RoleParent:
		if account.OwnedBy(viewer.UserID) {
			return account, nil
		}
	case models.RoleChild:
		if account.UserID == viewer.UserID {
			return account, nil
		}
	}
	return nil, apperrors.ErrAccountNotFound
}

// childAccount loads the active account of a child user.
func childAccount(ctx context.Context, st store.AccountStore, childID string) (*models.Account, error) {
	account, err := st.GetAccountByUser(ctx, childID)
	if err != nil {
		return nil, storeAccountError(err)
	}
	if !account.IsActive {
		return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, "Account is disabled")
	}
	return account, nil
}

func storeAccountError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrAccountNotFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
