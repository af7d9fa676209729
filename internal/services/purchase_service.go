package services

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/store"
)

type purchaseService struct {
	store store.Store
}

// NewPurchaseService creates a new PurchaseServicer.
func NewPurchaseService(st store.Store) PurchaseServicer {
	return &purchaseService{store: st}
}

// CreatePurchaseRequest files a pending request addressed to the child's
// parent. The balance is not checked here; charging does that atomically.
func (s *purchaseService) CreatePurchaseRequest(ctx context.Context, childID, item string, amount money.Amount, category models.Category) (*models.PurchaseRequest, error) {
	item = strings.TrimSpace(item)
	if item == "" || utf8.RuneCountInString(item) > maxNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item must be 1-100 characters")
	}
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	category, err := normalizeCategory(category)
	if err != nil {
		return nil, err
	}

	account, err := childAccount(ctx, s.store, childID)
	if err != nil {
		return nil, err
	}

	req := &models.PurchaseRequest{
		ChildID:   childID,
		AccountID: account.ID,
		ParentID:  account.ParentID,
		Item:      item,
		Amount:    amount,
		Category:  category,
		Status:    models.PurchaseStatusPending,
	}
	if err := s.store.CreatePurchaseRequest(ctx, req); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return req, nil
}

// ListPurchaseRequests returns the requests a parent must decide on, or the
// requests a child has filed, newest first.
func (s *purchaseService) ListPurchaseRequests(ctx context.Context, viewer Viewer, status models.PurchaseStatus) ([]models.PurchaseRequest, error) {
	filter := store.PurchaseRequestFilter{Status: status}
	if viewer.IsParent() {
		filter.ParentID = viewer.UserID
	} else {
		account, err := s.store.GetAccountByUser(ctx, viewer.UserID)
		if err != nil {
			return nil, storeAccountError(err)
		}
		filter.AccountID = account.ID
	}

	reqs, err := s.store.ListPurchaseRequests(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if reqs == nil {
		reqs = []models.PurchaseRequest{}
	}
	return reqs, nil
}
