package testutil_test

import (
	"testing"

	"piggybank/internal/errors"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "goals", "transactions", "purchase_requests", "interest_configs", "account_progress", "account_badges", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolation(t *testing.T) {
	first := testutil.SetupTestDB(t)
	second := testutil.SetupTestDB(t)

	testutil.CreateTestParent(t, first)

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected isolated database to be empty, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	parent, child, account := testutil.CreateTestFamily(t, db, money.MustParse("50.00"))
	if parent.ID == "" || child.ID == "" {
		t.Fatal("users should have IDs")
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Errorf("child should reference parent %s", parent.ID)
	}
	if account.Balance != 5000 {
		t.Errorf("expected balance 5000, got %d", account.Balance)
	}
	if !account.OwnedBy(parent.ID) {
		t.Error("account should be owned by the parent")
	}

	goal := testutil.CreateTestGoal(t, db, account.ID, money.MustParse("30.00"))
	if goal.FulfillmentStatus != models.FulfillmentNone || !goal.IsActive {
		t.Errorf("unexpected goal state: %+v", goal)
	}

	req := testutil.CreateTestPurchaseRequest(t, db, account, money.MustParse("12.00"))
	if req.Status != models.PurchaseStatusPending {
		t.Errorf("expected pending request, got %s", req.Status)
	}

	cfg := testutil.CreateTestInterestConfig(t, db, account.ID, "1.5", 0)
	var loaded models.InterestConfig
	if err := db.First(&loaded, "id = ?", cfg.ID).Error; err != nil {
		t.Fatalf("failed to load interest config: %v", err)
	}
	if loaded.MonthlyRate.String() != "1.5" {
		t.Errorf("expected monthly rate 1.5, got %s", loaded.MonthlyRate)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	testutil.AssertKind(t, err, errors.KindNotFound)
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
