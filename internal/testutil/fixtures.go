package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"piggybank/internal/models"
	"piggybank/internal/money"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

func createUser(t *testing.T, db *gorm.DB, role models.Role, parentID *string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Email:       fmt.Sprintf("%s%d@test.com", role, n),
		Password:    string(hash),
		DisplayName: fmt.Sprintf("Test %s %d", role, n),
		Role:        role,
		ParentID:    parentID,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test %s: %v", role, err)
	}
	return user
}

// CreateTestParent creates a parent user with a hashed password and unique email.
func CreateTestParent(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, models.RoleParent, nil)
}

// CreateTestChild creates a child user belonging to parent.
func CreateTestChild(t *testing.T, db *gorm.DB, parent *models.User) *models.User {
	t.Helper()
	return createUser(t, db, models.RoleChild, &parent.ID)
}

// CreateTestAccount creates an active account for child with the given balance.
// TotalEarned starts equal to the balance so the audit counters stay coherent.
func CreateTestAccount(t *testing.T, db *gorm.DB, child *models.User, balance money.Amount) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:      child.ID,
		ParentID:    *child.ParentID,
		Name:        fmt.Sprintf("Test Account %d", nextID()),
		Balance:     balance,
		TotalEarned: balance,
		Currency:    "USD",
		IsActive:    true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestFamily creates a parent, one child and the child's account.
func CreateTestFamily(t *testing.T, db *gorm.DB, balance money.Amount) (*models.User, *models.User, *models.Account) {
	t.Helper()
	parent := CreateTestParent(t, db)
	child := CreateTestChild(t, db, parent)
	return parent, child, CreateTestAccount(t, db, child, balance)
}

// CreateTestGoal creates an active, empty goal on the account.
func CreateTestGoal(t *testing.T, db *gorm.DB, accountID string, target money.Amount) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		AccountID:         accountID,
		Name:              fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:      target,
		Category:          models.CategoryToys,
		IsActive:          true,
		FulfillmentStatus: models.FulfillmentNone,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestPurchaseRequest creates a pending purchase request for the account.
func CreateTestPurchaseRequest(t *testing.T, db *gorm.DB, account *models.Account, amount money.Amount) *models.PurchaseRequest {
	t.Helper()

	req := &models.PurchaseRequest{
		ChildID:   account.UserID,
		AccountID: account.ID,
		ParentID:  account.ParentID,
		Item:      fmt.Sprintf("Test Item %d", nextID()),
		Amount:    amount,
		Category:  models.CategoryGames,
		Status:    models.PurchaseStatusPending,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("failed to create test purchase request: %v", err)
	}
	return req
}

// CreateTestInterestConfig creates an active interest configuration.
func CreateTestInterestConfig(t *testing.T, db *gorm.DB, accountID, monthlyRate string, minimum money.Amount) *models.InterestConfig {
	t.Helper()

	cfg := &models.InterestConfig{
		AccountID:      accountID,
		MonthlyRate:    decimal.RequireFromString(monthlyRate),
		MinimumBalance: minimum,
		IsActive:       true,
	}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("failed to create test interest config: %v", err)
	}
	return cfg
}
