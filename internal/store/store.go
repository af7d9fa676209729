// Package store defines the persistence contract of the ledger and its
// implementations: GormStore for PostgreSQL/SQLite and Memory for tests.
//
// Balance-affecting writes are conditional updates evaluated by the store
// itself (for SQL, inside a single UPDATE ... WHERE statement), never
// read-modify-write. Callers may read first as a fast path, but only the
// result of the conditional write is authoritative.
package store

import (
	"context"
	"errors"
	"time"

	"piggybank/internal/models"
	"piggybank/internal/money"
)

var (
	// ErrNotFound is returned when the referenced row does not exist (or, for
	// accounts, is disabled).
	ErrNotFound = errors.New("store: not found")
	// ErrInsufficientFunds is returned when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("store: insufficient funds")
	// ErrConflict is returned when a conditional update matched no row because
	// the row is no longer in the expected state.
	ErrConflict = errors.New("store: conditional update matched no rows")
)

// BalanceAdjustment describes one atomic change to an account row. Delta is
// applied to the balance; Earned and Spent are added to the audit counters.
type BalanceAdjustment struct {
	Delta  money.Amount
	Earned money.Amount
	Spent  money.Amount
}

// Reverse returns the adjustment that undoes a.
func (a BalanceAdjustment) Reverse() BalanceAdjustment {
	return BalanceAdjustment{Delta: -a.Delta, Earned: -a.Earned, Spent: -a.Spent}
}

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByUser(ctx context.Context, userID string) (*models.Account, error)
	ListAccountsByParent(ctx context.Context, parentID string) ([]models.Account, error)
	// AdjustBalance applies adj only if the account is active and the
	// resulting balance is non-negative. Returns the account after the update.
	AdjustBalance(ctx context.Context, id string, adj BalanceAdjustment) (*models.Account, error)
	SetAccountActive(ctx context.Context, id string, active bool) error
}

// GoalStore persists goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, goal *models.Goal) error
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	ListGoalsByAccount(ctx context.Context, accountID string, includeInactive bool) ([]models.Goal, error)
	// AddToGoal increments current_amount of an active, incomplete goal and
	// marks it completed when the target is reached.
	AddToGoal(ctx context.Context, id string, amount money.Amount, at time.Time) (*models.Goal, error)
	// CancelGoal zeroes and deactivates an active, incomplete goal whose
	// current amount still equals expected.
	CancelGoal(ctx context.Context, id string, expected money.Amount) (*models.Goal, error)
	// RestoreGoal undoes CancelGoal.
	RestoreGoal(ctx context.Context, id string, amount money.Amount) error
	// TransitionFulfillment moves the fulfillment status from one value to another.
	TransitionFulfillment(ctx context.Context, id string, from, to models.FulfillmentStatus, at time.Time) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// TransactionStore persists the append-only transaction log.
type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	// ListTransactionsByAccount returns records newest first and the total count.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error)
	// PurgeTransactions hard-deletes an account's records. Balances are untouched.
	PurgeTransactions(ctx context.Context, accountID string) (int64, error)
}

// PurchaseRequestFilter narrows ListPurchaseRequests. Empty fields match everything.
type PurchaseRequestFilter struct {
	ParentID  string
	AccountID string
	Status    models.PurchaseStatus
}

// PurchaseRequestStore persists purchase requests.
type PurchaseRequestStore interface {
	CreatePurchaseRequest(ctx context.Context, req *models.PurchaseRequest) error
	GetPurchaseRequest(ctx context.Context, id string) (*models.PurchaseRequest, error)
	ListPurchaseRequests(ctx context.Context, filter PurchaseRequestFilter) ([]models.PurchaseRequest, error)
	// ResolvePurchaseRequest sets the final status of a pending request.
	ResolvePurchaseRequest(ctx context.Context, id string, status models.PurchaseStatus, comment string, at time.Time) (*models.PurchaseRequest, error)
	// MarkPurchaseCharged stamps charged_at on an approved, uncharged request.
	MarkPurchaseCharged(ctx context.Context, id string, at time.Time) (*models.PurchaseRequest, error)
}

// InterestStore persists interest configurations.
type InterestStore interface {
	UpsertInterestConfig(ctx context.Context, cfg *models.InterestConfig) error
	GetInterestConfig(ctx context.Context, accountID string) (*models.InterestConfig, error)
	ListInterestConfigs(ctx context.Context, activeOnly bool) ([]models.InterestConfig, error)
	TouchInterestAccrual(ctx context.Context, accountID string, at time.Time) error
}

// Store is the full ledger persistence contract.
type Store interface {
	AccountStore
	GoalStore
	TransactionStore
	PurchaseRequestStore
	InterestStore
}
