package services

import (
	"context"

	"github.com/shopspring/decimal"

	"piggybank/internal/gamification"
	"piggybank/internal/ledger"
	"piggybank/internal/models"
	"piggybank/internal/money"
)

// Viewer is the authenticated caller on whose behalf a read or write is made.
type Viewer struct {
	UserID string
	Role   models.Role
}

// IsParent reports whether the viewer is a parent.
func (v Viewer) IsParent() bool { return v.Role == models.RoleParent }

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateParent(ctx context.Context, email, password, displayName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// ChildAccount is a child user together with the account created for them.
type ChildAccount struct {
	User    *models.User    `json:"user"`
	Account *models.Account `json:"account"`
}

// FamilyServicer defines the contract for managing children and their accounts.
type FamilyServicer interface {
	CreateChild(ctx context.Context, parentID, email, password, displayName string, initialAllowance money.Amount) (*ChildAccount, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Account, error)
	GetAccount(ctx context.Context, viewer Viewer, accountID string) (*models.Account, error)
	GetOwnAccount(ctx context.Context, childID string) (*models.Account, error)
	SetAccountActive(ctx context.Context, parentID, accountID string, active bool) (*models.Account, error)
}

// GoalServicer defines the contract for savings goal bookkeeping that does not move money.
type GoalServicer interface {
	CreateGoal(ctx context.Context, childID, name string, target money.Amount, category models.Category) (*models.Goal, error)
	ListGoals(ctx context.Context, viewer Viewer, accountID string, includeInactive bool) ([]models.Goal, error)
	GetGoal(ctx context.Context, viewer Viewer, goalID string) (*models.Goal, error)
	DeleteGoal(ctx context.Context, viewer Viewer, goalID string) error
}

// PurchaseServicer defines the contract for creating and listing purchase requests.
type PurchaseServicer interface {
	CreatePurchaseRequest(ctx context.Context, childID, item string, amount money.Amount, category models.Category) (*models.PurchaseRequest, error)
	ListPurchaseRequests(ctx context.Context, viewer Viewer, status models.PurchaseStatus) ([]models.PurchaseRequest, error)
}

// InterestServicer defines the contract for per-account interest settings.
type InterestServicer interface {
	UpsertConfig(ctx context.Context, parentID, accountID string, monthlyRate decimal.Decimal, minimumBalance money.Amount, active bool) (*models.InterestConfig, error)
	GetConfig(ctx context.Context, viewer Viewer, accountID string) (*models.InterestConfig, error)
}

// LedgerServicer is the money-moving surface. *ledger.Engine implements it.
type LedgerServicer interface {
	Deposit(ctx context.Context, accountID string, amount money.Amount, txType models.TransactionType, description string) (*ledger.BalanceResult, error)
	Withdraw(ctx context.Context, accountID string, amount money.Amount, category models.Category, description string) (*ledger.BalanceResult, error)
	ContributeToGoal(ctx context.Context, accountID, goalID string, amount money.Amount) (*ledger.GoalResult, error)
	CancelGoal(ctx context.Context, accountID, goalID string) (*ledger.GoalResult, error)
	RequestFulfillment(ctx context.Context, accountID, goalID string) (*models.Goal, error)
	ResolveFulfillment(ctx context.Context, parentID, goalID string, action ledger.Action) (*models.Goal, error)
	ResolvePurchaseRequest(ctx context.Context, requestID, parentID string, action ledger.Action, comment string) (*models.PurchaseRequest, error)
	ChargePurchaseRequest(ctx context.Context, requestID, parentID string) (*ledger.ChargeResult, error)
	ApplyMonthlyInterest(ctx context.Context, accountID string) (*models.Transaction, error)
	RunInterestBatch(ctx context.Context, opts ledger.BatchOptions) (*ledger.BatchReport, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error)
	PurgeTransactions(ctx context.Context, accountID string) (int64, error)
}

var _ LedgerServicer = (*ledger.Engine)(nil)

// ProgressServicer exposes gamification state. *gamification.Service implements it.
type ProgressServicer interface {
	Progress(ctx context.Context, accountID string) (*gamification.Summary, error)
	Leaderboard(ctx context.Context, parentID string, n int) ([]gamification.Entry, error)
}

var _ ProgressServicer = (*gamification.Service)(nil)

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
