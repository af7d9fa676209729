package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/pagination"
)

// GormStore implements Store on top of GORM (PostgreSQL in production,
// SQLite for local development and tests).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- accounts ---

func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("store: create account: %w", err)
	}
	return nil
}

func (s *GormStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *GormStore) GetAccountByUser(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *GormStore) ListAccountsByParent(ctx context.Context, parentID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	return accounts, nil
}

// AdjustBalance runs a single conditional UPDATE:
//
//	UPDATE accounts SET balance = balance + Δ, ... WHERE id = ? AND is_active AND balance + Δ >= 0
//
// and inspects the affected row count to tell a missing account from an
// overdraft.
func (s *GormStore) AdjustBalance(ctx context.Context, id string, adj BalanceAdjustment) (*models.Account, error) {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("balance + ? >= 0", adj.Delta.Cents()).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", adj.Delta.Cents()),
			"total_earned": gorm.Expr("total_earned + ?", adj.Earned.Cents()),
			"total_spent":  gorm.Expr("total_spent + ?", adj.Spent.Cents()),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("store: adjust balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		if !account.IsActive {
			return nil, ErrNotFound
		}
		return nil, ErrInsufficientFunds
	}
	return s.GetAccount(ctx, id)
}

func (s *GormStore) SetAccountActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("store: set account active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- goals ---

func (s *GormStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("store: create goal: %w", err)
	}
	return nil
}

func (s *GormStore) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		return nil, notFound(err)
	}
	return &goal, nil
}

func (s *GormStore) ListGoalsByAccount(ctx context.Context, accountID string, includeInactive bool) ([]models.Goal, error) {
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var goals []models.Goal
	if err := q.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("store: list goals: %w", err)
	}
	return goals, nil
}

// conditionalGoalUpdate applies updates to the goal matching id and the
// extra conditions, returning ErrNotFound or ErrConflict when nothing matched.
func (s *GormStore) conditionalGoalUpdate(ctx context.Context, id string, updates map[string]interface{}, conds ...clause.Expression) (*models.Goal, error) {
	res := s.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id = ?", id).
		Clauses(clause.Where{Exprs: conds}).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("store: update goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetGoal(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetGoal(ctx, id)
}

func (s *GormStore) AddToGoal(ctx context.Context, id string, amount money.Amount, at time.Time) (*models.Goal, error) {
	cents := amount.Cents()
	return s.conditionalGoalUpdate(ctx, id,
		map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", cents),
			"is_completed":   gorm.Expr("current_amount + ? >= target_amount", cents),
			"completed_at":   gorm.Expr("CASE WHEN current_amount + ? >= target_amount THEN ? ELSE completed_at END", cents, at),
		},
		clause.Eq{Column: "is_active", Value: true},
		clause.Eq{Column: "is_completed", Value: false},
		clause.Expr{SQL: "current_amount + ? <= target_amount", Vars: []interface{}{cents}},
	)
}

func (s *GormStore) CancelGoal(ctx context.Context, id string, expected money.Amount) (*models.Goal, error) {
	return s.conditionalGoalUpdate(ctx, id,
		map[string]interface{}{
			"current_amount": 0,
			"is_active":      false,
		},
		clause.Eq{Column: "is_active", Value: true},
		clause.Eq{Column: "is_completed", Value: false},
		clause.Eq{Column: "current_amount", Value: expected.Cents()},
	)
}

func (s *GormStore) RestoreGoal(ctx context.Context, id string, amount money.Amount) error {
	_, err := s.conditionalGoalUpdate(ctx, id,
		map[string]interface{}{
			"current_amount": amount.Cents(),
			"is_active":      true,
		},
		clause.Eq{Column: "is_active", Value: false},
		clause.Eq{Column: "current_amount", Value: 0},
	)
	return err
}

func (s *GormStore) TransitionFulfillment(ctx context.Context, id string, from, to models.FulfillmentStatus, at time.Time) (*models.Goal, error) {
	updates := map[string]interface{}{"fulfillment_status": to}
	if to == models.FulfillmentPending {
		updates["fulfillment_requested_at"] = at
	} else {
		updates["fulfillment_resolved_at"] = at
	}
	return s.conditionalGoalUpdate(ctx, id, updates,
		clause.Eq{Column: "fulfillment_status", Value: from},
	)
}

func (s *GormStore) DeleteGoal(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Goal{})
	if res.Error != nil {
		return fmt.Errorf("store: delete goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- transactions ---

func (s *GormStore) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("store: append transaction: %w", err)
	}
	return nil
}

func (s *GormStore) ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("store: count transactions: %w", err)
	}

	var txs []models.Transaction
	if err := base.Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(limit, offset)).
		Find(&txs).Error; err != nil {
		return nil, 0, fmt.Errorf("store: list transactions: %w", err)
	}
	return txs, total, nil
}

func (s *GormStore) PurgeTransactions(ctx context.Context, accountID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.Transaction{})
	if res.Error != nil {
		return 0, fmt.Errorf("store: purge transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// --- purchase requests ---

func (s *GormStore) CreatePurchaseRequest(ctx context.Context, req *models.PurchaseRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("store: create purchase request: %w", err)
	}
	return nil
}

func (s *GormStore) GetPurchaseRequest(ctx context.Context, id string) (*models.PurchaseRequest, error) {
	var req models.PurchaseRequest
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (s *GormStore) ListPurchaseRequests(ctx context.Context, filter PurchaseRequestFilter) ([]models.PurchaseRequest, error) {
	q := s.db.WithContext(ctx).Model(&models.PurchaseRequest{})
	if filter.ParentID != "" {
		q = q.Where("parent_id = ?", filter.ParentID)
	}
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var reqs []models.PurchaseRequest
	if err := q.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("store: list purchase requests: %w", err)
	}
	return reqs, nil
}

func (s *GormStore) conditionalPurchaseUpdate(ctx context.Context, id string, updates map[string]interface{}, conds ...clause.Expression) (*models.PurchaseRequest, error) {
	res := s.db.WithContext(ctx).Model(&models.PurchaseRequest{}).
		Where("id = ?", id).
		Clauses(clause.Where{Exprs: conds}).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("store: update purchase request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetPurchaseRequest(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetPurchaseRequest(ctx, id)
}

func (s *GormStore) ResolvePurchaseRequest(ctx context.Context, id string, status models.PurchaseStatus, comment string, at time.Time) (*models.PurchaseRequest, error) {
	return s.conditionalPurchaseUpdate(ctx, id,
		map[string]interface{}{
			"status":         status,
			"parent_comment": comment,
			"processed_at":   at,
		},
		clause.Eq{Column: "status", Value: models.PurchaseStatusPending},
	)
}

func (s *GormStore) MarkPurchaseCharged(ctx context.Context, id string, at time.Time) (*models.PurchaseRequest, error) {
	return s.conditionalPurchaseUpdate(ctx, id,
		map[string]interface{}{"charged_at": at},
		clause.Eq{Column: "status", Value: models.PurchaseStatusApproved},
		clause.Eq{Column: "charged_at", Value: nil},
	)
}

// --- interest ---

func (s *GormStore) UpsertInterestConfig(ctx context.Context, cfg *models.InterestConfig) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"monthly_rate", "minimum_balance", "is_active", "updated_at"}),
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("store: upsert interest config: %w", err)
	}
	stored, err := s.GetInterestConfig(ctx, cfg.AccountID)
	if err != nil {
		return err
	}
	*cfg = *stored
	return nil
}

func (s *GormStore) GetInterestConfig(ctx context.Context, accountID string) (*models.InterestConfig, error) {
	var cfg models.InterestConfig
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&cfg).Error; err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (s *GormStore) ListInterestConfigs(ctx context.Context, activeOnly bool) ([]models.InterestConfig, error) {
	q := s.db.WithContext(ctx).Model(&models.InterestConfig{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var cfgs []models.InterestConfig
	if err := q.Order("created_at ASC").Find(&cfgs).Error; err != nil {
		return nil, fmt.Errorf("store: list interest configs: %w", err)
	}
	return cfgs, nil
}

func (s *GormStore) TouchInterestAccrual(ctx context.Context, accountID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.InterestConfig{}).
		Where("account_id = ?", accountID).
		Update("last_accrual_date", at)
	if res.Error != nil {
		return fmt.Errorf("store: touch interest accrual: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
