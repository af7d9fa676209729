package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/uuid"
)

// Memory is an in-memory Store for tests and local experiments. A single
// mutex serialises writes, and every conditional update checks the same
// predicate the SQL implementation puts in its WHERE clause.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[string]models.Account
	goals     map[string]models.Goal
	txs       []models.Transaction
	purchases map[string]models.PurchaseRequest
	interest  map[string]models.InterestConfig // keyed by account ID
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[string]models.Account),
		goals:     make(map[string]models.Goal),
		purchases: make(map[string]models.PurchaseRequest),
		interest:  make(map[string]models.InterestConfig),
	}
}

var _ Store = (*Memory)(nil)

func stamp(b *models.Base) {
	now := time.Now()
	if b.ID == "" {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// --- accounts ---

func (m *Memory) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&account.Base)
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (m *Memory) GetAccountByUser(_ context.Context, userID string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if account.UserID == userID {
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListAccountsByParent(_ context.Context, parentID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Account
	for _, account := range m.accounts {
		if account.ParentID == parentID {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AdjustBalance(_ context.Context, id string, adj BalanceAdjustment) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok || !account.IsActive {
		return nil, ErrNotFound
	}
	if account.Balance+adj.Delta < 0 {
		return nil, ErrInsufficientFunds
	}
	account.Balance += adj.Delta
	account.TotalEarned += adj.Earned
	account.TotalSpent += adj.Spent
	account.UpdatedAt = time.Now()
	m.accounts[id] = account
	return &account, nil
}

func (m *Memory) SetAccountActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	account.IsActive = active
	m.accounts[id] = account
	return nil
}

// --- goals ---

func (m *Memory) CreateGoal(_ context.Context, goal *models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&goal.Base)
	m.goals[goal.ID] = *goal
	return nil
}

func (m *Memory) GetGoal(_ context.Context, id string) (*models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	goal, ok := m.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &goal, nil
}

func (m *Memory) ListGoalsByAccount(_ context.Context, accountID string, includeInactive bool) ([]models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Goal
	for _, goal := range m.goals {
		if goal.AccountID != accountID || (!includeInactive && !goal.IsActive) {
			continue
		}
		out = append(out, goal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// updateGoal applies fn to the goal when cond holds, under the write lock.
func (m *Memory) updateGoal(id string, cond func(models.Goal) bool, fn func(*models.Goal)) (*models.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	goal, ok := m.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !cond(goal) {
		return nil, ErrConflict
	}
	fn(&goal)
	goal.UpdatedAt = time.Now()
	m.goals[id] = goal
	return &goal, nil
}

func (m *Memory) AddToGoal(_ context.Context, id string, amount money.Amount, at time.Time) (*models.Goal, error) {
	return m.updateGoal(id,
		func(g models.Goal) bool {
			return g.IsActive && !g.IsCompleted && g.CurrentAmount+amount <= g.TargetAmount
		},
		func(g *models.Goal) {
			g.CurrentAmount += amount
			if g.CurrentAmount >= g.TargetAmount {
				g.IsCompleted = true
				g.CompletedAt = &at
			}
		})
}

func (m *Memory) CancelGoal(_ context.Context, id string, expected money.Amount) (*models.Goal, error) {
	return m.updateGoal(id,
		func(g models.Goal) bool { return g.IsActive && !g.IsCompleted && g.CurrentAmount == expected },
		func(g *models.Goal) {
			g.CurrentAmount = 0
			g.IsActive = false
		})
}

func (m *Memory) RestoreGoal(_ context.Context, id string, amount money.Amount) error {
	_, err := m.updateGoal(id,
		func(g models.Goal) bool { return !g.IsActive && g.CurrentAmount == 0 },
		func(g *models.Goal) {
			g.CurrentAmount = amount
			g.IsActive = true
		})
	return err
}

func (m *Memory) TransitionFulfillment(_ context.Context, id string, from, to models.FulfillmentStatus, at time.Time) (*models.Goal, error) {
	return m.updateGoal(id,
		func(g models.Goal) bool { return g.FulfillmentStatus == from },
		func(g *models.Goal) {
			g.FulfillmentStatus = to
			if to == models.FulfillmentPending {
				g.FulfillmentRequestedAt = &at
			} else {
				g.FulfillmentResolvedAt = &at
			}
		})
}

func (m *Memory) DeleteGoal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[id]; !ok {
		return ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

// --- transactions ---

func (m *Memory) AppendTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	m.txs = append(m.txs, *tx)
	return nil
}

func (m *Memory) ListTransactionsByAccount(_ context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.Transaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].AccountID == accountID {
			matched = append(matched, m.txs[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return []models.Transaction{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *Memory) PurgeTransactions(_ context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.txs[:0]
	var removed int64
	for _, tx := range m.txs {
		if tx.AccountID == accountID {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	m.txs = kept
	return removed, nil
}

// --- purchase requests ---

func (m *Memory) CreatePurchaseRequest(_ context.Context, req *models.PurchaseRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&req.Base)
	if req.Status == "" {
		req.Status = models.PurchaseStatusPending
	}
	m.purchases[req.ID] = *req
	return nil
}

func (m *Memory) GetPurchaseRequest(_ context.Context, id string) (*models.PurchaseRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (m *Memory) ListPurchaseRequests(_ context.Context, filter PurchaseRequestFilter) ([]models.PurchaseRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PurchaseRequest
	for _, req := range m.purchases {
		if filter.ParentID != "" && req.ParentID != filter.ParentID {
			continue
		}
		if filter.AccountID != "" && req.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) updatePurchase(id string, cond func(models.PurchaseRequest) bool, fn func(*models.PurchaseRequest)) (*models.PurchaseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !cond(req) {
		return nil, ErrConflict
	}
	fn(&req)
	req.UpdatedAt = time.Now()
	m.purchases[id] = req
	return &req, nil
}

func (m *Memory) ResolvePurchaseRequest(_ context.Context, id string, status models.PurchaseStatus, comment string, at time.Time) (*models.PurchaseRequest, error) {
	return m.updatePurchase(id,
		func(r models.PurchaseRequest) bool { return r.Status == models.PurchaseStatusPending },
		func(r *models.PurchaseRequest) {
			r.Status = status
			r.ParentComment = comment
			r.ProcessedAt = &at
		})
}

func (m *Memory) MarkPurchaseCharged(_ context.Context, id string, at time.Time) (*models.PurchaseRequest, error) {
	return m.updatePurchase(id,
		func(r models.PurchaseRequest) bool {
			return r.Status == models.PurchaseStatusApproved && r.ChargedAt == nil
		},
		func(r *models.PurchaseRequest) { r.ChargedAt = &at })
}

// --- interest ---

func (m *Memory) UpsertInterestConfig(_ context.Context, cfg *models.InterestConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.interest[cfg.AccountID]; ok {
		existing.MonthlyRate = cfg.MonthlyRate
		existing.MinimumBalance = cfg.MinimumBalance
		existing.IsActive = cfg.IsActive
		existing.UpdatedAt = time.Now()
		m.interest[cfg.AccountID] = existing
		*cfg = existing
		return nil
	}
	stamp(&cfg.Base)
	m.interest[cfg.AccountID] = *cfg
	return nil
}

func (m *Memory) GetInterestConfig(_ context.Context, accountID string) (*models.InterestConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.interest[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

func (m *Memory) ListInterestConfigs(_ context.Context, activeOnly bool) ([]models.InterestConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InterestConfig
	for _, cfg := range m.interest {
		if activeOnly && !cfg.IsActive {
			continue
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) TouchInterestAccrual(_ context.Context, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.interest[accountID]
	if !ok {
		return ErrNotFound
	}
	cfg.LastAccrualDate = &at
	m.interest[accountID] = cfg
	return nil
}
