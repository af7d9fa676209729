package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"piggybank/internal/gamification"
	"piggybank/internal/ledger"
	"piggybank/internal/middleware"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/services"
	"piggybank/internal/validator"
)

const (
	parentID  = "0190a000-0000-7000-8000-0000000000a1"
	childID   = "0190a000-0000-7000-8000-0000000000c1"
	accountID = "0190a000-0000-7000-8000-0000000000ac"
	goalID    = "0190a000-0000-7000-8000-00000000009a"
	requestID = "0190a000-0000-7000-8000-0000000000f1"
)

// --- mock services ---

type mockUserService struct {
	createParentFn func(email, password, displayName string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
	attemptLoginFn func(email, password string) (*models.User, error)
}

func (m *mockUserService) CreateParent(_ context.Context, email, password, displayName string) (*models.User, error) {
	if m.createParentFn != nil {
		return m.createParentFn(email, password, displayName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

type mockFamilyService struct {
	createChildFn      func(parentID, email, password, displayName string, initial money.Amount) (*services.ChildAccount, error)
	listChildrenFn     func(parentID string) ([]models.Account, error)
	getAccountFn       func(viewer services.Viewer, accountID string) (*models.Account, error)
	getOwnAccountFn    func(childID string) (*models.Account, error)
	setAccountActiveFn func(parentID, accountID string, active bool) (*models.Account, error)
}

func (m *mockFamilyService) CreateChild(_ context.Context, parentID, email, password, displayName string, initial money.Amount) (*services.ChildAccount, error) {
	if m.createChildFn != nil {
		return m.createChildFn(parentID, email, password, displayName, initial)
	}
	return &services.ChildAccount{User: &models.User{}, Account: &models.Account{}}, nil
}

func (m *mockFamilyService) ListChildren(_ context.Context, parentID string) ([]models.Account, error) {
	if m.listChildrenFn != nil {
		return m.listChildrenFn(parentID)
	}
	return []models.Account{}, nil
}

// GetAccount defaults to the usual family: the parent and child constants
// both see accountID.
func (m *mockFamilyService) GetAccount(_ context.Context, viewer services.Viewer, id string) (*models.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(viewer, id)
	}
	return testAccount(), nil
}

func (m *mockFamilyService) GetOwnAccount(_ context.Context, childID string) (*models.Account, error) {
	if m.getOwnAccountFn != nil {
		return m.getOwnAccountFn(childID)
	}
	return testAccount(), nil
}

func (m *mockFamilyService) SetAccountActive(_ context.Context, parentID, accountID string, active bool) (*models.Account, error) {
	if m.setAccountActiveFn != nil {
		return m.setAccountActiveFn(parentID, accountID, active)
	}
	a := testAccount()
	a.IsActive = active
	return a, nil
}

type mockGoalService struct {
	createGoalFn func(childID, name string, target money.Amount, category models.Category) (*models.Goal, error)
	listGoalsFn  func(viewer services.Viewer, accountID string, includeInactive bool) ([]models.Goal, error)
	getGoalFn    func(viewer services.Viewer, goalID string) (*models.Goal, error)
	deleteGoalFn func(viewer services.Viewer, goalID string) error
}

func (m *mockGoalService) CreateGoal(_ context.Context, childID, name string, target money.Amount, category models.Category) (*models.Goal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(childID, name, target, category)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) ListGoals(_ context.Context, viewer services.Viewer, accountID string, includeInactive bool) ([]models.Goal, error) {
	if m.listGoalsFn != nil {
		return m.listGoalsFn(viewer, accountID, includeInactive)
	}
	return []models.Goal{}, nil
}

func (m *mockGoalService) GetGoal(_ context.Context, viewer services.Viewer, goalID string) (*models.Goal, error) {
	if m.getGoalFn != nil {
		return m.getGoalFn(viewer, goalID)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) DeleteGoal(_ context.Context, viewer services.Viewer, goalID string) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(viewer, goalID)
	}
	return nil
}

type mockPurchaseService struct {
	createFn func(childID, item string, amount money.Amount, category models.Category) (*models.PurchaseRequest, error)
	listFn   func(viewer services.Viewer, status models.PurchaseStatus) ([]models.PurchaseRequest, error)
}

func (m *mockPurchaseService) CreatePurchaseRequest(_ context.Context, childID, item string, amount money.Amount, category models.Category) (*models.PurchaseRequest, error) {
	if m.createFn != nil {
		return m.createFn(childID, item, amount, category)
	}
	return &models.PurchaseRequest{}, nil
}

func (m *mockPurchaseService) ListPurchaseRequests(_ context.Context, viewer services.Viewer, status models.PurchaseStatus) ([]models.PurchaseRequest, error) {
	if m.listFn != nil {
		return m.listFn(viewer, status)
	}
	return []models.PurchaseRequest{}, nil
}

type mockInterestService struct {
	upsertFn    func(parentID, accountID string, rate decimal.Decimal, minimum money.Amount, active bool) (*models.InterestConfig, error)
	getConfigFn func(viewer services.Viewer, accountID string) (*models.InterestConfig, error)
}

func (m *mockInterestService) UpsertConfig(_ context.Context, parentID, accountID string, rate decimal.Decimal, minimum money.Amount, active bool) (*models.InterestConfig, error) {
	if m.upsertFn != nil {
		return m.upsertFn(parentID, accountID, rate, minimum, active)
	}
	return &models.InterestConfig{}, nil
}

func (m *mockInterestService) GetConfig(_ context.Context, viewer services.Viewer, accountID string) (*models.InterestConfig, error) {
	if m.getConfigFn != nil {
		return m.getConfigFn(viewer, accountID)
	}
	return &models.InterestConfig{}, nil
}

type mockLedgerService struct {
	depositFn            func(accountID string, amount money.Amount, txType models.TransactionType, description string) (*ledger.BalanceResult, error)
	withdrawFn           func(accountID string, amount money.Amount, category models.Category, description string) (*ledger.BalanceResult, error)
	contributeFn         func(accountID, goalID string, amount money.Amount) (*ledger.GoalResult, error)
	cancelGoalFn         func(accountID, goalID string) (*ledger.GoalResult, error)
	requestFulfillmentFn func(accountID, goalID string) (*models.Goal, error)
	resolveFulfillmentFn func(parentID, goalID string, action ledger.Action) (*models.Goal, error)
	resolvePurchaseFn    func(requestID, parentID string, action ledger.Action, comment string) (*models.PurchaseRequest, error)
	chargePurchaseFn     func(requestID, parentID string) (*ledger.ChargeResult, error)
	applyInterestFn      func(accountID string) (*models.Transaction, error)
	runBatchFn           func(opts ledger.BatchOptions) (*ledger.BatchReport, error)
	listTransactionsFn   func(accountID string, limit, offset int) ([]models.Transaction, int64, error)
	purgeFn              func(accountID string) (int64, error)
}

func (m *mockLedgerService) Deposit(_ context.Context, accountID string, amount money.Amount, txType models.TransactionType, description string) (*ledger.BalanceResult, error) {
	if m.depositFn != nil {
		return m.depositFn(accountID, amount, txType, description)
	}
	return &ledger.BalanceResult{}, nil
}

func (m *mockLedgerService) Withdraw(_ context.Context, accountID string, amount money.Amount, category models.Category, description string) (*ledger.BalanceResult, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(accountID, amount, category, description)
	}
	return &ledger.BalanceResult{}, nil
}

func (m *mockLedgerService) ContributeToGoal(_ context.Context, accountID, goalID string, amount money.Amount) (*ledger.GoalResult, error) {
	if m.contributeFn != nil {
		return m.contributeFn(accountID, goalID, amount)
	}
	return &ledger.GoalResult{}, nil
}

func (m *mockLedgerService) CancelGoal(_ context.Context, accountID, goalID string) (*ledger.GoalResult, error) {
	if m.cancelGoalFn != nil {
		return m.cancelGoalFn(accountID, goalID)
	}
	return &ledger.GoalResult{}, nil
}

func (m *mockLedgerService) RequestFulfillment(_ context.Context, accountID, goalID string) (*models.Goal, error) {
	if m.requestFulfillmentFn != nil {
		return m.requestFulfillmentFn(accountID, goalID)
	}
	return &models.Goal{}, nil
}

func (m *mockLedgerService) ResolveFulfillment(_ context.Context, parentID, goalID string, action ledger.Action) (*models.Goal, error) {
	if m.resolveFulfillmentFn != nil {
		return m.resolveFulfillmentFn(parentID, goalID, action)
	}
	return &models.Goal{}, nil
}

func (m *mockLedgerService) ResolvePurchaseRequest(_ context.Context, requestID, parentID string, action ledger.Action, comment string) (*models.PurchaseRequest, error) {
	if m.resolvePurchaseFn != nil {
		return m.resolvePurchaseFn(requestID, parentID, action, comment)
	}
	return &models.PurchaseRequest{}, nil
}

func (m *mockLedgerService) ChargePurchaseRequest(_ context.Context, requestID, parentID string) (*ledger.ChargeResult, error) {
	if m.chargePurchaseFn != nil {
		return m.chargePurchaseFn(requestID, parentID)
	}
	return &ledger.ChargeResult{Request: &models.PurchaseRequest{}}, nil
}

func (m *mockLedgerService) ApplyMonthlyInterest(_ context.Context, accountID string) (*models.Transaction, error) {
	if m.applyInterestFn != nil {
		return m.applyInterestFn(accountID)
	}
	return nil, nil
}

func (m *mockLedgerService) RunInterestBatch(_ context.Context, opts ledger.BatchOptions) (*ledger.BatchReport, error) {
	if m.runBatchFn != nil {
		return m.runBatchFn(opts)
	}
	return &ledger.BatchReport{Results: []ledger.AccountResult{}}, nil
}

func (m *mockLedgerService) ListTransactions(_ context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(accountID, limit, offset)
	}
	return []models.Transaction{}, 0, nil
}

func (m *mockLedgerService) PurgeTransactions(_ context.Context, accountID string) (int64, error) {
	if m.purgeFn != nil {
		return m.purgeFn(accountID)
	}
	return 0, nil
}

type mockProgressService struct {
	progressFn    func(accountID string) (*gamification.Summary, error)
	leaderboardFn func(parentID string, n int) ([]gamification.Entry, error)
}

func (m *mockProgressService) Progress(_ context.Context, accountID string) (*gamification.Summary, error) {
	if m.progressFn != nil {
		return m.progressFn(accountID)
	}
	return &gamification.Summary{AccountID: accountID, Level: 1, Badges: []gamification.EarnedBadge{}}, nil
}

func (m *mockProgressService) Leaderboard(_ context.Context, parentID string, n int) ([]gamification.Entry, error) {
	if m.leaderboardFn != nil {
		return m.leaderboardFn(parentID, n)
	}
	return []gamification.Entry{}, nil
}

type auditEntry struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]interface{}
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(_ context.Context, userID, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID, changes})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func testAccount() *models.Account {
	return &models.Account{
		Base:     models.Base{ID: accountID},
		UserID:   childID,
		ParentID: parentID,
		Name:     "Kid",
		Balance:  money.MustParse("10.00"),
		IsActive: true,
	}
}

func injectUser(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func asParent() gin.HandlerFunc { return injectUser(parentID, models.RoleParent) }

func asChild() gin.HandlerFunc { return injectUser(childID, models.RoleChild) }

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
