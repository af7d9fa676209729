package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/ledger"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/services"
)

func setupAccountRouter(family *mockFamilyService, ldg *mockLedgerService, audit *mockAuditService) *gin.Engine {
	h := NewAccountHandler(family, ldg, audit)
	r := gin.New()

	parent := r.Group("/", asParent())
	parent.POST("/children", h.CreateChild)
	parent.GET("/children", h.ListChildren)
	parent.GET("/accounts/:id", h.GetAccount)
	parent.PATCH("/accounts/:id/status", h.SetAccountStatus)
	parent.POST("/accounts/:id/deposits", h.Deposit)
	parent.POST("/accounts/:id/withdrawals", h.Withdraw)
	parent.GET("/accounts/:id/transactions", h.ListTransactions)

	child := r.Group("/child", asChild())
	child.GET("/accounts/me", h.GetMyAccount)
	child.GET("/accounts/:id/transactions", h.ListTransactions)
	return r
}

func TestCreateChild(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		family := &mockFamilyService{
			createChildFn: func(pid, email, _, name string, initial money.Amount) (*services.ChildAccount, error) {
				if pid != parentID || email != "kid@example.com" || name != "Kid" {
					t.Errorf("unexpected arguments %q %q %q", pid, email, name)
				}
				if initial != money.MustParse("5.00") {
					t.Errorf("expected initial allowance 5.00, got %s", initial)
				}
				u := &models.User{Email: email, Role: models.RoleChild}
				u.ID = childID
				return &services.ChildAccount{User: u, Account: testAccount()}, nil
			},
		}
		rec := doRequest(setupAccountRouter(family, &mockLedgerService{}, audit), http.MethodPost, "/children",
			`{"email":"kid@example.com","password":"password123","display_name":"Kid","initial_allowance":"5.00"}`)
		assertStatus(t, rec, http.StatusCreated)

		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditCreateChild || audit.entries[0].resourceID != accountID {
			t.Errorf("unexpected audit entries: %+v", audit.entries)
		}
	})

	t.Run("returns 400 without display name", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodPost, "/children",
			`{"email":"kid@example.com","password":"password123"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestListChildren(t *testing.T) {
	family := &mockFamilyService{
		listChildrenFn: func(string) ([]models.Account, error) { return []models.Account{*testAccount()}, nil },
	}
	rec := doRequest(setupAccountRouter(family, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/children", "")
	assertStatus(t, rec, http.StatusOK)

	accounts := parseJSON(t, rec)["accounts"].([]interface{})
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if balance := accounts[0].(map[string]interface{})["balance"]; balance != 10.0 {
		t.Errorf("expected balance 10.00, got %v", balance)
	}
}

func TestGetAccount(t *testing.T) {
	t.Run("returns 404 when not visible", func(t *testing.T) {
		family := &mockFamilyService{
			getAccountFn: func(services.Viewer, string) (*models.Account, error) { return nil, apperrors.ErrAccountNotFound },
		}
		rec := doRequest(setupAccountRouter(family, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/accounts/"+accountID, "")
		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/accounts/not-an-id", "")
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("child reads own account", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/child/accounts/me", "")
		assertStatus(t, rec, http.StatusOK)
		account := parseJSON(t, rec)["account"].(map[string]interface{})
		if account["id"] != accountID {
			t.Errorf("unexpected account: %v", account)
		}
	})
}

func TestSetAccountStatus(t *testing.T) {
	audit := &mockAuditService{}
	var got bool
	family := &mockFamilyService{
		setAccountActiveFn: func(_, _ string, active bool) (*models.Account, error) {
			got = active
			a := testAccount()
			a.IsActive = active
			return a, nil
		},
	}
	r := setupAccountRouter(family, &mockLedgerService{}, audit)

	rec := doRequest(r, http.MethodPatch, "/accounts/"+accountID+"/status", `{"is_active":false}`)
	assertStatus(t, rec, http.StatusOK)
	if got {
		t.Error("expected account to be disabled")
	}
	if len(audit.entries) != 1 || audit.entries[0].action != services.AuditDisableAccount {
		t.Errorf("unexpected audit entries: %+v", audit.entries)
	}

	rec = doRequest(r, http.MethodPatch, "/accounts/"+accountID+"/status", `{}`)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestDeposit(t *testing.T) {
	t.Run("returns 201 with the new balance", func(t *testing.T) {
		audit := &mockAuditService{}
		ldg := &mockLedgerService{
			depositFn: func(id string, amount money.Amount, txType models.TransactionType, desc string) (*ledger.BalanceResult, error) {
				if id != accountID || amount != money.MustParse("2.50") || txType != models.TransactionTypeEarning || desc != "chores" {
					t.Errorf("unexpected arguments %s %s %s %q", id, amount, txType, desc)
				}
				tx := &models.Transaction{AccountID: id, Amount: amount, Type: txType}
				tx.ID = "0190a000-0000-7000-8000-0000000000e1"
				return &ledger.BalanceResult{Balance: money.MustParse("12.50"), Transaction: tx}, nil
			},
		}
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, ldg, audit), http.MethodPost, "/accounts/"+accountID+"/deposits",
			`{"amount":2.50,"type":"earning","description":"chores"}`)
		assertStatus(t, rec, http.StatusCreated)

		if balance := parseJSON(t, rec)["balance"]; balance != 12.5 {
			t.Errorf("expected balance 12.50, got %v", balance)
		}
		if len(audit.entries) != 1 || audit.entries[0].changes["amount"] != "2.50" {
			t.Errorf("unexpected audit entries: %+v", audit.entries)
		}
	})

	t.Run("rejects internal transaction types", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodPost, "/accounts/"+accountID+"/deposits",
			`{"amount":2.50,"type":"interest"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("maps invalid amount", func(t *testing.T) {
		ldg := &mockLedgerService{
			depositFn: func(string, money.Amount, models.TransactionType, string) (*ledger.BalanceResult, error) {
				return nil, apperrors.ErrInvalidAmount
			},
		}
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, ldg, &mockAuditService{}), http.MethodPost, "/accounts/"+accountID+"/deposits",
			`{"amount":-1,"type":"allowance"}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("returns 422 on insufficient funds", func(t *testing.T) {
		audit := &mockAuditService{}
		ldg := &mockLedgerService{
			withdrawFn: func(string, money.Amount, models.Category, string) (*ledger.BalanceResult, error) {
				return nil, apperrors.ErrInsufficientFunds
			},
		}
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, ldg, audit), http.MethodPost, "/accounts/"+accountID+"/withdrawals",
			`{"amount":"100.00","category":"toys"}`)
		assertStatus(t, rec, http.StatusUnprocessableEntity)
		assertErrorCode(t, parseJSON(t, rec), "INSUFFICIENT_FUNDS")
		if len(audit.entries) != 0 {
			t.Error("failed withdrawals must not be audited")
		}
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodPost, "/accounts/"+accountID+"/withdrawals",
			`{"amount":"1.00","category":"yachts"}`)
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestListTransactions(t *testing.T) {
	t.Run("pages with defaults", func(t *testing.T) {
		ldg := &mockLedgerService{
			listTransactionsFn: func(id string, limit, offset int) ([]models.Transaction, int64, error) {
				if limit != 20 || offset != 0 {
					t.Errorf("expected default page, got limit=%d offset=%d", limit, offset)
				}
				return []models.Transaction{{AccountID: id, Amount: money.MustParse("1.00")}}, 3, nil
			},
		}
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, ldg, &mockAuditService{}), http.MethodGet, "/child/accounts/"+accountID+"/transactions", "")
		assertStatus(t, rec, http.StatusOK)

		body := parseJSON(t, rec)
		if body["total"] != 3.0 || body["has_more"] != true {
			t.Errorf("unexpected page: %v", body)
		}
	})

	t.Run("rejects oversized limit", func(t *testing.T) {
		rec := doRequest(setupAccountRouter(&mockFamilyService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/accounts/"+accountID+"/transactions?limit=500", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}
