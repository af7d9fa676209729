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

func setupPurchaseRouter(purchases *mockPurchaseService, ldg *mockLedgerService, audit *mockAuditService) *gin.Engine {
	h := NewPurchaseHandler(purchases, ldg, audit)
	r := gin.New()
	r.POST("/child/purchase-requests", asChild(), h.Create)
	r.GET("/child/purchase-requests", asChild(), h.List)
	r.GET("/purchase-requests", asParent(), h.List)
	r.POST("/purchase-requests/:id/resolve", asParent(), h.Resolve)
	r.POST("/purchase-requests/:id/charge", asParent(), h.Charge)
	return r
}

func testPurchaseRequest(status models.PurchaseStatus) *models.PurchaseRequest {
	pr := &models.PurchaseRequest{
		ChildID:   childID,
		AccountID: accountID,
		ParentID:  parentID,
		Item:      "Comic",
		Amount:    money.MustParse("4.99"),
		Category:  models.CategoryBooks,
		Status:    status,
	}
	pr.ID = requestID
	return pr
}

func TestCreatePurchaseRequest(t *testing.T) {
	svc := &mockPurchaseService{
		createFn: func(cid, item string, amount money.Amount, category models.Category) (*models.PurchaseRequest, error) {
			if cid != childID || item != "Comic" || amount != money.MustParse("4.99") || category != models.CategoryBooks {
				t.Errorf("unexpected arguments %s %q %s %s", cid, item, amount, category)
			}
			return testPurchaseRequest(models.PurchaseStatusPending), nil
		},
	}
	rec := doRequest(setupPurchaseRouter(svc, &mockLedgerService{}, &mockAuditService{}), http.MethodPost, "/child/purchase-requests",
		`{"item":"Comic","amount":4.99,"category":"books"}`)
	assertStatus(t, rec, http.StatusCreated)
	pr := parseJSON(t, rec)["purchase_request"].(map[string]interface{})
	if pr["status"] != "pending" || pr["amount"] != 4.99 {
		t.Errorf("unexpected request: %v", pr)
	}
}

func TestListPurchaseRequests(t *testing.T) {
	t.Run("filters by status", func(t *testing.T) {
		svc := &mockPurchaseService{
			listFn: func(viewer services.Viewer, status models.PurchaseStatus) ([]models.PurchaseRequest, error) {
				if viewer.UserID != parentID || status != models.PurchaseStatusPending {
					t.Errorf("unexpected arguments %+v %q", viewer, status)
				}
				return []models.PurchaseRequest{*testPurchaseRequest(status)}, nil
			},
		}
		rec := doRequest(setupPurchaseRouter(svc, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/purchase-requests?status=pending", "")
		assertStatus(t, rec, http.StatusOK)
		if reqs := parseJSON(t, rec)["purchase_requests"].([]interface{}); len(reqs) != 1 {
			t.Errorf("expected 1 request, got %d", len(reqs))
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		rec := doRequest(setupPurchaseRouter(&mockPurchaseService{}, &mockLedgerService{}, &mockAuditService{}), http.MethodGet, "/child/purchase-requests?status=lost", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestResolvePurchaseRequest(t *testing.T) {
	t.Run("rejects with comment", func(t *testing.T) {
		audit := &mockAuditService{}
		ldg := &mockLedgerService{
			resolvePurchaseFn: func(rid, pid string, action ledger.Action, comment string) (*models.PurchaseRequest, error) {
				if rid != requestID || pid != parentID || action != ledger.ActionReject || comment != "too pricey" {
					t.Errorf("unexpected arguments %s %s %s %q", rid, pid, action, comment)
				}
				pr := testPurchaseRequest(models.PurchaseStatusRejected)
				pr.ParentComment = comment
				return pr, nil
			},
		}
		rec := doRequest(setupPurchaseRouter(&mockPurchaseService{}, ldg, audit), http.MethodPost, "/purchase-requests/"+requestID+"/resolve",
			`{"action":"reject","comment":"too pricey"}`)
		assertStatus(t, rec, http.StatusOK)
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditResolvePurchase {
			t.Errorf("unexpected audit entries: %+v", audit.entries)
		}
	})

	t.Run("returns 409 when already processed", func(t *testing.T) {
		ldg := &mockLedgerService{
			resolvePurchaseFn: func(string, string, ledger.Action, string) (*models.PurchaseRequest, error) {
				return nil, apperrors.ErrPurchaseRequestState
			},
		}
		rec := doRequest(setupPurchaseRouter(&mockPurchaseService{}, ldg, &mockAuditService{}), http.MethodPost, "/purchase-requests/"+requestID+"/resolve",
			`{"action":"approve"}`)
		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PURCHASE_REQUEST_STATE")
	})

	t.Run("returns 403 for another family", func(t *testing.T) {
		ldg := &mockLedgerService{
			resolvePurchaseFn: func(string, string, ledger.Action, string) (*models.PurchaseRequest, error) {
				return nil, apperrors.ErrPurchaseRequestForbidden
			},
		}
		rec := doRequest(setupPurchaseRouter(&mockPurchaseService{}, ldg, &mockAuditService{}), http.MethodPost, "/purchase-requests/"+requestID+"/resolve",
			`{"action":"approve"}`)
		assertStatus(t, rec, http.StatusForbidden)
	})
}

func TestChargePurchaseRequest(t *testing.T) {
	audit := &mockAuditService{}
	ldg := &mockLedgerService{
		chargePurchaseFn: func(rid, pid string) (*ledger.ChargeResult, error) {
			return &ledger.ChargeResult{
				Request: testPurchaseRequest(models.PurchaseStatusApproved),
				Balance: money.MustParse("5.01"),
			}, nil
		},
	}
	rec := doRequest(setupPurchaseRouter(&mockPurchaseService{}, ldg, audit), http.MethodPost, "/purchase-requests/"+requestID+"/charge", "")
	assertStatus(t, rec, http.StatusCreated)
	if len(audit.entries) != 1 || audit.entries[0].changes["amount"] != "4.99" {
		t.Errorf("unexpected audit entries: %+v", audit.entries)
	}
}
