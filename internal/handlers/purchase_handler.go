package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/services"
)

// PurchaseHandler handles purchase requests
type PurchaseHandler struct {
	purchases services.PurchaseServicer
	ledger    services.LedgerServicer
	audit     services.AuditServicer
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchases services.PurchaseServicer, ledger services.LedgerServicer, audit services.AuditServicer) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, ledger: ledger, audit: audit}
}

// CreatePurchaseRequest represents a child's spending proposal
type CreatePurchaseRequest struct {
	Item     string          `json:"item" binding:"required,max=100"`
	Amount   money.Amount    `json:"amount" binding:"required"`
	Category models.Category `json:"category" binding:"omitempty,category"`
}

// ListPurchaseQuery holds the purchase request list filters
type ListPurchaseQuery struct {
	Status models.PurchaseStatus `form:"status" binding:"omitempty,purchase_status"`
}

// Create files a purchase request
// @Summary     Create purchase request
// @Tags        purchase-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePurchaseRequest true "Purchase request"
// @Success     201 {object} models.PurchaseRequest "Purchase request"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /purchase-requests [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	childID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	pr, err := h.purchases.CreatePurchaseRequest(c.Request.Context(), childID, req.Item, req.Amount, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"purchase_request": pr})
}

// List lists purchase requests
// @Summary     List purchase requests
// @Description Parents see requests addressed to them; children see their own
// @Tags        purchase-requests
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "pending, approved or rejected"
// @Success     200 {array} models.PurchaseRequest "Purchase requests"
// @Router      /purchase-requests [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	viewer, err := getViewer(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListPurchaseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	reqs, err := h.purchases.ListPurchaseRequests(c.Request.Context(), viewer, q.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchase_requests": reqs})
}

// Resolve approves or rejects a pending request. Approval does not move money.
// @Summary     Resolve purchase request
// @Tags        purchase-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Purchase request ID"
// @Param       request body ResolveRequest true "Decision"
// @Success     200 {object} models.PurchaseRequest "Purchase request"
// @Failure     403 {object} ErrorResponse "Request addressed to another parent"
// @Failure     409 {object} ErrorResponse "Already processed"
// @Router      /purchase-requests/{id}/resolve [post]
func (h *PurchaseHandler) Resolve(c *gin.Context) {
	parentID, requestID, ok := parentAndPathID(c)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	pr, err := h.ledger.ResolvePurchaseRequest(ctx, requestID, parentID, req.Action, req.Comment)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, parentID, services.AuditResolvePurchase, "purchase_request", requestID, c.ClientIP(), map[string]interface{}{
		"action": req.Action,
	})
	c.JSON(http.StatusOK, gin.H{"purchase_request": pr})
}

// Charge debits an approved request from the child's balance
// @Summary     Charge purchase request
// @Tags        purchase-requests
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Purchase request ID"
// @Success     201 {object} ledger.ChargeResult "Request, balance and transaction"
// @Failure     409 {object} ErrorResponse "Not approved or already charged"
// @Failure     422 {object} ErrorResponse "Insufficient funds"
// @Router      /purchase-requests/{id}/charge [post]
func (h *PurchaseHandler) Charge(c *gin.Context) {
	parentID, requestID, ok := parentAndPathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	res, err := h.ledger.ChargePurchaseRequest(ctx, requestID, parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, parentID, services.AuditChargePurchase, "purchase_request", requestID, c.ClientIP(), map[string]interface{}{
		"amount":  res.Request.Amount.String(),
		"balance": res.Balance.String(),
	})
	c.JSON(http.StatusCreated, res)
}

func parentAndPathID(c *gin.Context) (string, string, bool) {
	parentID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	return parentID, id, true
}
