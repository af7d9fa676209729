package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/services"
)

// InterestHandler handles per-account interest settings and on-demand accrual
type InterestHandler struct {
	interest services.InterestServicer
	family   services.FamilyServicer
	ledger   services.LedgerServicer
	audit    services.AuditServicer
}

// NewInterestHandler creates a new InterestHandler
func NewInterestHandler(interest services.InterestServicer, family services.FamilyServicer, ledger services.LedgerServicer, audit services.AuditServicer) *InterestHandler {
	return &InterestHandler{interest: interest, family: family, ledger: ledger, audit: audit}
}

// InterestConfigRequest represents the interest settings of an account
type InterestConfigRequest struct {
	MonthlyRate    decimal.Decimal `json:"monthly_rate" swaggertype:"string" example:"1.5"`
	MinimumBalance money.Amount    `json:"minimum_balance"`
	IsActive       *bool           `json:"is_active"`
}

// UpsertConfig creates or replaces the interest settings of an account
// @Summary     Set interest
// @Description Monthly rate is a percentage applied once per accrual cycle
// @Tags        interest
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body InterestConfigRequest true "Interest settings"
// @Success     200 {object} models.InterestConfig "Interest settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/interest [put]
func (h *InterestHandler) UpsertConfig(c *gin.Context) {
	parentID, accountID, ok := parentAndPathID(c)
	if !ok {
		return
	}

	var req InterestConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx := c.Request.Context()
	cfg, err := h.interest.UpsertConfig(ctx, parentID, accountID, req.MonthlyRate, req.MinimumBalance, active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, parentID, services.AuditUpsertInterest, "account", accountID, c.ClientIP(), map[string]interface{}{
		"monthly_rate":    req.MonthlyRate.String(),
		"minimum_balance": req.MinimumBalance.String(),
		"is_active":       active,
	})
	c.JSON(http.StatusOK, gin.H{"interest": cfg})
}

// GetConfig returns the interest settings of an account
// @Summary     Get interest
// @Tags        interest
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.InterestConfig "Interest settings"
// @Failure     404 {object} ErrorResponse "Not configured"
// @Router      /accounts/{id}/interest [get]
func (h *InterestHandler) GetConfig(c *gin.Context) {
	viewer, err := getViewer(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	cfg, err := h.interest.GetConfig(c.Request.Context(), viewer, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interest": cfg})
}

// Apply accrues one cycle of interest on an account now
// @Summary     Apply interest
// @Description Returns a null transaction when the account is skipped
// @Tags        interest
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Transaction "Interest transaction"
// @Failure     404 {object} ErrorResponse "Account or interest settings not found"
// @Router      /accounts/{id}/interest/apply [post]
func (h *InterestHandler) Apply(c *gin.Context) {
	parentID, accountID, ok := parentAndPathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	viewer := services.Viewer{UserID: parentID, Role: models.RoleParent}
	if _, err := h.family.GetAccount(ctx, viewer, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.ledger.ApplyMonthlyInterest(ctx, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{"applied": tx != nil}
	if tx != nil {
		changes["amount"] = tx.Amount.String()
		changes["transaction_id"] = tx.ID
	}
	h.audit.Log(ctx, parentID, services.AuditApplyInterest, "account", accountID, c.ClientIP(), changes)
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
