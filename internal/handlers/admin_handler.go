package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/ledger"
	"piggybank/internal/services"
)

// adminActor is recorded as the user of audit entries made with the admin API key.
const adminActor = "admin"

// AdminHandler handles operator endpoints guarded by the admin API key
type AdminHandler struct {
	ledger services.LedgerServicer
	audit  services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(ledger services.LedgerServicer, audit services.AuditServicer) *AdminHandler {
	return &AdminHandler{ledger: ledger, audit: audit}
}

// RunInterestQuery holds the batch options
type RunInterestQuery struct {
	// NotAccruedSince skips accounts already accrued at or after this instant (RFC 3339).
	NotAccruedSince string `form:"not_accrued_since"`
}

// PurgeResponse reports how many transactions were removed
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// RunInterestBatch applies monthly interest to every configured account
// @Summary     Run interest batch
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       not_accrued_since query string false "Skip accounts accrued at or after this RFC 3339 time"
// @Success     200 {object} ledger.BatchReport "Per-account results"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/interest/run [post]
func (h *AdminHandler) RunInterestBatch(c *gin.Context) {
	var q RunInterestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var opts ledger.BatchOptions
	if q.NotAccruedSince != "" {
		since, err := time.Parse(time.RFC3339, q.NotAccruedSince)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "not_accrued_since must be an RFC 3339 time"))
			return
		}
		opts.NotAccruedSince = &since
	}

	ctx := c.Request.Context()
	report, err := h.ledger.RunInterestBatch(ctx, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, adminActor, services.AuditRunInterestBatch, "interest_batch", "", c.ClientIP(), map[string]interface{}{
		"succeeded": report.Succeeded,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	})
	c.JSON(http.StatusOK, report)
}

// PurgeTransactions erases an account's transaction history
// @Summary     Purge transactions
// @Description Hard-deletes the account's transactions. Balances are not changed.
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       id path string true "Account ID"
// @Success     200 {object} PurgeResponse "Deleted count"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/accounts/{id}/transactions [delete]
func (h *AdminHandler) PurgeTransactions(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	n, err := h.ledger.PurgeTransactions(ctx, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, adminActor, services.AuditPurgeTransactions, "account", accountID, c.ClientIP(), map[string]interface{}{
		"deleted": n,
	})
	c.JSON(http.StatusOK, PurgeResponse{Deleted: n})
}
