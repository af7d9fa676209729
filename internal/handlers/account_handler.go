package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"piggybank/internal/ledger"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/pagination"
	"piggybank/internal/services"
)

// AccountHandler handles children, their accounts and parent-initiated money movements.
type AccountHandler struct {
	family services.FamilyServicer
	ledger services.LedgerServicer
	audit  services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(family services.FamilyServicer, ledger services.LedgerServicer, audit services.AuditServicer) *AccountHandler {
	return &AccountHandler{family: family, ledger: ledger, audit: audit}
}

// CreateChildRequest represents the payload for adding a child to the family
type CreateChildRequest struct {
	Email            string       `json:"email" binding:"required,email,max=255"`
	Password         string       `json:"password" binding:"required,min=8,max=128"`
	DisplayName      string       `json:"display_name" binding:"required,max=100"`
	InitialAllowance money.Amount `json:"initial_allowance"`
}

// DepositRequest represents the payload for paying money into an account
type DepositRequest struct {
	Amount      money.Amount           `json:"amount" binding:"required"`
	Type        models.TransactionType `json:"type" binding:"required,deposit_type"`
	Description string                 `json:"description" binding:"max=255"`
}

// WithdrawRequest represents the payload for taking money out of an account
type WithdrawRequest struct {
	Amount      money.Amount    `json:"amount" binding:"required"`
	Category    models.Category `json:"category" binding:"omitempty,category"`
	Description string          `json:"description" binding:"max=255"`
}

// AccountStatusRequest represents the payload for enabling or disabling an account
type AccountStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateChild adds a child login and account to the family
// @Summary     Create a child
// @Description Create a child user with a linked account, optionally paying an initial allowance
// @Tags        children
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateChildRequest true "Child details"
// @Success     201 {object} services.ChildAccount "Child created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Parents only"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /children [post]
func (h *AccountHandler) CreateChild(c *gin.Context) {
	parentID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	child, err := h.family.CreateChild(ctx, parentID, req.Email, req.Password, req.DisplayName, req.InitialAllowance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, parentID, services.AuditCreateChild, "account", child.Account.ID, c.ClientIP(), map[string]interface{}{
		"child_id":          child.User.ID,
		"initial_allowance": req.InitialAllowance.String(),
	})
	c.JSON(http.StatusCreated, child)
}

// ListChildren lists the parent's children's accounts
// @Summary     List children
// @Tags        children
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Account "Accounts"
// @Failure     403 {object} ErrorResponse "Parents only"
// @Router      /children [get]
func (h *AccountHandler) ListChildren(c *gin.Context) {
	parentID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.family.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetMyAccount returns the calling child's account
// @Summary     Get own account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/me [get]
func (h *AccountHandler) GetMyAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.family.GetOwnAccount(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// GetAccount returns an account visible to the caller
// @Summary     Get account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, ok := h.visibleAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// SetAccountStatus enables or disables a child's account
// @Summary     Enable or disable account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body AccountStatusRequest true "Status"
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/status [patch]
func (h *AccountHandler) SetAccountStatus(c *gin.Context) {
	parentID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	account, err := h.family.SetAccountActive(ctx, parentID, accountID, *req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := services.AuditDisableAccount
	if *req.IsActive {
		action = services.AuditEnableAccount
	}
	h.audit.Log(ctx, parentID, action, "account", accountID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// Deposit pays money into a child's account
// @Summary     Deposit
// @Description Credit an earning or allowance to a child's account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body DepositRequest true "Deposit"
// @Success     201 {object} ledger.BalanceResult "New balance and transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/deposits [post]
func (h *AccountHandler) Deposit(c *gin.Context) {
	account, ok := h.visibleAccount(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	res, err := h.ledger.Deposit(ctx, account.ID, req.Amount, req.Type, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditMoney(c, services.AuditDeposit, account.ID, req.Amount, res)
	c.JSON(http.StatusCreated, res)
}

// Withdraw takes money out of a child's account
// @Summary     Withdraw
// @Description Debit a child's account for spending. Fails without side effects when the balance is too low.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body WithdrawRequest true "Withdrawal"
// @Success     201 {object} ledger.BalanceResult "New balance and transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Insufficient funds"
// @Router      /accounts/{id}/withdrawals [post]
func (h *AccountHandler) Withdraw(c *gin.Context) {
	account, ok := h.visibleAccount(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	res, err := h.ledger.Withdraw(ctx, account.ID, req.Amount, req.Category, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditMoney(c, services.AuditWithdraw, account.ID, req.Amount, res)
	c.JSON(http.StatusCreated, res)
}

// ListTransactions pages through an account's history
// @Summary     List transactions
// @Description Newest first
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Account ID"
// @Param       limit  query int    false "Page size (default 20, max 100)"
// @Param       offset query int    false "Records to skip"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	account, ok := h.visibleAccount(c)
	if !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	page.Defaults()

	txs, total, err := h.ledger.ListTransactions(c.Request.Context(), account.ID, page.Limit, page.Offset)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(txs, page, total))
}

// visibleAccount loads the :id account for the caller, writing the error
// response when it is not visible.
func (h *AccountHandler) visibleAccount(c *gin.Context) (*models.Account, bool) {
	viewer, err := getViewer(c)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	account, err := h.family.GetAccount(c.Request.Context(), viewer, accountID)
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	return account, true
}

func (h *AccountHandler) auditMoney(c *gin.Context, action, accountID string, amount money.Amount, res *ledger.BalanceResult) {
	userID, _ := getUserID(c)
	changes := map[string]interface{}{
		"amount":  amount.String(),
		"balance": res.Balance.String(),
	}
	if res.Transaction != nil {
		changes["transaction_id"] = res.Transaction.ID
	}
	h.audit.Log(c.Request.Context(), userID, action, "account", accountID, c.ClientIP(), changes)
}
