package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"piggybank/internal/ledger"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/services"
)

// GoalHandler handles savings goals
type GoalHandler struct {
	goals  services.GoalServicer
	family services.FamilyServicer
	ledger services.LedgerServicer
	audit  services.AuditServicer
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goals services.GoalServicer, family services.FamilyServicer, ledger services.LedgerServicer, audit services.AuditServicer) *GoalHandler {
	return &GoalHandler{goals: goals, family: family, ledger: ledger, audit: audit}
}

// CreateGoalRequest represents the payload for opening a goal
type CreateGoalRequest struct {
	Name         string          `json:"name" binding:"required,max=100"`
	TargetAmount money.Amount    `json:"target_amount" binding:"required"`
	Category     models.Category `json:"category" binding:"omitempty,category"`
}

// ContributeRequest represents the payload for moving money into a goal
type ContributeRequest struct {
	Amount money.Amount `json:"amount" binding:"required"`
}

// ResolveRequest represents a parent's decision
type ResolveRequest struct {
	Action  ledger.Action `json:"action" binding:"required,resolve_action"`
	Comment string        `json:"comment" binding:"max=500"`
}

// ListGoalsQuery holds the goal list filters
type ListGoalsQuery struct {
	AccountID       string `form:"account_id" binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}

// CreateGoal opens a savings goal on the calling child's account
// @Summary     Create goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal"
// @Success     201 {object} models.Goal "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	childID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goals.CreateGoal(c.Request.Context(), childID, req.Name, req.TargetAmount, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// ListGoals lists the goals of an account
// @Summary     List goals
// @Description Children list their own goals; parents pass account_id
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       account_id       query string false "Account ID (parents)"
// @Param       include_inactive query bool   false "Include cancelled goals"
// @Success     200 {array} models.Goal "Goals"
// @Router      /goals [get]
func (h *GoalHandler) ListGoals(c *gin.Context) {
	viewer, err := getViewer(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListGoalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goals, err := h.goals.ListGoals(c.Request.Context(), viewer, q.AccountID, q.IncludeInactive)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// GetGoal returns a goal
// @Summary     Get goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.Goal "Goal"
// @Failure     403 {object} ErrorResponse "Goal belongs to another account"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoal(c *gin.Context) {
	viewer, goalID, ok := h.viewerAndGoal(c)
	if !ok {
		return
	}

	goal, err := h.goals.GetGoal(c.Request.Context(), viewer, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal removes a goal that holds no savings
// @Summary     Delete goal
// @Tags        goals
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     204 "Deleted"
// @Failure     409 {object} ErrorResponse "Goal still holds savings"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	viewer, goalID, ok := h.viewerAndGoal(c)
	if !ok {
		return
	}

	if err := h.goals.DeleteGoal(c.Request.Context(), viewer, goalID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Contribute moves money from the child's balance into a goal
// @Summary     Contribute to goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Param       request body ContributeRequest true "Amount"
// @Success     201 {object} ledger.GoalResult "Goal, balance and transaction"
// @Failure     409 {object} ErrorResponse "Goal is not active or already completed"
// @Failure     422 {object} ErrorResponse "Insufficient funds"
// @Router      /goals/{id}/contributions [post]
func (h *GoalHandler) Contribute(c *gin.Context) {
	account, goalID, ok := h.ownAccountAndGoal(c)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	res, err := h.ledger.ContributeToGoal(c.Request.Context(), account.ID, goalID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Cancel deactivates a goal and returns its savings to the balance
// @Summary     Cancel goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} ledger.GoalResult "Goal, balance and transaction (null when the goal was empty)"
// @Failure     409 {object} ErrorResponse "Goal is completed or already cancelled"
// @Router      /goals/{id}/cancel [post]
func (h *GoalHandler) Cancel(c *gin.Context) {
	account, goalID, ok := h.ownAccountAndGoal(c)
	if !ok {
		return
	}

	res, err := h.ledger.CancelGoal(c.Request.Context(), account.ID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RequestFulfillment asks the parent to redeem a completed goal
// @Summary     Request fulfillment
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.Goal "Goal"
// @Failure     409 {object} ErrorResponse "Goal not completed or already requested"
// @Router      /goals/{id}/fulfillment [post]
func (h *GoalHandler) RequestFulfillment(c *gin.Context) {
	account, goalID, ok := h.ownAccountAndGoal(c)
	if !ok {
		return
	}

	goal, err := h.ledger.RequestFulfillment(c.Request.Context(), account.ID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// ResolveFulfillment approves or rejects a pending fulfillment request
// @Summary     Resolve fulfillment
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Param       request body ResolveRequest true "Decision"
// @Success     200 {object} models.Goal "Goal"
// @Failure     403 {object} ErrorResponse "Goal belongs to another family"
// @Failure     409 {object} ErrorResponse "No pending fulfillment request"
// @Router      /goals/{id}/fulfillment/resolve [post]
func (h *GoalHandler) ResolveFulfillment(c *gin.Context) {
	parentID, goalID, ok := parentAndPathID(c)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	goal, err := h.ledger.ResolveFulfillment(ctx, parentID, goalID, req.Action)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(ctx, parentID, services.AuditResolveGoal, "goal", goalID, c.ClientIP(), map[string]interface{}{
		"action": req.Action,
	})
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

func (h *GoalHandler) viewerAndGoal(c *gin.Context) (services.Viewer, string, bool) {
	viewer, err := getViewer(c)
	if err != nil {
		respondWithError(c, err)
		return services.Viewer{}, "", false
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return services.Viewer{}, "", false
	}
	return viewer, goalID, true
}

// ownAccountAndGoal resolves the calling child's account and the :id goal.
func (h *GoalHandler) ownAccountAndGoal(c *gin.Context) (*models.Account, string, bool) {
	childID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return nil, "", false
	}
	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return nil, "", false
	}
	account, err := h.family.GetOwnAccount(c.Request.Context(), childID)
	if err != nil {
		respondWithError(c, err)
		return nil, "", false
	}
	return account, goalID, true
}
