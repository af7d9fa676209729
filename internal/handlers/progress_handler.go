package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"piggybank/internal/services"
)

// ProgressHandler exposes points, levels, badges and the family leaderboard
type ProgressHandler struct {
	progress services.ProgressServicer
	family   services.FamilyServicer
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(progress services.ProgressServicer, family services.FamilyServicer) *ProgressHandler {
	return &ProgressHandler{progress: progress, family: family}
}

// LeaderboardQuery holds the leaderboard size
type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// GetProgress returns the gamification state of an account
// @Summary     Get progress
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} gamification.Summary "Points, level and badges"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/progress [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
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

	ctx := c.Request.Context()
	if _, err := h.family.GetAccount(ctx, viewer, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.progress.Progress(ctx, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Leaderboard ranks the parent's children by points
// @Summary     Family leaderboard
// @Tags        progress
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Entries (default 10, max 50)"
// @Success     200 {array} gamification.Entry "Ranking"
// @Router      /leaderboard [get]
func (h *ProgressHandler) Leaderboard(c *gin.Context) {
	parentID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entries, err := h.progress.Leaderboard(c.Request.Context(), parentID, q.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
