package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/statera-app/statera/internal/core/domain"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
)

// reviewHandler handles HTTP requests for the review queue.
type reviewHandler struct {
	reviewService portssvc.ReviewSvcFacade
}

func newReviewHandler(rs portssvc.ReviewSvcFacade) *reviewHandler {
	return &reviewHandler{
		reviewService: rs,
	}
}

// registerReviewRoutes registers match review and check resolution routes.
func registerReviewRoutes(rg *gin.RouterGroup, reviewService portssvc.ReviewSvcFacade) {
	h := newReviewHandler(reviewService)

	matches := rg.Group("/matches")
	{
		matches.GET("/pending", h.listPendingMatches)
		matches.POST("/:id/accept", h.acceptMatch)
		matches.POST("/:id/reject", h.rejectMatch)
		matches.POST("/batch-accept", h.batchAccept)
		matches.POST("/batch-reject", h.batchReject)
	}

	checks := rg.Group("/checks")
	{
		checks.GET("", h.listChecks)
		checks.GET("/unresolved", h.hasUnresolvedChecks)
		checks.POST("/:id/resolve", h.resolveCheck)
	}
}

// listPendingMatches godoc
// @Summary List pending-review matches
// @Tags review
// @Produce  json
// @Param   limit query int false "Page size (default 50)"
// @Success 200 {array} dto.MatchResponse
// @Router /matches/pending [get]
func (h *reviewHandler) listPendingMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	matches, err := h.reviewService.ListPendingMatches(c.Request.Context(), ownerID, limit)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list pending matches")
		return
	}

	resp := make([]dto.MatchResponse, len(matches))
	for i := range matches {
		resp[i] = dto.ToMatchResponse(&matches[i])
	}
	c.JSON(http.StatusOK, resp)
}

// acceptMatch godoc
// @Summary Accept a pending match
// @Description Flips the transaction to matched and every referenced non-void entry to reconciled. Already-resolved matches are returned unchanged.
// @Tags review
// @Produce  json
// @Param   id path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 404 {object} map[string]string "Match not found"
// @Router /matches/{id}/accept [post]
func (h *reviewHandler) acceptMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	matchID := c.Param("id")

	match, err := h.reviewService.AcceptMatch(c.Request.Context(), ownerID, matchID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to accept match")
		return
	}

	logger.Info("Match accepted", slog.String("match_id", matchID))
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// rejectMatch godoc
// @Summary Reject a pending match
// @Description Returns the transaction to unmatched. Already-resolved matches are returned unchanged.
// @Tags review
// @Produce  json
// @Param   id path string true "Match ID"
// @Success 200 {object} dto.MatchResponse
// @Failure 404 {object} map[string]string "Match not found"
// @Router /matches/{id}/reject [post]
func (h *reviewHandler) rejectMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	matchID := c.Param("id")

	match, err := h.reviewService.RejectMatch(c.Request.Context(), ownerID, matchID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reject match")
		return
	}

	logger.Info("Match rejected", slog.String("match_id", matchID))
	c.JSON(http.StatusOK, dto.ToMatchResponse(match))
}

// batchAccept godoc
// @Summary Accept a batch of pending matches
// @Description Accepts every listed match still pending with score >= minScore; the rest are skipped with per-id reasons. Refused entirely while unresolved consistency checks exist.
// @Tags review
// @Accept  json
// @Produce  json
// @Param   batch body dto.BatchAcceptRequest true "Match IDs and score floor"
// @Success 200 {object} dto.BatchResult
// @Failure 409 {object} map[string]string "Unresolved consistency checks block batch acceptance"
// @Router /matches/batch-accept [post]
func (h *reviewHandler) batchAccept(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.reviewService.BatchAccept(c.Request.Context(), ownerID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to batch accept matches")
		return
	}

	logger.Info("Batch accept finished",
		slog.Int("processed", len(result.Processed)),
		slog.Int("skipped", len(result.Skipped)),
	)
	c.JSON(http.StatusOK, result)
}

// batchReject godoc
// @Summary Reject a batch of pending matches
// @Tags review
// @Accept  json
// @Produce  json
// @Param   batch body dto.BatchRejectRequest true "Match IDs"
// @Success 200 {object} dto.BatchResult
// @Router /matches/batch-reject [post]
func (h *reviewHandler) batchReject(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.reviewService.BatchReject(c.Request.Context(), ownerID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to batch reject matches")
		return
	}
	c.JSON(http.StatusOK, result)
}

// listChecks godoc
// @Summary List consistency checks
// @Tags review
// @Produce  json
// @Param   status query string false "Filter by status (pending, approved, rejected, flagged)"
// @Param   limit query int false "Page size (default 50)"
// @Success 200 {array} dto.CheckResponse
// @Router /checks [get]
func (h *reviewHandler) listChecks(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	var status *domain.CheckStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.CheckStatus(raw)
		status = &s
	}

	checks, err := h.reviewService.ListChecks(c.Request.Context(), ownerID, status, limit)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list checks")
		return
	}

	resp := make([]dto.CheckResponse, len(checks))
	for i := range checks {
		resp[i] = dto.ToCheckResponse(&checks[i])
	}
	c.JSON(http.StatusOK, resp)
}

// hasUnresolvedChecks godoc
// @Summary Query whether unresolved consistency checks exist
// @Description True while any check is still pending; batch acceptance is refused until this clears.
// @Tags review
// @Produce  json
// @Success 200 {object} dto.UnresolvedChecksResponse
// @Router /checks/unresolved [get]
func (h *reviewHandler) hasUnresolvedChecks(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	unresolved, err := h.reviewService.HasUnresolvedChecks(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to query unresolved checks")
		return
	}
	c.JSON(http.StatusOK, dto.UnresolvedChecksResponse{HasUnresolved: unresolved})
}

// resolveCheck godoc
// @Summary Resolve a consistency check
// @Description Applies action approve, reject or flag to a pending check
// @Tags review
// @Accept  json
// @Produce  json
// @Param   id path string true "Check ID"
// @Param   resolution body dto.ResolveCheckRequest true "Action and optional note"
// @Success 200 {object} dto.CheckResponse
// @Failure 409 {object} map[string]string "Check already resolved"
// @Router /checks/{id}/resolve [post]
func (h *reviewHandler) resolveCheck(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	checkID := c.Param("id")

	check, err := h.reviewService.ResolveCheck(c.Request.Context(), ownerID, checkID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to resolve check")
		return
	}

	logger.Info("Check resolved", slog.String("check_id", checkID), slog.String("action", req.Action))
	c.JSON(http.StatusOK, dto.ToCheckResponse(check))
}
