package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
)

// matchingHandler handles HTTP requests for reconciliation runs.
type matchingHandler struct {
	matchingService portssvc.MatchingSvcFacade
}

func newMatchingHandler(ms portssvc.MatchingSvcFacade) *matchingHandler {
	return &matchingHandler{
		matchingService: ms,
	}
}

// registerMatchingRoutes registers reconciliation routes.
func registerMatchingRoutes(rg *gin.RouterGroup, matchingService portssvc.MatchingSvcFacade) {
	h := newMatchingHandler(matchingService)

	rg.POST("/reconcile", h.reconcile)
}

// reconcile godoc
// @Summary Run the matching engine
// @Description Scores pending and unmatched transactions against candidate journal entries. Transactions already holding an active match are skipped, so re-runs are safe.
// @Tags matching
// @Accept  json
// @Produce  json
// @Param   run body dto.ReconcileRequest false "Optional statement scope"
// @Success 200 {object} dto.MatchRunSummary
// @Failure 500 {object} map[string]string "Failed to run reconciliation"
// @Router /reconcile [post]
func (h *matchingHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	logger.Info("Received request to reconcile", slog.String("owner_id", ownerID))

	summary, err := h.matchingService.Reconcile(c.Request.Context(), ownerID, req.StatementID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to run reconciliation")
		return
	}

	logger.Info("Reconciliation run finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("auto_accepted", summary.AutoAccepted),
		slog.Int("pending_review", summary.PendingReview),
		slog.Int("unmatched", summary.Unmatched),
	)
	c.JSON(http.StatusOK, summary)
}
