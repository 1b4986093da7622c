package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
)

// consistencyHandler handles HTTP requests for the consistency scans.
type consistencyHandler struct {
	consistencyService portssvc.ConsistencySvcFacade
}

func newConsistencyHandler(cs portssvc.ConsistencySvcFacade) *consistencyHandler {
	return &consistencyHandler{
		consistencyService: cs,
	}
}

// registerConsistencyRoutes registers consistency scan routes.
func registerConsistencyRoutes(rg *gin.RouterGroup, consistencyService portssvc.ConsistencySvcFacade) {
	h := newConsistencyHandler(consistencyService)

	consistency := rg.Group("/consistency")
	{
		consistency.POST("/run", h.runAll)
		consistency.POST("/duplicates", h.detectDuplicates)
		consistency.POST("/transfer-pairs", h.detectTransferPairs)
		consistency.POST("/anomalies", h.detectAnomalies)
	}
}

// runAll godoc
// @Summary Run every consistency scan
// @Description Runs the duplicate, transfer-pair and anomaly scans in sequence. Scans are append-only and idempotent; re-runs never duplicate pending findings.
// @Tags consistency
// @Accept  json
// @Produce  json
// @Param   run body dto.ConsistencyRunRequest false "Optional statement scope"
// @Success 200 {object} dto.ConsistencyRunSummary
// @Router /consistency/run [post]
func (h *consistencyHandler) runAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	req, ownerID, userID, ok := bindScanRequest(c)
	if !ok {
		return
	}

	summary, err := h.consistencyService.RunAll(c.Request.Context(), ownerID, req.StatementID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to run consistency scans")
		return
	}

	logger.Info("Consistency scans finished",
		slog.Int("duplicates", summary.DuplicatesFound),
		slog.Int("transfer_pairs", summary.TransferPairsFound),
		slog.Int("anomalies", summary.AnomaliesFound),
	)
	c.JSON(http.StatusOK, summary)
}

// detectDuplicates godoc
// @Summary Run the duplicate scan
// @Tags consistency
// @Accept  json
// @Produce  json
// @Param   run body dto.ConsistencyRunRequest false "Optional statement scope"
// @Success 200 {object} map[string]int
// @Router /consistency/duplicates [post]
func (h *consistencyHandler) detectDuplicates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	req, ownerID, userID, ok := bindScanRequest(c)
	if !ok {
		return
	}

	found, err := h.consistencyService.DetectDuplicates(c.Request.Context(), ownerID, req.StatementID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to run duplicate scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": found})
}

// detectTransferPairs godoc
// @Summary Run the transfer-pair scan
// @Tags consistency
// @Accept  json
// @Produce  json
// @Param   run body dto.ConsistencyRunRequest false "Optional statement scope"
// @Success 200 {object} map[string]int
// @Router /consistency/transfer-pairs [post]
func (h *consistencyHandler) detectTransferPairs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	req, ownerID, userID, ok := bindScanRequest(c)
	if !ok {
		return
	}

	found, err := h.consistencyService.DetectTransferPairs(c.Request.Context(), ownerID, req.StatementID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to run transfer-pair scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": found})
}

// detectAnomalies godoc
// @Summary Run the anomaly scan
// @Tags consistency
// @Accept  json
// @Produce  json
// @Param   run body dto.ConsistencyRunRequest false "Optional statement scope"
// @Success 200 {object} map[string]int
// @Router /consistency/anomalies [post]
func (h *consistencyHandler) detectAnomalies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	req, ownerID, userID, ok := bindScanRequest(c)
	if !ok {
		return
	}

	found, err := h.consistencyService.DetectAnomalies(c.Request.Context(), ownerID, req.StatementID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to run anomaly scan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": found})
}

func bindScanRequest(c *gin.Context) (req dto.ConsistencyRunRequest, ownerID, userID string, ok bool) {
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return req, "", "", false
		}
	}
	ownerID, userID, ok = requireIdentity(c)
	return req, ownerID, userID, ok
}
