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

// transferHandler handles HTTP requests for internal transfers.
type transferHandler struct {
	transferService portssvc.TransferSvcFacade
}

func newTransferHandler(ts portssvc.TransferSvcFacade) *transferHandler {
	return &transferHandler{
		transferService: ts,
	}
}

// registerTransferRoutes registers transfer manager routes.
func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade) {
	h := newTransferHandler(transferService)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("/out", h.recordTransferOut)
		transfers.POST("/in", h.recordTransferIn)
		transfers.GET("/pairs", h.findPairs)
		transfers.GET("/unpaired", h.listUnpaired)
		transfers.GET("/processing-balance", h.getProcessingBalance)
	}
}

// recordTransferOut godoc
// @Summary Record an outbound transfer leg
// @Description Books DEBIT Processing / CREDIT source through the system Processing account and posts it
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   leg body dto.TransferLegRequest true "Leg details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Non-positive amount or validation error"
// @Router /transfers/out [post]
func (h *transferHandler) recordTransferOut(c *gin.Context) {
	h.recordLeg(c, true)
}

// recordTransferIn godoc
// @Summary Record an inbound transfer leg
// @Description Books DEBIT destination / CREDIT Processing through the system Processing account and posts it
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   leg body dto.TransferLegRequest true "Leg details"
// @Success 201 {object} dto.EntryResponse
// @Router /transfers/in [post]
func (h *transferHandler) recordTransferIn(c *gin.Context) {
	h.recordLeg(c, false)
}

func (h *transferHandler) recordLeg(c *gin.Context, outbound bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferLegRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	var entry *domain.JournalEntry
	var err error
	if outbound {
		entry, err = h.transferService.RecordTransferOut(c.Request.Context(), ownerID, req, userID)
	} else {
		entry, err = h.transferService.RecordTransferIn(c.Request.Context(), ownerID, req, userID)
	}
	if err != nil {
		respondServiceError(c, logger, err, "Failed to record transfer leg")
		return
	}

	logger.Info("Transfer leg recorded", slog.String("entry_id", entry.EntryID), slog.Bool("outbound", outbound))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// findPairs godoc
// @Summary Pair outbound and inbound transfer legs
// @Description Greedily pairs each transfer-out entry with its best unclaimed transfer-in counterpart at or above the score threshold
// @Tags transfers
// @Produce  json
// @Param   threshold query int false "Minimum pair score (defaults to the configured threshold)"
// @Success 200 {array} dto.TransferPairResult
// @Router /transfers/pairs [get]
func (h *transferHandler) findPairs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "0"))

	pairs, err := h.transferService.FindTransferPairs(c.Request.Context(), ownerID, threshold)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to find transfer pairs")
		return
	}
	c.JSON(http.StatusOK, pairs)
}

// listUnpaired godoc
// @Summary List unpaired transfer legs
// @Description Lists every Processing-touching line without a counterpart, however old. Age is advisory only.
// @Tags transfers
// @Produce  json
// @Success 200 {array} dto.UnpairedTransferLine
// @Router /transfers/unpaired [get]
func (h *transferHandler) listUnpaired(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	unpaired, err := h.transferService.GetUnpairedTransfers(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list unpaired transfers")
		return
	}
	c.JSON(http.StatusOK, unpaired)
}

// getProcessingBalance godoc
// @Summary Get the net Processing account balance
// @Description A non-zero balance signals unpaired transfers
// @Tags transfers
// @Produce  json
// @Success 200 {object} dto.ProcessingBalanceResponse
// @Router /transfers/processing-balance [get]
func (h *transferHandler) getProcessingBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.transferService.EnsureProcessingAccount(c.Request.Context(), ownerID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to resolve processing account")
		return
	}

	balance, err := h.transferService.GetProcessingBalance(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to calculate processing balance")
		return
	}
	c.JSON(http.StatusOK, dto.ProcessingBalanceResponse{AccountID: account.AccountID, Balance: balance})
}
