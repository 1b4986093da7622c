package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/statera-app/statera/internal/apperrors"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
)

// ledgerHandler handles HTTP requests for accounts and journal entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers account and journal entry routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
	}

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/void", h.voidEntry)
	}

	rg.GET("/equation", h.verifyEquation)
}

// createAccount godoc
// @Summary Create a new account
// @Description Creates a new account for the owner
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Reserved or duplicate account name"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Router /accounts [post]
func (h *ledgerHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	logger.Info("Received request to create account", slog.String("account_name", req.Name))

	account, err := h.ledgerService.CreateAccount(c.Request.Context(), ownerID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{id} [get]
func (h *ledgerHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.ledgerService.GetAccountByID(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts of the owner
// @Tags accounts
// @Produce  json
// @Success 200 {array} dto.AccountResponse
// @Router /accounts [get]
func (h *ledgerHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	accounts, err := h.ledgerService.ListAccounts(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list accounts")
		return
	}

	resp := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		resp[i] = dto.ToAccountResponse(&accounts[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getAccountBalance godoc
// @Summary Get the derived balance of an account
// @Description Sums the lines of posted and reconciled entries; drafts and voided entries never contribute.
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{id}/balance [get]
func (h *ledgerHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	accountID := c.Param("id")

	balance, err := h.ledgerService.CalculateAccountBalance(c.Request.Context(), ownerID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to calculate balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// createEntry godoc
// @Summary Create a draft journal entry
// @Description Creates a balanced draft entry with at least two lines over at least two accounts
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Unbalanced lines or validation error"
// @Router /entries [post]
func (h *ledgerHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.CreateEntry(c.Request.Context(), ownerID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create entry")
		return
	}

	logger.Info("Entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /entries/{id} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	entry, err := h.ledgerService.GetEntryByID(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries of the owner
// @Description Token-paginated, newest first
// @Tags entries
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListEntriesResponse
// @Router /entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.ledgerService.ListEntries(c.Request.Context(), ownerID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list entries")
		return
	}
	c.JSON(http.StatusOK, page)
}

// postEntry godoc
// @Summary Post a draft journal entry
// @Description Transitions a balanced draft to posted after revalidating its invariants
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 409 {object} map[string]string "Entry is not draft"
// @Router /entries/{id}/post [post]
func (h *ledgerHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), ownerID, entryID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post entry")
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// voidEntry godoc
// @Summary Void a posted journal entry
// @Description Books a posted reversal entry with flipped line directions and marks the original void
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   void body dto.VoidEntryRequest true "Void reason"
// @Success 200 {object} dto.EntryResponse "The reversal entry"
// @Failure 409 {object} map[string]string "Entry cannot be voided from its current status"
// @Router /entries/{id}/void [post]
func (h *ledgerHandler) voidEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.VoidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ownerID, userID, ok := requireIdentity(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	reversal, err := h.ledgerService.VoidEntry(c.Request.Context(), ownerID, entryID, req.Reason, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to void entry")
		return
	}

	logger.Info("Entry voided", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(reversal))
}

// verifyEquation godoc
// @Summary Verify the accounting equation for the owner
// @Description Checks Assets = Liabilities + Equity + (Income - Expenses) over posted and reconciled entries
// @Tags accounts
// @Produce  json
// @Success 200 {object} domain.EquationResult
// @Router /equation [get]
func (h *ledgerHandler) verifyEquation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ownerID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.ledgerService.VerifyAccountingEquation(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to verify accounting equation")
		return
	}
	c.JSON(http.StatusOK, result)
}

// requireIdentity pulls owner and acting-user IDs from the request context.
func requireIdentity(c *gin.Context) (ownerID, userID string, ok bool) {
	ownerID, ok = middleware.GetOwnerIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner not identified"})
		return "", "", false
	}
	userID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User not identified"})
		return "", "", false
	}
	return ownerID, userID, true
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflicting state", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrFxRateUnavailable):
		logger.Warn("FX rate unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
