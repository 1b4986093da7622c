package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
	"github.com/statera-app/statera/internal/utils/accounting"
)

var (
	ErrEntryMinLines    = errors.New("entry must have at least two lines")
	ErrEntryMinAccounts = errors.New("entry must affect at least two different accounts")
	ErrAccountInactive  = errors.New("account is inactive")
	ErrMemoMissing      = errors.New("entry memo is required")
)

// ledgerService owns accounts and the journal entry lifecycle.
type ledgerService struct {
	accountRepo  portsrepo.AccountRepositoryFacade
	journalRepo  portsrepo.JournalRepositoryWithTx
	fxRates      portssvc.FxRateProvider
	baseCurrency string
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryWithTx, fxRates portssvc.FxRateProvider, baseCurrency string) portssvc.LedgerSvcFacade {
	return &ledgerService{
		accountRepo:  accountRepo,
		journalRepo:  journalRepo,
		fxRates:      fxRates,
		baseCurrency: baseCurrency,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateAccount creates a new user account.
func (s *ledgerService) CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Name == domain.ProcessingAccountName {
		return nil, fmt.Errorf("%w: account name %q is reserved for the system", apperrors.ErrValidation, req.Name)
	}
	if req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, ownerID, req.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent account %s: %w", req.ParentAccountID, err)
		}
		if parent.AccountType != req.AccountType {
			return nil, fmt.Errorf("%w: parent account type %s does not match %s", apperrors.ErrValidation, parent.AccountType, req.AccountType)
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		OwnerID:         ownerID,
		Name:            req.Name,
		AccountType:     req.AccountType,
		CurrencyCode:    req.CurrencyCode,
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("owner_id", ownerID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("owner_id", ownerID))
	return &account, nil
}

// GetAccountByID fetches a single account of the owner.
func (s *ledgerService) GetAccountByID(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, ownerID, accountID)
}

// ListAccounts lists the owner's accounts.
func (s *ledgerService) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	return s.accountRepo.ListAccountsByOwner(ctx, ownerID)
}

// CreateEntry creates a draft journal entry with its lines after validation.
func (s *ledgerService) CreateEntry(ctx context.Context, ownerID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.Lines) < 2 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrEntryMinLines)
	}
	if req.Memo == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrMemoMissing)
	}

	accountSet := make(map[string]struct{})
	for _, l := range req.Lines {
		accountSet[l.AccountID] = struct{}{}
	}
	if len(accountSet) < 2 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrEntryMinAccounts)
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		currency := lineReq.CurrencyCode
		if currency == "" {
			currency = req.Currency
		}
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    lineReq.AccountID,
			Direction:    lineReq.Direction,
			Amount:       lineReq.Amount,
			CurrencyCode: currency,
			FxRate:       lineReq.FxRate,
			EventType:    lineReq.EventType,
			AuditFields:  audit,
		}
	}

	if err := s.resolveFxRates(ctx, lines, req.Date); err != nil {
		return nil, err
	}
	if err := accounting.ValidateBalance(lines); err != nil {
		return nil, err
	}
	if err := accounting.ValidateFxRates(lines, s.baseCurrency); err != nil {
		return nil, err
	}
	if err := s.validateAccounts(ctx, ownerID, lines); err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		OwnerID:      ownerID,
		EntryDate:    req.Date,
		Memo:         req.Memo,
		Source:       source,
		SourceID:     req.SourceID,
		CurrencyCode: req.Currency,
		Status:       domain.EntryDraft,
		Lines:        lines,
		AuditFields:  audit,
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines); err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()), slog.String("owner_id", ownerID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	logger.Info("Journal entry created", slog.String("entry_id", entryID), slog.String("owner_id", ownerID))
	return &entry, nil
}

// resolveFxRates fills missing fx rates on foreign-currency lines from the FX
// collaborator. Unavailability propagates; a silent 1:1 default would corrupt
// balances.
func (s *ledgerService) resolveFxRates(ctx context.Context, lines []domain.JournalLine, on time.Time) error {
	for i := range lines {
		if lines[i].CurrencyCode == s.baseCurrency || lines[i].FxRate != nil {
			continue
		}
		if s.fxRates == nil {
			return fmt.Errorf("%w: no fx provider configured for %s line", apperrors.ErrFxRateUnavailable, lines[i].CurrencyCode)
		}
		rate, err := s.fxRates.GetRate(ctx, lines[i].CurrencyCode, s.baseCurrency, on)
		if err != nil {
			return fmt.Errorf("failed to resolve fx rate %s/%s: %w", lines[i].CurrencyCode, s.baseCurrency, err)
		}
		lines[i].FxRate = &rate
	}
	return nil
}

func (s *ledgerService) validateAccounts(ctx context.Context, ownerID string, lines []domain.JournalLine) error {
	accountIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		accountIDs = append(accountIDs, l.AccountID)
	}
	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, ownerID, uniqueStrings(accountIDs))
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, l := range lines {
		acc, found := accountsMap[l.AccountID]
		if !found {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, l.AccountID)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s: %s", apperrors.ErrValidation, l.AccountID, ErrAccountInactive)
		}
	}
	return nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of the owner's entries.
func (s *ledgerService) ListEntries(ctx context.Context, ownerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, nextToken, err := s.journalRepo.ListEntriesByOwner(ctx, ownerID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}
	resp := &dto.ListEntriesResponse{NextToken: nextToken}
	for i := range entries {
		resp.Entries = append(resp.Entries, dto.ToEntryResponse(&entries[i]))
	}
	return resp, nil
}

// PostEntry transitions a draft entry to posted after a final balance check.
func (s *ledgerService) PostEntry(ctx context.Context, ownerID, entryID, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.journalRepo.Rollback(ctx, tx)

	entry, err := s.journalRepo.FindEntryByIDForUpdate(ctx, tx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.CanTransitionTo(domain.EntryPosted) {
		return nil, fmt.Errorf("%w: entry %s is %s, expected draft", apperrors.ErrConflict, entryID, entry.Status)
	}

	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	if err := accounting.ValidateBalance(lines); err != nil {
		return nil, err
	}
	if err := accounting.ValidateFxRates(lines, s.baseCurrency); err != nil {
		return nil, err
	}
	if err := s.validateAccounts(ctx, ownerID, lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := portsrepo.EntryStatusUpdate{Status: domain.EntryPosted, UpdatedBy: userID, UpdatedAt: now}
	if err := s.journalRepo.UpdateEntryStatusInTx(ctx, tx, entryID, update); err != nil {
		return nil, fmt.Errorf("failed to post entry %s: %w", entryID, err)
	}
	if err := s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	entry.Status = domain.EntryPosted
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID
	entry.Lines = lines
	logger.Info("Journal entry posted", slog.String("entry_id", entryID))
	return entry, nil
}

// VoidEntry voids a posted entry by booking a reversal entry with every line
// direction flipped, preserving amounts, currency and fx rate. The original
// row is never mutated beyond its status and void metadata.
func (s *ledgerService) VoidEntry(ctx context.Context, ownerID, entryID, reason, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reason == "" {
		return nil, fmt.Errorf("%w: void reason is required", apperrors.ErrValidation)
	}

	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.journalRepo.Rollback(ctx, tx)

	original, err := s.journalRepo.FindEntryByIDForUpdate(ctx, tx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	if !original.Status.CanTransitionTo(domain.EntryVoid) {
		return nil, fmt.Errorf("%w: entry %s is %s and cannot be voided", apperrors.ErrConflict, entryID, original.Status)
	}
	if original.VoidReason != nil {
		return nil, fmt.Errorf("%w: entry %s is already void", apperrors.ErrConflict, entryID)
	}

	originalLines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	reversalLines := make([]domain.JournalLine, len(originalLines))
	for i, orig := range originalLines {
		reversalLines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      reversalID,
			AccountID:    orig.AccountID,
			Direction:    orig.Direction.Inverse(),
			Amount:       orig.Amount,
			CurrencyCode: orig.CurrencyCode,
			FxRate:       orig.FxRate,
			EventType:    orig.EventType,
			AuditFields:  audit,
		}
	}

	reversal := domain.JournalEntry{
		EntryID:      reversalID,
		OwnerID:      ownerID,
		EntryDate:    original.EntryDate,
		Memo:         fmt.Sprintf("Reversal of entry: %s", original.Memo),
		Source:       domain.SourceSystem,
		SourceID:     &original.EntryID,
		CurrencyCode: original.CurrencyCode,
		Status:       domain.EntryPosted,
		Lines:        reversalLines,
		AuditFields:  audit,
	}

	if err := s.journalRepo.SaveEntryInTx(ctx, tx, reversal, reversalLines); err != nil {
		logger.Error("Failed to save reversal entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save reversal entry: %w", err)
	}

	update := portsrepo.EntryStatusUpdate{
		Status:          domain.EntryVoid,
		VoidReason:      &reason,
		ReversalEntryID: &reversalID,
		UpdatedBy:       userID,
		UpdatedAt:       now,
	}
	if err := s.journalRepo.UpdateEntryStatusInTx(ctx, tx, entryID, update); err != nil {
		return nil, fmt.Errorf("failed to void entry %s: %w", entryID, err)
	}
	if err := s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Journal entry voided", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversalID))
	return &reversal, nil
}

// CalculateAccountBalance derives the account balance from the lines of
// posted/reconciled entries, honouring the type's sign convention. Drafts and
// voided entries are excluded by the aggregation itself, which is how void
// reversals never leak into reported balances.
func (s *ledgerService) CalculateAccountBalance(ctx context.Context, ownerID, accountID string) (decimal.Decimal, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, ownerID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	sums, err := s.journalRepo.SumLinesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum lines for account %s: %w", accountID, err)
	}
	return accounting.NetSignedBalance(account.AccountType, sums.DebitTotal, sums.CreditTotal), nil
}

// VerifyAccountingEquation checks Assets == Liabilities + Equity +
// (Income - Expenses) over all the owner's accounts within a 0.10 tolerance.
// A system-wide sanity check, not a per-transaction gate.
func (s *ledgerService) VerifyAccountingEquation(ctx context.Context, ownerID string) (*domain.EquationResult, error) {
	accounts, err := s.accountRepo.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	sumsByAccount, err := s.journalRepo.SumLinesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum lines: %w", err)
	}

	result := domain.EquationResult{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Equity:      decimal.Zero,
		Income:      decimal.Zero,
		Expenses:    decimal.Zero,
	}
	for _, acc := range accounts {
		sums, ok := sumsByAccount[acc.AccountID]
		if !ok {
			continue
		}
		balance := accounting.NetSignedBalance(acc.AccountType, sums.DebitTotal, sums.CreditTotal)
		switch acc.AccountType {
		case domain.Asset:
			result.Assets = result.Assets.Add(balance)
		case domain.Liability:
			result.Liabilities = result.Liabilities.Add(balance)
		case domain.Equity:
			result.Equity = result.Equity.Add(balance)
		case domain.Income:
			result.Income = result.Income.Add(balance)
		case domain.Expense:
			result.Expenses = result.Expenses.Add(balance)
		}
	}

	rhs := result.Liabilities.Add(result.Equity).Add(result.Income.Sub(result.Expenses))
	result.Difference = result.Assets.Sub(rhs)
	result.Balanced = result.Difference.Abs().LessThanOrEqual(accounting.EquationTolerance)
	return &result, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
