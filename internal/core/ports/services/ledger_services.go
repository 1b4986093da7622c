package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/dto"
)

// LedgerSvcFacade owns accounts and the journal entry lifecycle, and enforces
// the double-entry invariants.
type LedgerSvcFacade interface {
	CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, ownerID, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error)

	CreateEntry(ctx context.Context, ownerID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error)
	GetEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, ownerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
	// PostEntry transitions a balanced draft entry to posted. Fails with
	// ErrConflict when the entry is not draft, ErrValidation when unbalanced
	// or any referenced account is inactive.
	PostEntry(ctx context.Context, ownerID, entryID, userID string) (*domain.JournalEntry, error)
	// VoidEntry books a posted reversal entry with every line direction
	// flipped and marks the original void. In-place mutation of posted lines
	// is forbidden; the reversal is the only undo.
	VoidEntry(ctx context.Context, ownerID, entryID, reason, userID string) (*domain.JournalEntry, error)

	CalculateAccountBalance(ctx context.Context, ownerID, accountID string) (decimal.Decimal, error)
	VerifyAccountingEquation(ctx context.Context, ownerID string) (*domain.EquationResult, error)
}
