package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// EntryStatusUpdate carries the fields of a journal entry status transition.
// VoidReason and ReversalEntryID are only set when transitioning to void.
type EntryStatusUpdate struct {
	Status          domain.EntryStatus
	VoidReason      *string
	ReversalEntryID *string
	UpdatedBy       string
	UpdatedAt       time.Time
}

// JournalRepositoryFacade defines persistence operations for journal entries
// and their lines.
type JournalRepositoryFacade interface {
	// SaveEntry inserts an entry and its lines atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error
	// SaveEntryInTx inserts an entry and its lines using the caller's
	// transaction, for flows that must combine the insert with other row
	// updates (e.g. void reversals).
	SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error
	FindEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error)
	// FindEntryByIDForUpdate locks the entry row for the duration of the
	// caller's transaction, serializing status transitions against
	// concurrent scoring reads and other transitions.
	FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, entryID string) (*domain.JournalEntry, error)
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)
	FindLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error)
	UpdateEntryStatusInTx(ctx context.Context, tx pgx.Tx, entryID string, update EntryStatusUpdate) error
	ListEntriesByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// FindCandidateEntries returns posted/reconciled entries of the owner
	// with source system or manual, dated within [dateFrom, dateTo], ordered
	// by (amount proximity, date proximity) to amount/refDate and bounded by
	// limit. This is the pruning step that keeps scoring off O(n^2) scans.
	FindCandidateEntries(ctx context.Context, ownerID string, amount decimal.Decimal, refDate, dateFrom, dateTo time.Time, limit int) ([]domain.JournalEntry, error)

	// SumLinesByAccount sums debit and credit amounts over lines belonging to
	// posted/reconciled entries of the account.
	SumLinesByAccount(ctx context.Context, accountID string) (domain.LineSums, error)
	// SumLinesByOwner returns per-account debit/credit sums over
	// posted/reconciled entries of the owner.
	SumLinesByOwner(ctx context.Context, ownerID string) (map[string]domain.LineSums, error)

	// FindProcessingLegs returns every posted/reconciled (entry, line) pair
	// touching the given account, regardless of age.
	FindProcessingLegs(ctx context.Context, accountID string) ([]domain.ProcessingLeg, error)
}

// JournalRepositoryWithTx is a JournalRepositoryFacade that can also open
// database transactions for multi-row flows.
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TxManager
}
