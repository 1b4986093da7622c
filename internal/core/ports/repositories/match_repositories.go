package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// MatchStatusUpdate carries the fields of a match status transition. Version
// is the new value; the repository refuses the update when the stored version
// has moved on, surfacing lost-update races to callers that read without a
// row lock.
type MatchStatusUpdate struct {
	Status         domain.MatchStatus
	Version        int64
	SupersededByID *string
	UpdatedBy      string
	UpdatedAt      time.Time
}

// MatchRepositoryFacade defines persistence operations for reconciliation
// matches. Matches are never deleted; superseding preserves the audit chain.
type MatchRepositoryFacade interface {
	SaveMatch(ctx context.Context, match domain.ReconciliationMatch) error
	SaveMatchInTx(ctx context.Context, tx pgx.Tx, match domain.ReconciliationMatch) error
	FindMatchByID(ctx context.Context, ownerID, matchID string) (*domain.ReconciliationMatch, error)
	// FindMatchByIDForUpdate locks the match row for the caller's
	// transaction, preventing two concurrent accept/reject calls from
	// double-processing it.
	FindMatchByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, matchID string) (*domain.ReconciliationMatch, error)
	// FindActiveMatchByTxn returns the single active (auto_accepted,
	// pending_review or accepted) match for a transaction, or ErrNotFound.
	FindActiveMatchByTxn(ctx context.Context, txnID string) (*domain.ReconciliationMatch, error)
	ListPendingByOwner(ctx context.Context, ownerID string, limit int) ([]domain.ReconciliationMatch, error)
	UpdateMatchStatusInTx(ctx context.Context, tx pgx.Tx, matchID string, update MatchStatusUpdate) error
	// HasAcceptedSimilar reports whether a previously accepted match exists
	// for a transaction with the same amount (within 0.01) and description
	// key. Feeds the history factor of the scorer.
	HasAcceptedSimilar(ctx context.Context, ownerID string, amount decimal.Decimal, descriptionKey string) (bool, error)
}

// MatchRepositoryWithTx is a MatchRepositoryFacade that can also open
// database transactions.
type MatchRepositoryWithTx interface {
	MatchRepositoryFacade
	TxManager
}
