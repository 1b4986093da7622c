package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/statera-app/statera/internal/core/domain"
)

// CheckResolutionUpdate carries the resolution fields of a consistency check.
type CheckResolutionUpdate struct {
	Status         domain.CheckStatus
	ResolutionNote *string
	ResolvedBy     string
	ResolvedAt     time.Time
}

// ConsistencyRepositoryFacade defines persistence operations for consistency
// checks. Checks are append-only; only resolution fields mutate.
type ConsistencyRepositoryFacade interface {
	SaveCheck(ctx context.Context, check domain.ConsistencyCheck) error
	FindCheckByID(ctx context.Context, ownerID, checkID string) (*domain.ConsistencyCheck, error)
	FindCheckByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, checkID string) (*domain.ConsistencyCheck, error)
	// ExistsPending reports whether a pending check of the given type with
	// exactly the given sorted transaction id set already exists. This is the
	// idempotency key that makes repeated scans safe.
	ExistsPending(ctx context.Context, ownerID string, checkType domain.CheckType, relatedTxnIDs []string) (bool, error)
	ListChecks(ctx context.Context, ownerID string, status *domain.CheckStatus, limit int) ([]domain.ConsistencyCheck, error)
	HasUnresolved(ctx context.Context, ownerID string) (bool, error)
	UpdateCheckResolutionInTx(ctx context.Context, tx pgx.Tx, checkID string, update CheckResolutionUpdate) error
}

// ConsistencyRepositoryWithTx is a ConsistencyRepositoryFacade that can also
// open database transactions.
type ConsistencyRepositoryWithTx interface {
	ConsistencyRepositoryFacade
	TxManager
}
