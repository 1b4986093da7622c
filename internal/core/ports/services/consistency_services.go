package services

import (
	"context"

	"github.com/statera-app/statera/internal/dto"
)

// ConsistencySvcFacade runs the post-hoc batch scans over approved
// transactions. All scans are append-only and idempotent; they enqueue
// ConsistencyCheck rows for review and never mutate ledger state.
type ConsistencySvcFacade interface {
	DetectDuplicates(ctx context.Context, ownerID string, statementID *string, userID string) (int, error)
	DetectTransferPairs(ctx context.Context, ownerID string, statementID *string, userID string) (int, error)
	DetectAnomalies(ctx context.Context, ownerID string, statementID *string, userID string) (int, error)
	RunAll(ctx context.Context, ownerID string, statementID *string, userID string) (*dto.ConsistencyRunSummary, error)
}
