package services

import (
	"context"

	"github.com/statera-app/statera/internal/dto"
)

// MatchingSvcFacade scores approved bank transactions against candidate
// journal entries and records reconciliation matches.
type MatchingSvcFacade interface {
	// Reconcile runs the matching algorithm for the owner, optionally scoped
	// to a single statement. Transactions already holding an active match
	// are skipped, making re-runs idempotent.
	Reconcile(ctx context.Context, ownerID string, statementID *string, userID string) (*dto.MatchRunSummary, error)
}
