package services

import (
	"context"

	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/dto"
)

// ReviewSvcFacade is the human review workflow over pending matches and
// consistency findings. Every mutation acquires a row lock on its target
// before transitioning status.
type ReviewSvcFacade interface {
	// AcceptMatch promotes a pending match to accepted, flips the
	// transaction to matched and every referenced non-void entry from
	// posted to reconciled. No-op (returns current state) unless the match
	// is pending_review.
	AcceptMatch(ctx context.Context, ownerID, matchID, userID string) (*domain.ReconciliationMatch, error)
	// RejectMatch marks a pending match rejected and returns the
	// transaction to unmatched. Same no-op semantics as AcceptMatch.
	RejectMatch(ctx context.Context, ownerID, matchID, userID string) (*domain.ReconciliationMatch, error)
	// BatchAccept accepts matches still pending with score >= minScore,
	// skipping (never erroring on) the rest with per-id reasons. Refused
	// entirely while the owner has unresolved consistency checks.
	BatchAccept(ctx context.Context, ownerID string, req dto.BatchAcceptRequest, userID string) (*dto.BatchResult, error)
	BatchReject(ctx context.Context, ownerID string, req dto.BatchRejectRequest, userID string) (*dto.BatchResult, error)
	// ResolveCheck applies action approve, reject or flag to a pending
	// check; any other action is ErrValidation.
	ResolveCheck(ctx context.Context, ownerID, checkID string, req dto.ResolveCheckRequest, userID string) (*domain.ConsistencyCheck, error)
	ListPendingMatches(ctx context.Context, ownerID string, limit int) ([]domain.ReconciliationMatch, error)
	ListChecks(ctx context.Context, ownerID string, status *domain.CheckStatus, limit int) ([]domain.ConsistencyCheck, error)
	// HasUnresolvedChecks is the precondition gate for bulk acceptance.
	HasUnresolvedChecks(ctx context.Context, ownerID string) (bool, error)
}
