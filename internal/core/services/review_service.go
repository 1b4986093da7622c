package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
)

var (
	ErrUnresolvedChecks = errors.New("owner has unresolved consistency checks")
	ErrUnknownAction    = errors.New("unknown resolution action")
)

// reviewService is the human review workflow over pending matches and
// consistency findings.
type reviewService struct {
	matchRepo   portsrepo.MatchRepositoryWithTx
	txnRepo     portsrepo.BankTransactionRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	checkRepo   portsrepo.ConsistencyRepositoryWithTx
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	matchRepo portsrepo.MatchRepositoryWithTx,
	txnRepo portsrepo.BankTransactionRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	checkRepo portsrepo.ConsistencyRepositoryWithTx,
) portssvc.ReviewSvcFacade {
	return &reviewService{
		matchRepo:   matchRepo,
		txnRepo:     txnRepo,
		journalRepo: journalRepo,
		checkRepo:   checkRepo,
	}
}

var _ portssvc.ReviewSvcFacade = (*reviewService)(nil)

// AcceptMatch promotes a pending match to accepted, marks its transaction
// matched and reconciles every referenced non-void entry. Accepting a match
// that already left pending_review returns its current state unchanged, so
// double-clicks and retried requests are harmless.
func (s *reviewService) AcceptMatch(ctx context.Context, ownerID, matchID, userID string) (*domain.ReconciliationMatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := s.matchRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.matchRepo.Rollback(ctx, tx)

	match, err := s.matchRepo.FindMatchByIDForUpdate(ctx, tx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.MatchPendingReview {
		return match, nil
	}

	now := time.Now().UTC()
	update := portsrepo.MatchStatusUpdate{
		Status:    domain.MatchAccepted,
		Version:   match.Version + 1,
		UpdatedBy: userID,
		UpdatedAt: now,
	}
	if err := s.matchRepo.UpdateMatchStatusInTx(ctx, tx, matchID, update); err != nil {
		return nil, fmt.Errorf("failed to accept match %s: %w", matchID, err)
	}
	if err := s.txnRepo.UpdateTransactionStatusInTx(ctx, tx, match.TxnID, domain.TxnMatched, userID, now); err != nil {
		return nil, fmt.Errorf("failed to mark txn %s matched: %w", match.TxnID, err)
	}
	if err := s.reconcileEntries(ctx, tx, ownerID, match.EntryIDs, userID, now); err != nil {
		return nil, err
	}
	if err := s.matchRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	match.Status = domain.MatchAccepted
	match.Version++
	match.LastUpdatedAt = now
	match.LastUpdatedBy = userID
	logger.Info("Match accepted", slog.String("match_id", matchID), slog.String("txn_id", match.TxnID))
	return match, nil
}

// reconcileEntries flips posted entries to reconciled. Void entries are left
// alone: the match predates the void and the reversal already corrected the
// books.
func (s *reviewService) reconcileEntries(ctx context.Context, tx pgx.Tx, ownerID string, entryIDs []string, userID string, now time.Time) error {
	for _, entryID := range entryIDs {
		entry, err := s.journalRepo.FindEntryByIDForUpdate(ctx, tx, ownerID, entryID)
		if err != nil {
			return fmt.Errorf("failed to load entry %s: %w", entryID, err)
		}
		if entry.Status != domain.EntryPosted {
			continue
		}
		update := portsrepo.EntryStatusUpdate{Status: domain.EntryReconciled, UpdatedBy: userID, UpdatedAt: now}
		if err := s.journalRepo.UpdateEntryStatusInTx(ctx, tx, entryID, update); err != nil {
			return fmt.Errorf("failed to reconcile entry %s: %w", entryID, err)
		}
	}
	return nil
}

// RejectMatch marks a pending match rejected and returns its transaction to
// unmatched for a future run. Same no-op semantics as AcceptMatch outside
// pending_review.
func (s *reviewService) RejectMatch(ctx context.Context, ownerID, matchID, userID string) (*domain.ReconciliationMatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := s.matchRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.matchRepo.Rollback(ctx, tx)

	match, err := s.matchRepo.FindMatchByIDForUpdate(ctx, tx, ownerID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.MatchPendingReview {
		return match, nil
	}

	now := time.Now().UTC()
	update := portsrepo.MatchStatusUpdate{
		Status:    domain.MatchRejected,
		Version:   match.Version + 1,
		UpdatedBy: userID,
		UpdatedAt: now,
	}
	if err := s.matchRepo.UpdateMatchStatusInTx(ctx, tx, matchID, update); err != nil {
		return nil, fmt.Errorf("failed to reject match %s: %w", matchID, err)
	}
	if err := s.txnRepo.UpdateTransactionStatusInTx(ctx, tx, match.TxnID, domain.TxnUnmatched, userID, now); err != nil {
		return nil, fmt.Errorf("failed to return txn %s to unmatched: %w", match.TxnID, err)
	}
	if err := s.matchRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	match.Status = domain.MatchRejected
	match.Version++
	match.LastUpdatedAt = now
	match.LastUpdatedBy = userID
	logger.Info("Match rejected", slog.String("match_id", matchID), slog.String("txn_id", match.TxnID))
	return match, nil
}

// BatchAccept accepts every listed match still pending with score >= MinScore.
// Matches below the floor or no longer pending are skipped with a reason, not
// errored on. The whole batch is refused while unresolved consistency checks
// exist: bulk acceptance must not paper over open findings.
func (s *reviewService) BatchAccept(ctx context.Context, ownerID string, req dto.BatchAcceptRequest, userID string) (*dto.BatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	unresolved, err := s.checkRepo.HasUnresolved(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for unresolved findings: %w", err)
	}
	if unresolved {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrUnresolvedChecks)
	}

	result := &dto.BatchResult{}
	for _, matchID := range req.MatchIDs {
		match, err := s.matchRepo.FindMatchByID(ctx, ownerID, matchID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: "not found"})
				continue
			}
			return nil, err
		}
		if match.Status != domain.MatchPendingReview {
			result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: fmt.Sprintf("status is %s, not pending_review", match.Status)})
			continue
		}
		if match.Score < req.MinScore {
			result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: fmt.Sprintf("score %d below minimum %d", match.Score, req.MinScore)})
			continue
		}
		if _, err := s.AcceptMatch(ctx, ownerID, matchID, userID); err != nil {
			// One bad row must not abort the rest of the batch.
			logger.Warn("Batch accept skipped a match", slog.String("match_id", matchID), slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: fmt.Sprintf("accept failed: %v", err)})
			continue
		}
		result.Processed = append(result.Processed, matchID)
	}
	return result, nil
}

// BatchReject rejects every listed match still pending, skipping the rest with
// a reason.
func (s *reviewService) BatchReject(ctx context.Context, ownerID string, req dto.BatchRejectRequest, userID string) (*dto.BatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	result := &dto.BatchResult{}
	for _, matchID := range req.MatchIDs {
		match, err := s.matchRepo.FindMatchByID(ctx, ownerID, matchID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: "not found"})
				continue
			}
			return nil, err
		}
		if match.Status != domain.MatchPendingReview {
			result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: fmt.Sprintf("status is %s, not pending_review", match.Status)})
			continue
		}
		if _, err := s.RejectMatch(ctx, ownerID, matchID, userID); err != nil {
			logger.Warn("Batch reject skipped a match", slog.String("match_id", matchID), slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, dto.SkippedMatch{MatchID: matchID, Reason: fmt.Sprintf("reject failed: %v", err)})
			continue
		}
		result.Processed = append(result.Processed, matchID)
	}
	return result, nil
}

// ResolveCheck applies approve, reject or flag to a pending consistency check.
func (s *reviewService) ResolveCheck(ctx context.Context, ownerID, checkID string, req dto.ResolveCheckRequest, userID string) (*domain.ConsistencyCheck, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var status domain.CheckStatus
	switch req.Action {
	case "approve":
		status = domain.CheckApproved
	case "reject":
		status = domain.CheckRejected
	case "flag":
		status = domain.CheckFlagged
	default:
		return nil, fmt.Errorf("%w: %s %q", apperrors.ErrValidation, ErrUnknownAction, req.Action)
	}

	tx, err := s.checkRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.checkRepo.Rollback(ctx, tx)

	check, err := s.checkRepo.FindCheckByIDForUpdate(ctx, tx, ownerID, checkID)
	if err != nil {
		return nil, err
	}
	if check.Status.IsResolved() {
		return nil, fmt.Errorf("%w: check %s is already %s", apperrors.ErrConflict, checkID, check.Status)
	}

	now := time.Now().UTC()
	update := portsrepo.CheckResolutionUpdate{
		Status:         status,
		ResolutionNote: req.Note,
		ResolvedBy:     userID,
		ResolvedAt:     now,
	}
	if err := s.checkRepo.UpdateCheckResolutionInTx(ctx, tx, checkID, update); err != nil {
		return nil, fmt.Errorf("failed to resolve check %s: %w", checkID, err)
	}
	if err := s.checkRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	check.Status = status
	check.ResolutionNote = req.Note
	check.ResolvedBy = &userID
	check.ResolvedAt = &now
	check.LastUpdatedAt = now
	check.LastUpdatedBy = userID
	logger.Info("Check resolved", slog.String("check_id", checkID), slog.String("status", string(status)))
	return check, nil
}

// ListPendingMatches lists matches awaiting review.
func (s *reviewService) ListPendingMatches(ctx context.Context, ownerID string, limit int) ([]domain.ReconciliationMatch, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.matchRepo.ListPendingByOwner(ctx, ownerID, limit)
}

// ListChecks lists consistency checks, optionally filtered by status.
func (s *reviewService) ListChecks(ctx context.Context, ownerID string, status *domain.CheckStatus, limit int) ([]domain.ConsistencyCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.checkRepo.ListChecks(ctx, ownerID, status, limit)
}

// HasUnresolvedChecks reports whether any pending consistency check exists for
// the owner.
func (s *reviewService) HasUnresolvedChecks(ctx context.Context, ownerID string) (bool, error) {
	return s.checkRepo.HasUnresolved(ctx, ownerID)
}
