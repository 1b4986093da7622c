package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
	"github.com/statera-app/statera/internal/platform/config"
	"github.com/statera-app/statera/internal/utils/textmatch"
)

// Factor weights of the composite confidence score.
const (
	weightAmount      = 0.40
	weightDate        = 0.20
	weightDescription = 0.30
	weightHistory     = 0.10

	manyToOneBonus = 10.0
	// comboMaxEntries bounds the combination search for split settlements.
	comboMaxEntries = 3
)

// Plausibility multipliers applied after weighting. A direction mismatch on an
// asset account means the money flowed the wrong way for this pairing, so the
// score is damped rather than zeroed, leaving rescue by human review possible.
const (
	plausibilityCoherent = 1.0
	plausibilityUnknown  = 0.85
	plausibilityContra   = 0.6
)

var amountExactTolerance = decimal.New(1, -2) // 0.01

// matchingService scores approved bank transactions against candidate journal
// entries and persists the resulting matches.
type matchingService struct {
	txnRepo     portsrepo.BankTransactionRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	matchRepo   portsrepo.MatchRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	cfg         config.MatchingConfig
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	txnRepo portsrepo.BankTransactionRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	matchRepo portsrepo.MatchRepositoryWithTx,
	accountRepo portsrepo.AccountRepositoryFacade,
	cfg config.MatchingConfig,
) portssvc.MatchingSvcFacade {
	return &matchingService{
		txnRepo:     txnRepo,
		journalRepo: journalRepo,
		matchRepo:   matchRepo,
		accountRepo: accountRepo,
		cfg:         cfg,
	}
}

var _ portssvc.MatchingSvcFacade = (*matchingService)(nil)

// scoredCandidate is one journal entry (or split combination) with its
// composite score.
type scoredCandidate struct {
	entryIDs  []string
	score     int
	breakdown domain.ScoreBreakdown
}

// Reconcile runs the matching algorithm over the owner's undecided
// transactions. Transactions already holding an active match are skipped, so
// re-running after a partial failure is safe.
func (s *matchingService) Reconcile(ctx context.Context, ownerID string, statementID *string, userID string) (*dto.MatchRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txns, err := s.txnRepo.ListForMatching(ctx, ownerID, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for matching: %w", err)
	}

	summary := &dto.MatchRunSummary{Scanned: len(txns)}
	for i := range txns {
		txn := txns[i]

		_, err := s.matchRepo.FindActiveMatchByTxn(ctx, txn.TxnID)
		if err == nil {
			summary.Skipped++
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up active match for txn %s: %w", txn.TxnID, err)
		}

		best, err := s.scoreTransaction(ctx, txn)
		if err != nil {
			return nil, err
		}

		switch {
		case best != nil && best.score >= s.cfg.AutoAcceptThreshold:
			if err := s.recordMatch(ctx, txn, *best, domain.MatchAutoAccepted, userID); err != nil {
				return nil, err
			}
			summary.AutoAccepted++
		case best != nil && best.score >= s.cfg.ReviewThreshold:
			if err := s.recordMatch(ctx, txn, *best, domain.MatchPendingReview, userID); err != nil {
				return nil, err
			}
			summary.PendingReview++
		default:
			now := time.Now().UTC()
			if err := s.txnRepo.UpdateTransactionStatus(ctx, txn.TxnID, domain.TxnUnmatched, userID, now); err != nil {
				return nil, fmt.Errorf("failed to mark txn %s unmatched: %w", txn.TxnID, err)
			}
			summary.Unmatched++
		}
	}

	logger.Info("Reconciliation run finished",
		slog.String("owner_id", ownerID),
		slog.Int("scanned", summary.Scanned),
		slog.Int("auto_accepted", summary.AutoAccepted),
		slog.Int("pending_review", summary.PendingReview),
		slog.Int("unmatched", summary.Unmatched),
		slog.Int("skipped", summary.Skipped))
	return summary, nil
}

// scoreTransaction returns the best-scoring candidate for the transaction, or
// nil when no candidate scores above zero. Candidates are evaluated in entry
// ID order and ties keep the first, so repeated runs over the same data pick
// the same winner.
func (s *matchingService) scoreTransaction(ctx context.Context, txn domain.BankTransaction) (*scoredCandidate, error) {
	window := time.Duration(s.cfg.DateWindowDays) * 24 * time.Hour
	dateFrom := txn.TxnDate.Add(-window)
	dateTo := txn.TxnDate.Add(window)

	candidates, err := s.journalRepo.FindCandidateEntries(ctx, txn.OwnerID, txn.Amount, txn.TxnDate, dateFrom, dateTo, s.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate entries for txn %s: %w", txn.TxnID, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EntryID < candidates[j].EntryID
	})

	entryIDs := make([]string, len(candidates))
	for i := range candidates {
		entryIDs[i] = candidates[i].EntryID
	}
	linesByEntry, err := s.journalRepo.FindLinesByEntryIDs(ctx, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate lines: %w", err)
	}

	hasHistory, err := s.matchRepo.HasAcceptedSimilar(ctx, txn.OwnerID, txn.Amount, textmatch.Normalize(txn.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to look up match history: %w", err)
	}
	historyScore := 0.0
	if hasHistory {
		historyScore = 100.0
	}

	var best *scoredCandidate
	for i := range candidates {
		entry := candidates[i]
		entryAmount := entryTotal(linesByEntry[entry.EntryID])

		plausibility, err := s.plausibility(ctx, txn, linesByEntry[entry.EntryID])
		if err != nil {
			return nil, err
		}

		breakdown := domain.ScoreBreakdown{
			Amount:      amountScore(txn.Amount, entryAmount),
			Date:        dateScore(txn.TxnDate, entry.EntryDate, s.cfg.DateWindowDays),
			Description: 100 * textmatch.DescriptionSimilarity(txn.Description, entry.Memo),
			History:     historyScore,
		}
		score := composite(breakdown, plausibility, false)
		if score <= 0 {
			continue
		}
		if best == nil || score > best.score {
			best = &scoredCandidate{entryIDs: []string{entry.EntryID}, score: score, breakdown: breakdown}
		}
	}

	// A split settlement: several entries jointly covering one statement
	// line. Only attempted when no single entry already clears auto-accept.
	if best == nil || best.score < s.cfg.AutoAcceptThreshold {
		combo, err := s.scoreCombination(ctx, txn, candidates, linesByEntry, historyScore)
		if err != nil {
			return nil, err
		}
		if combo != nil && (best == nil || combo.score > best.score) {
			best = combo
		}
	}
	return best, nil
}

// scoreCombination searches 2..3-entry combinations whose amounts sum to the
// transaction amount within tolerance, returning the best with the
// many-to-one bonus applied. Candidates arrive sorted by entry ID, so the
// first exact combination found is deterministic.
func (s *matchingService) scoreCombination(ctx context.Context, txn domain.BankTransaction, candidates []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, historyScore float64) (*scoredCandidate, error) {
	var best *scoredCandidate
	n := len(candidates)

	var walk func(start int, picked []int, sum decimal.Decimal) error
	walk = func(start int, picked []int, sum decimal.Decimal) error {
		if len(picked) >= 2 && sum.Sub(txn.Amount).Abs().LessThanOrEqual(amountExactTolerance) {
			combo, err := s.buildCombination(ctx, txn, candidates, linesByEntry, picked, historyScore)
			if err != nil {
				return err
			}
			if best == nil || combo.score > best.score {
				best = combo
			}
			return nil
		}
		if len(picked) == comboMaxEntries || sum.GreaterThan(txn.Amount.Add(amountExactTolerance)) {
			return nil
		}
		for i := start; i < n; i++ {
			entryAmount := entryTotal(linesByEntry[candidates[i].EntryID])
			if err := walk(i+1, append(picked, i), sum.Add(entryAmount)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, nil, decimal.Zero); err != nil {
		return nil, err
	}
	return best, nil
}

func (s *matchingService) buildCombination(ctx context.Context, txn domain.BankTransaction, candidates []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, picked []int, historyScore float64) (*scoredCandidate, error) {
	entryIDs := make([]string, len(picked))
	dateSub := 100.0
	descSub := 0.0
	plausibility := plausibilityCoherent
	for i, idx := range picked {
		entry := candidates[idx]
		entryIDs[i] = entry.EntryID

		// The combination is only as close in time as its furthest member.
		if d := dateScore(txn.TxnDate, entry.EntryDate, s.cfg.DateWindowDays); d < dateSub {
			dateSub = d
		}
		if d := 100 * textmatch.DescriptionSimilarity(txn.Description, entry.Memo); d > descSub {
			descSub = d
		}
		p, err := s.plausibility(ctx, txn, linesByEntry[entry.EntryID])
		if err != nil {
			return nil, err
		}
		if p < plausibility {
			plausibility = p
		}
	}

	breakdown := domain.ScoreBreakdown{
		Amount:         100, // Combinations are only formed on an exact sum
		Date:           dateSub,
		Description:    descSub,
		History:        historyScore,
		ManyToOneBonus: manyToOneBonus,
	}
	return &scoredCandidate{
		entryIDs:  entryIDs,
		score:     composite(breakdown, plausibility, true),
		breakdown: breakdown,
	}, nil
}

// plausibility grades whether the cash flow direction of the statement line
// agrees with the asset-account leg of the entry.
func (s *matchingService) plausibility(ctx context.Context, txn domain.BankTransaction, lines []domain.JournalLine) (float64, error) {
	accountIDs := make([]string, 0, len(lines))
	for _, l := range lines {
		accountIDs = append(accountIDs, l.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, txn.OwnerID, uniqueStrings(accountIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch accounts for plausibility check: %w", err)
	}

	expected := domain.Credit // Money leaving the bank credits the asset account
	if txn.Direction == domain.TxnIn {
		expected = domain.Debit
	}

	sawAsset := false
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok || acc.AccountType != domain.Asset {
			continue
		}
		sawAsset = true
		if l.Direction == expected {
			return plausibilityCoherent, nil
		}
	}
	if sawAsset {
		return plausibilityContra, nil
	}
	return plausibilityUnknown, nil
}

// recordMatch persists the match and, on auto-accept, flips the transaction to
// matched and the entries to reconciled in the same database transaction.
func (s *matchingService) recordMatch(ctx context.Context, txn domain.BankTransaction, cand scoredCandidate, status domain.MatchStatus, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	match := domain.ReconciliationMatch{
		MatchID:   uuid.NewString(),
		OwnerID:   txn.OwnerID,
		TxnID:     txn.TxnID,
		EntryIDs:  cand.entryIDs,
		Score:     cand.score,
		Breakdown: cand.breakdown,
		Status:    status,
		Version:   1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	tx, err := s.matchRepo.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.matchRepo.Rollback(ctx, tx)

	if err := s.matchRepo.SaveMatchInTx(ctx, tx, match); err != nil {
		return fmt.Errorf("failed to save match for txn %s: %w", txn.TxnID, err)
	}

	if status == domain.MatchAutoAccepted {
		if err := s.txnRepo.UpdateTransactionStatusInTx(ctx, tx, txn.TxnID, domain.TxnMatched, userID, now); err != nil {
			return fmt.Errorf("failed to mark txn %s matched: %w", txn.TxnID, err)
		}
		update := portsrepo.EntryStatusUpdate{Status: domain.EntryReconciled, UpdatedBy: userID, UpdatedAt: now}
		for _, entryID := range cand.entryIDs {
			if err := s.journalRepo.UpdateEntryStatusInTx(ctx, tx, entryID, update); err != nil {
				return fmt.Errorf("failed to reconcile entry %s: %w", entryID, err)
			}
		}
	}

	if err := s.matchRepo.Commit(ctx, tx); err != nil {
		return err
	}

	logger.Info("Match recorded",
		slog.String("match_id", match.MatchID),
		slog.String("txn_id", txn.TxnID),
		slog.Int("score", match.Score),
		slog.String("status", string(status)))
	return nil
}

// composite applies the factor weights, the plausibility multiplier and the
// many-to-one bonus, rounding to an int capped at 100.
func composite(b domain.ScoreBreakdown, plausibility float64, manyToOne bool) int {
	weighted := weightAmount*b.Amount + weightDate*b.Date + weightDescription*b.Description + weightHistory*b.History
	score := weighted * plausibility
	if manyToOne {
		score += b.ManyToOneBonus
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}

// amountScore grades amount proximity in bands: exact within 0.01 is 100, a
// near miss (1% or 0.10, whichever is larger) is 90, up to 4% off is 70, then
// a linear decline to zero at 20% off.
func amountScore(txnAmount, entryAmount decimal.Decimal) float64 {
	delta := txnAmount.Sub(entryAmount).Abs()
	if delta.LessThanOrEqual(amountExactTolerance) {
		return 100
	}
	if txnAmount.IsZero() {
		return 0
	}
	nearMiss := txnAmount.Mul(decimal.New(1, -2)).Abs() // 1%
	if floor := decimal.New(1, -1); nearMiss.LessThan(floor) {
		nearMiss = floor
	}
	if delta.LessThanOrEqual(nearMiss) {
		return 90
	}
	pct, _ := delta.Div(txnAmount.Abs()).Float64()
	if pct <= 0.04 {
		return 70
	}
	if pct >= 0.20 {
		return 0
	}
	return 70 * (0.20 - pct) / (0.20 - 0.04)
}

// dateScore grades date proximity: same day 100, within three days 90, within
// the configured window 70, outside it 0.
func dateScore(txnDate, entryDate time.Time, windowDays int) float64 {
	days := int(math.Abs(txnDate.Sub(entryDate).Hours()) / 24)
	switch {
	case days == 0:
		return 100
	case days <= 3:
		return 90
	case days <= windowDays:
		return 70
	default:
		return 0
	}
}

// entryTotal is the entry amount: the debit total of its lines, which for a
// balanced entry equals the credit total.
func entryTotal(lines []domain.JournalLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Direction == domain.Debit {
			total = total.Add(l.Amount)
		}
	}
	return total
}
