package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
	"github.com/statera-app/statera/internal/middleware"
	"github.com/statera-app/statera/internal/platform/config"
)

// descriptionKeyLen bounds the duplicate grouping key so trailing reference
// numbers on card descriptions do not defeat the grouping.
const descriptionKeyLen = 50

// consistencyService runs the post-hoc batch scans. Every scan compares an
// anchor scope (one statement, or everything) against the owner's full corpus
// and enqueues pending checks; nothing in the ledger is mutated.
type consistencyService struct {
	txnRepo   portsrepo.BankTransactionRepositoryFacade
	checkRepo portsrepo.ConsistencyRepositoryFacade
	detector  portssvc.AnomalyDetector
	cfg       config.ConsistencyConfig
}

// NewConsistencyService creates a new ConsistencyService. The detector may be
// nil, in which case the anomaly scan finds nothing.
func NewConsistencyService(txnRepo portsrepo.BankTransactionRepositoryFacade, checkRepo portsrepo.ConsistencyRepositoryFacade, detector portssvc.AnomalyDetector, cfg config.ConsistencyConfig) portssvc.ConsistencySvcFacade {
	return &consistencyService{
		txnRepo:   txnRepo,
		checkRepo: checkRepo,
		detector:  detector,
		cfg:       cfg,
	}
}

var _ portssvc.ConsistencySvcFacade = (*consistencyService)(nil)

// DetectDuplicates flags groups of transactions sharing direction, amount and
// a compatible description (one 50-char lowercased key a prefix of the other,
// so trailing branch or reference codes do not split a group) within a short
// date span. Re-running the scan is a no-op while a pending check for the
// same group exists.
func (s *consistencyService) DetectDuplicates(ctx context.Context, ownerID string, statementID *string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	anchor, corpus, err := s.loadScopes(ctx, ownerID, statementID)
	if err != nil {
		return 0, err
	}

	// Index the corpus by direction and exact amount; descriptions are
	// compared pairwise since prefix compatibility is not an equality key.
	byKey := make(map[string][]domain.BankTransaction)
	for _, t := range corpus {
		byKey[amountDirectionKey(t)] = append(byKey[amountDirectionKey(t)], t)
	}

	found := 0
	seen := make(map[string]bool)
	for _, t := range anchor {
		anchorKey := descriptionKey(t.Description)
		var candidates []domain.BankTransaction
		for _, other := range byKey[amountDirectionKey(t)] {
			if other.TxnID == t.TxnID {
				continue
			}
			if !compatibleDescriptions(anchorKey, descriptionKey(other.Description)) {
				continue
			}
			if daysBetween(t.TxnDate, other.TxnDate) > s.cfg.DuplicateDateSpanDays {
				continue
			}
			candidates = append(candidates, other)
		}

		// Assemble nearest-first so the whole group, not just each pair
		// against the anchor, stays within the allowed span.
		sort.SliceStable(candidates, func(i, j int) bool {
			di := daysBetween(t.TxnDate, candidates[i].TxnDate)
			dj := daysBetween(t.TxnDate, candidates[j].TxnDate)
			if di != dj {
				return di < dj
			}
			return candidates[i].TxnID < candidates[j].TxnID
		})
		group := []domain.BankTransaction{t}
		minDate, maxDate := t.TxnDate, t.TxnDate
		for _, other := range candidates {
			lo, hi := minDate, maxDate
			if other.TxnDate.Before(lo) {
				lo = other.TxnDate
			}
			if other.TxnDate.After(hi) {
				hi = other.TxnDate
			}
			if daysBetween(lo, hi) > s.cfg.DuplicateDateSpanDays {
				continue
			}
			group = append(group, other)
			minDate, maxDate = lo, hi
		}
		if len(group) < 2 {
			continue
		}

		ids := sortedTxnIDs(group)
		runKey := string(domain.CheckDuplicate) + ":" + strings.Join(ids, ",")
		if seen[runKey] {
			continue
		}
		seen[runKey] = true

		saved, err := s.saveIfNew(ctx, ownerID, userID, domain.ConsistencyCheck{
			CheckType:     domain.CheckDuplicate,
			RelatedTxnIDs: ids,
			Severity:      duplicateSeverity(len(group), daysBetween(minDate, maxDate)),
			Details: domain.CheckDetails{
				Duplicate: &domain.DuplicateDetails{
					Amount:         t.Amount,
					Direction:      t.Direction,
					DescriptionKey: descriptionKey(t.Description),
					DateSpanDays:   daysBetween(minDate, maxDate),
				},
			},
		})
		if err != nil {
			return found, err
		}
		if saved {
			found++
		}
	}

	logger.Info("Duplicate scan finished", slog.String("owner_id", ownerID), slog.Int("found", found))
	return found, nil
}

// DetectTransferPairs flags OUT/IN transaction pairs of equal amount within
// the transfer window: an internal move likely booked as two unrelated
// transactions.
func (s *consistencyService) DetectTransferPairs(ctx context.Context, ownerID string, statementID *string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	anchor, corpus, err := s.loadScopes(ctx, ownerID, statementID)
	if err != nil {
		return 0, err
	}

	found := 0
	seen := make(map[string]bool)
	for _, t := range anchor {
		if t.Direction != domain.TxnOut {
			continue
		}
		for _, other := range corpus {
			if other.Direction != domain.TxnIn || other.TxnID == t.TxnID {
				continue
			}
			if !t.Amount.Sub(other.Amount).Abs().LessThanOrEqual(amountExactTolerance) {
				continue
			}
			gap := daysBetween(t.TxnDate, other.TxnDate)
			if gap > s.cfg.TransferWindowDays {
				continue
			}

			ids := sortedTxnIDs([]domain.BankTransaction{t, other})
			runKey := string(domain.CheckTransferPair) + ":" + strings.Join(ids, ",")
			if seen[runKey] {
				continue
			}
			seen[runKey] = true

			saved, err := s.saveIfNew(ctx, ownerID, userID, domain.ConsistencyCheck{
				CheckType:     domain.CheckTransferPair,
				RelatedTxnIDs: ids,
				Severity:      domain.SeverityMedium,
				Details: domain.CheckDetails{
					TransferPair: &domain.TransferPairDetails{
						OutTxnID: t.TxnID,
						InTxnID:  other.TxnID,
						Amount:   t.Amount,
						GapDays:  gap,
					},
				},
			})
			if err != nil {
				return found, err
			}
			if saved {
				found++
			}
		}
	}

	logger.Info("Transfer pair scan finished", slog.String("owner_id", ownerID), slog.Int("found", found))
	return found, nil
}

// DetectAnomalies forwards each anchor transaction to the external detector
// and records its findings as checks.
func (s *consistencyService) DetectAnomalies(ctx context.Context, ownerID string, statementID *string, userID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if s.detector == nil {
		return 0, nil
	}

	anchor, _, err := s.loadScopes(ctx, ownerID, statementID)
	if err != nil {
		return 0, err
	}

	found := 0
	for _, t := range anchor {
		findings, err := s.detector.Detect(ctx, t)
		if err != nil {
			return found, fmt.Errorf("anomaly detection failed for txn %s: %w", t.TxnID, err)
		}
		for _, f := range findings {
			saved, err := s.saveIfNew(ctx, ownerID, userID, domain.ConsistencyCheck{
				CheckType:     domain.CheckAnomaly,
				RelatedTxnIDs: []string{t.TxnID},
				Severity:      f.Severity,
				Details: domain.CheckDetails{
					Anomaly: &domain.AnomalyDetails{
						AnomalyType: f.AnomalyType,
						Message:     f.Message,
					},
				},
			})
			if err != nil {
				return found, err
			}
			if saved {
				found++
			}
		}
	}

	logger.Info("Anomaly scan finished", slog.String("owner_id", ownerID), slog.Int("found", found))
	return found, nil
}

// RunAll runs the three scans in sequence and aggregates the counts.
func (s *consistencyService) RunAll(ctx context.Context, ownerID string, statementID *string, userID string) (*dto.ConsistencyRunSummary, error) {
	duplicates, err := s.DetectDuplicates(ctx, ownerID, statementID, userID)
	if err != nil {
		return nil, err
	}
	transfers, err := s.DetectTransferPairs(ctx, ownerID, statementID, userID)
	if err != nil {
		return nil, err
	}
	anomalies, err := s.DetectAnomalies(ctx, ownerID, statementID, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ConsistencyRunSummary{
		DuplicatesFound:    duplicates,
		TransferPairsFound: transfers,
		AnomaliesFound:     anomalies,
	}, nil
}

// loadScopes returns the anchor set (statement-scoped when given) and the full
// approved corpus. The anchor is always a subset of the corpus.
func (s *consistencyService) loadScopes(ctx context.Context, ownerID string, statementID *string) (anchor, corpus []domain.BankTransaction, err error) {
	corpus, err = s.txnRepo.ListApproved(ctx, ownerID, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if statementID == nil {
		return corpus, corpus, nil
	}
	for _, t := range corpus {
		if t.StatementID == *statementID {
			anchor = append(anchor, t)
		}
	}
	return anchor, corpus, nil
}

// saveIfNew persists the check unless a pending check with the same type and
// transaction id set already exists. Resolved checks do not block; the same
// pattern reappearing after triage is a new finding.
func (s *consistencyService) saveIfNew(ctx context.Context, ownerID, userID string, check domain.ConsistencyCheck) (bool, error) {
	exists, err := s.checkRepo.ExistsPending(ctx, ownerID, check.CheckType, check.RelatedTxnIDs)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing %s finding: %w", check.CheckType, err)
	}
	if exists {
		return false, nil
	}

	now := time.Now().UTC()
	check.CheckID = uuid.NewString()
	check.OwnerID = ownerID
	check.Status = domain.CheckPending
	check.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	if err := s.checkRepo.SaveCheck(ctx, check); err != nil {
		return false, fmt.Errorf("failed to save %s check: %w", check.CheckType, err)
	}
	return true, nil
}

// amountDirectionKey buckets transactions for the duplicate scan.
func amountDirectionKey(t domain.BankTransaction) string {
	return string(t.Direction) + "|" + t.Amount.String()
}

// descriptionKey lowercases and truncates a statement description for
// grouping.
func descriptionKey(description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	if len(key) > descriptionKeyLen {
		key = key[:descriptionKeyLen]
	}
	return key
}

// compatibleDescriptions treats "NTUC FAIRPRICE" and "NTUC FAIRPRICE #123" as
// the same merchant: equal keys, or one key a prefix of the other.
func compatibleDescriptions(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// duplicateSeverity rates same-day repeats (the classic double-charge) and
// larger groups high; a pair spread across days is plausible and rates medium.
func duplicateSeverity(groupSize, spanDays int) domain.CheckSeverity {
	if groupSize >= 3 || spanDays == 0 {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

func daysBetween(a, b time.Time) int {
	return int(math.Abs(a.Sub(b).Hours()) / 24)
}

func sortedTxnIDs(txns []domain.BankTransaction) []string {
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.TxnID
	}
	sort.Strings(ids)
	return ids
}
