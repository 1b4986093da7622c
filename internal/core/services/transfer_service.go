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

var ErrTransferAmountNotPositive = errors.New("transfer amount must be positive")


// transferService books internal transfer legs through the system Processing
// account and pairs them back up.
type transferService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	ledger      portssvc.LedgerSvcFacade
	cfg         config.MatchingConfig
	baseCcy     string
}

// NewTransferService creates a new TransferService.
func NewTransferService(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, ledger portssvc.LedgerSvcFacade, cfg config.MatchingConfig, baseCurrency string) portssvc.TransferSvcFacade {
	return &transferService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		ledger:      ledger,
		cfg:         cfg,
		baseCcy:     baseCurrency,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// EnsureProcessingAccount returns the owner's Processing account, creating it
// on first use. The account is system-owned and cannot be created through the
// public account API.
func (s *transferService) EnsureProcessingAccount(ctx context.Context, ownerID, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindSystemAccountByName(ctx, ownerID, domain.ProcessingAccountName)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up processing account: %w", err)
	}

	now := time.Now().UTC()
	created := domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      ownerID,
		Name:         domain.ProcessingAccountName,
		AccountType:  domain.Asset,
		CurrencyCode: s.baseCcy,
		Description:  "System clearing account for in-flight internal transfers",
		IsActive:     true,
		IsSystem:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, created); err != nil {
		// A concurrent bootstrap may have won the race on the unique name.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.accountRepo.FindSystemAccountByName(ctx, ownerID, domain.ProcessingAccountName)
		}
		return nil, fmt.Errorf("failed to create processing account: %w", err)
	}

	logger.Info("Processing account bootstrapped", slog.String("owner_id", ownerID), slog.String("account_id", created.AccountID))
	return &created, nil
}

// RecordTransferOut books the first leg of an internal transfer: money leaves
// the source account and parks in Processing (DEBIT Processing / CREDIT
// source). The entry is posted immediately.
func (s *transferService) RecordTransferOut(ctx context.Context, ownerID string, req dto.TransferLegRequest, userID string) (*domain.JournalEntry, error) {
	return s.recordLeg(ctx, ownerID, req, userID, true)
}

// RecordTransferIn books the second leg: money arrives at the destination
// account out of Processing (DEBIT destination / CREDIT Processing).
func (s *transferService) RecordTransferIn(ctx context.Context, ownerID string, req dto.TransferLegRequest, userID string) (*domain.JournalEntry, error) {
	return s.recordLeg(ctx, ownerID, req, userID, false)
}

func (s *transferService) recordLeg(ctx context.Context, ownerID string, req dto.TransferLegRequest, userID string, outbound bool) (*domain.JournalEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrTransferAmountNotPositive)
	}

	processing, err := s.EnsureProcessingAccount(ctx, ownerID, userID)
	if err != nil {
		return nil, err
	}

	processingDirection := domain.Debit
	eventType := "TRANSFER_OUT"
	if !outbound {
		processingDirection = domain.Credit
		eventType = "TRANSFER_IN"
	}

	entryReq := dto.CreateEntryRequest{
		Date:     req.Date,
		Memo:     req.Memo,
		Currency: s.baseCcy,
		Source:   domain.SourceSystem,
		Lines: []dto.CreateLineRequest{
			{
				AccountID: processing.AccountID,
				Direction: processingDirection,
				Amount:    req.Amount,
				EventType: eventType,
			},
			{
				AccountID: req.AccountID,
				Direction: processingDirection.Inverse(),
				Amount:    req.Amount,
				EventType: eventType,
			},
		},
	}

	entry, err := s.ledger.CreateEntry(ctx, ownerID, entryReq, userID)
	if err != nil {
		return nil, err
	}
	return s.ledger.PostEntry(ctx, ownerID, entry.EntryID, userID)
}

// FindTransferPairs greedily pairs each outbound Processing leg with its
// best unclaimed inbound counterpart of the same amount within the configured
// window. Legs are walked in (date, entry ID) order so repeated calls produce
// the same pairing.
func (s *transferService) FindTransferPairs(ctx context.Context, ownerID string, threshold int) ([]dto.TransferPairResult, error) {
	if threshold <= 0 {
		threshold = s.cfg.TransferPairThreshold
	}

	outs, ins, err := s.processingLegs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]bool, len(ins))
	var pairs []dto.TransferPairResult
	for _, out := range outs {
		bestIdx := -1
		bestScore := 0
		for i, in := range ins {
			if claimed[in.Line.LineID] {
				continue
			}
			score := s.pairScore(out, in)
			if score < threshold {
				continue
			}
			if score > bestScore || (score == bestScore && bestIdx >= 0 && in.Entry.EntryID < ins[bestIdx].Entry.EntryID) {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx < 0 {
			continue
		}
		claimed[ins[bestIdx].Line.LineID] = true
		pairs = append(pairs, dto.TransferPairResult{
			OutEntryID: out.Entry.EntryID,
			InEntryID:  ins[bestIdx].Entry.EntryID,
			Amount:     out.Line.Amount,
			Score:      bestScore,
		})
	}
	return pairs, nil
}

// pairScore grades an OUT/IN leg pairing with the amount, date and
// description factors of the matching scorer; history has no meaning between
// two legs of the same transfer and contributes nothing. An exact amount
// match inside the window is the entry ticket, then the memos grade the
// confidence. Zero means not a candidate.
func (s *transferService) pairScore(out, in domain.ProcessingLeg) int {
	if !out.Line.Amount.Sub(in.Line.Amount).Abs().LessThanOrEqual(amountExactTolerance) {
		return 0
	}
	days := int(math.Abs(in.Entry.EntryDate.Sub(out.Entry.EntryDate).Hours()) / 24)
	if days > s.cfg.TransferPairWindowDays {
		return 0
	}
	weighted := weightAmount*amountScore(out.Line.Amount, in.Line.Amount) +
		weightDate*dateScore(out.Entry.EntryDate, in.Entry.EntryDate, s.cfg.TransferPairWindowDays) +
		weightDescription*100*textmatch.DescriptionSimilarity(out.Entry.Memo, in.Entry.Memo)
	return int(math.Round(weighted))
}

// GetProcessingBalance nets debit minus credit over posted/reconciled
// Processing lines. Anything non-zero means a transfer is still in flight.
func (s *transferService) GetProcessingBalance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	processing, err := s.accountRepo.FindSystemAccountByName(ctx, ownerID, domain.ProcessingAccountName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No processing account yet means no transfers were ever booked.
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to look up processing account: %w", err)
	}
	sums, err := s.journalRepo.SumLinesByAccount(ctx, processing.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum processing lines: %w", err)
	}
	return sums.DebitTotal.Sub(sums.CreditTotal), nil
}

// GetUnpairedTransfers returns every Processing leg not claimed by a pairing
// at the configured threshold, however old it is. The age annotation is for
// the reviewer; stale legs are surfaced, never dropped.
func (s *transferService) GetUnpairedTransfers(ctx context.Context, ownerID string) ([]dto.UnpairedTransferLine, error) {
	outs, ins, err := s.processingLegs(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	pairs, err := s.FindTransferPairs(ctx, ownerID, s.cfg.TransferPairThreshold)
	if err != nil {
		return nil, err
	}
	pairedOut := make(map[string]bool, len(pairs))
	pairedIn := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		pairedOut[p.OutEntryID] = true
		pairedIn[p.InEntryID] = true
	}

	now := time.Now().UTC()
	var unpaired []dto.UnpairedTransferLine
	appendLeg := func(leg domain.ProcessingLeg) {
		unpaired = append(unpaired, dto.UnpairedTransferLine{
			EntryID:   leg.Entry.EntryID,
			LineID:    leg.Line.LineID,
			Direction: leg.Line.Direction,
			Amount:    leg.Line.Amount,
			EntryDate: leg.Entry.EntryDate,
			AgeDays:   int(now.Sub(leg.Entry.EntryDate).Hours() / 24),
		})
	}
	for _, out := range outs {
		if !pairedOut[out.Entry.EntryID] {
			appendLeg(out)
		}
	}
	for _, in := range ins {
		if !pairedIn[in.Entry.EntryID] {
			appendLeg(in)
		}
	}
	return unpaired, nil
}

// processingLegs loads every posted/reconciled Processing leg of the owner,
// split by side and sorted by (entry date, entry ID).
func (s *transferService) processingLegs(ctx context.Context, ownerID string) (outs, ins []domain.ProcessingLeg, err error) {
	processing, err := s.accountRepo.FindSystemAccountByName(ctx, ownerID, domain.ProcessingAccountName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to look up processing account: %w", err)
	}

	legs, err := s.journalRepo.FindProcessingLegs(ctx, processing.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load processing legs: %w", err)
	}
	sort.Slice(legs, func(i, j int) bool {
		if !legs[i].Entry.EntryDate.Equal(legs[j].Entry.EntryDate) {
			return legs[i].Entry.EntryDate.Before(legs[j].Entry.EntryDate)
		}
		return legs[i].Entry.EntryID < legs[j].Entry.EntryID
	})
	for _, leg := range legs {
		if leg.Line.Direction == domain.Debit {
			outs = append(outs, leg)
		} else {
			ins = append(ins, leg)
		}
	}
	return outs, ins, nil
}
