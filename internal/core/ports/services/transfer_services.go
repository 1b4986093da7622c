package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/dto"
)

// TransferSvcFacade books internal transfer legs through the system
// Processing account and detects paired transfers.
type TransferSvcFacade interface {
	// EnsureProcessingAccount returns the owner's Processing account,
	// bootstrapping it on first use.
	EnsureProcessingAccount(ctx context.Context, ownerID, userID string) (*domain.Account, error)
	// RecordTransferOut books DEBIT Processing / CREDIT source.
	RecordTransferOut(ctx context.Context, ownerID string, req dto.TransferLegRequest, userID string) (*domain.JournalEntry, error)
	// RecordTransferIn books DEBIT destination / CREDIT Processing.
	RecordTransferIn(ctx context.Context, ownerID string, req dto.TransferLegRequest, userID string) (*domain.JournalEntry, error)
	// FindTransferPairs pairs each transfer-out entry with its
	// highest-confidence unclaimed transfer-in counterpart scoring at or
	// above threshold.
	FindTransferPairs(ctx context.Context, ownerID string, threshold int) ([]dto.TransferPairResult, error)
	// GetProcessingBalance nets DEBIT-CREDIT over posted/reconciled
	// Processing lines. Non-zero signals unpaired transfers.
	GetProcessingBalance(ctx context.Context, ownerID string) (decimal.Decimal, error)
	// GetUnpairedTransfers lists every Processing-touching line regardless
	// of age; the age annotation is advisory only.
	GetUnpairedTransfers(ctx context.Context, ownerID string) ([]dto.UnpairedTransferLine, error)
}
