package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// TransferLegRequest books one leg of an internal transfer through the
// Processing account.
type TransferLegRequest struct {
	AccountID string          `json:"accountID" binding:"required"` // Source for OUT, destination for IN
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Date      time.Time       `json:"date" binding:"required"`
	Memo      string          `json:"memo" binding:"required"`
}

// TransferPairResult is one OUT/IN entry pairing found by the transfer
// manager.
type TransferPairResult struct {
	OutEntryID string          `json:"outEntryID"`
	InEntryID  string          `json:"inEntryID"`
	Amount     decimal.Decimal `json:"amount"`
	Score      int             `json:"score"`
}

// UnpairedTransferLine is one Processing-account line still awaiting its
// counterpart. AgeDays is advisory; old legs are surfaced, never filtered.
type UnpairedTransferLine struct {
	EntryID   string                 `json:"entryID"`
	LineID    string                 `json:"lineID"`
	Direction domain.TransactionType `json:"direction"`
	Amount    decimal.Decimal        `json:"amount"`
	EntryDate time.Time              `json:"entryDate"`
	AgeDays   int                    `json:"ageDays"`
}

// ProcessingBalanceResponse reports the net Processing account position. A
// non-zero balance signals unpaired transfers.
type ProcessingBalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}
