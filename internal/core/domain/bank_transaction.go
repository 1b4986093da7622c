package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnDirection indicates whether money moved into or out of the bank account.
type TxnDirection string

const (
	TxnIn  TxnDirection = "IN"
	TxnOut TxnDirection = "OUT"
)

// TxnStatus indicates the reconciliation state of a bank transaction.
type TxnStatus string

const (
	TxnPending   TxnStatus = "pending"
	TxnMatched   TxnStatus = "matched"
	TxnUnmatched TxnStatus = "unmatched"
)

// BankTransaction is an approved, already-extracted statement transaction.
// The engine consumes these rows; it never re-parses raw statements and never
// owns their extraction confidence.
type BankTransaction struct {
	TxnID       string          `json:"txnID"` // Primary key (UUID)
	OwnerID     string          `json:"ownerID"`
	StatementID string          `json:"statementID"`
	TxnDate     time.Time       `json:"txnDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // Positive; sign carried by Direction
	Direction   TxnDirection    `json:"direction"`
	Status      TxnStatus       `json:"status"`
	Confidence  float64         `json:"confidence"` // Extraction confidence, informational
	AuditFields
}
