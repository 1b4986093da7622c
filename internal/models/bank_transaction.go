package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is the row shape of the bank_transactions table.
type BankTransaction struct {
	TxnID       string          `json:"txnID"` // Primary key (UUID)
	OwnerID     string          `json:"ownerID"`
	StatementID string          `json:"statementID"`
	TxnDate     time.Time       `json:"txnDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   string          `json:"direction"`
	Status      string          `json:"status"`
	Confidence  float64         `json:"confidence"` // Extraction confidence, 0..1
	AuditFields
}
