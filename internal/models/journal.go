package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus mirrors the status column of journal_entries.
type EntryStatus string

// JournalEntry is the row shape of the journal_entries table.
type JournalEntry struct {
	EntryID         string      `json:"entryID"` // Primary key (UUID)
	OwnerID         string      `json:"ownerID"`
	EntryDate       time.Time   `json:"entryDate"`
	Memo            string      `json:"memo"`
	Source          string      `json:"source"`
	SourceID        *string     `json:"sourceID"`
	CurrencyCode    string      `json:"currencyCode"`
	Status          EntryStatus `json:"status"`
	VoidReason      *string     `json:"voidReason"`
	ReversalEntryID *string     `json:"reversalEntryID"`
	AuditFields
}

// JournalLine is the row shape of the journal_lines table.
type JournalLine struct {
	LineID       string           `json:"lineID"` // Primary key (UUID)
	EntryID      string           `json:"entryID"`
	AccountID    string           `json:"accountID"`
	Direction    string           `json:"direction"`
	Amount       decimal.Decimal  `json:"amount"`
	CurrencyCode string           `json:"currencyCode"`
	FxRate       *decimal.Decimal `json:"fxRate"`
	EventType    string           `json:"eventType"`
	AuditFields
}
