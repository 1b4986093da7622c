package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryDraft      EntryStatus = "draft"
	EntryPosted     EntryStatus = "posted"
	EntryReconciled EntryStatus = "reconciled"
	EntryVoid       EntryStatus = "void"
)

// entryTransitions is the table of legal entry status transitions.
// Void is terminal; drafts are the only mutable state.
var entryTransitions = map[EntryStatus][]EntryStatus{
	EntryDraft:      {EntryPosted},
	EntryPosted:     {EntryReconciled, EntryVoid},
	EntryReconciled: {EntryVoid},
	EntryVoid:       {},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	for _, allowed := range entryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EntrySource indicates where a journal entry originated.
type EntrySource string

const (
	SourceManual        EntrySource = "manual"
	SourceBankStatement EntrySource = "bank_statement"
	SourceSystem        EntrySource = "system"
)

// TransactionType indicates whether a journal line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Inverse returns the opposite direction, used when booking reversal entries.
func (t TransactionType) Inverse() TransactionType {
	if t == Debit {
		return Credit
	}
	return Debit
}

// JournalEntry represents a single, balanced financial event composed of
// multiple journal lines.
type JournalEntry struct {
	EntryID         string        `json:"entryID"`   // Primary key (UUID)
	OwnerID         string        `json:"ownerID"`   // Owning tenant (NON-NULL)
	EntryDate       time.Time     `json:"entryDate"` // Date the event occurred
	Memo            string        `json:"memo"`      // User description
	Source          EntrySource   `json:"source"`    // manual, bank_statement or system
	SourceID        *string       `json:"sourceID"`  // Optional reference into the source system
	CurrencyCode    string        `json:"currencyCode"`
	Status          EntryStatus   `json:"status"`
	VoidReason      *string       `json:"voidReason"`      // Set when status = void
	ReversalEntryID *string       `json:"reversalEntryID"` // Entry that reverses this one
	Lines           []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// JournalLine represents a single line item within a journal entry, affecting
// one account. FxRate is required whenever the line currency differs from the
// owner's base currency.
type JournalLine struct {
	LineID       string           `json:"lineID"`  // Primary key (UUID)
	EntryID      string           `json:"entryID"` // FK -> JournalEntry.entryID
	AccountID    string           `json:"accountID"`
	Direction    TransactionType  `json:"direction"`
	Amount       decimal.Decimal  `json:"amount"` // Positive, two decimal places
	CurrencyCode string           `json:"currencyCode"`
	FxRate       *decimal.Decimal `json:"fxRate,omitempty"`
	EventType    string           `json:"eventType,omitempty"` // Optional semantic tag (e.g. transfer_out)
	AuditFields
}
