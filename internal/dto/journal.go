package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// CreateLineRequest is one line of a new journal entry.
type CreateLineRequest struct {
	AccountID    string                 `json:"accountID" binding:"required"`
	Direction    domain.TransactionType `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Amount       decimal.Decimal        `json:"amount" binding:"required"`
	CurrencyCode string                 `json:"currencyCode"` // Defaults to the entry currency
	FxRate       *decimal.Decimal       `json:"fxRate"`
	EventType    string                 `json:"eventType"`
}

// CreateEntryRequest is the payload for creating a draft journal entry.
type CreateEntryRequest struct {
	Date     time.Time           `json:"date" binding:"required"`
	Memo     string              `json:"memo" binding:"required"`
	Currency string              `json:"currencyCode" binding:"required,len=3"`
	Source   domain.EntrySource  `json:"source"` // Defaults to manual
	SourceID *string             `json:"sourceID"`
	Lines    []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// VoidEntryRequest is the payload for voiding a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LineResponse is the API representation of a journal line.
type LineResponse struct {
	LineID       string                 `json:"lineID"`
	AccountID    string                 `json:"accountID"`
	Direction    domain.TransactionType `json:"direction"`
	Amount       decimal.Decimal        `json:"amount"`
	CurrencyCode string                 `json:"currencyCode"`
	FxRate       *decimal.Decimal       `json:"fxRate,omitempty"`
	EventType    string                 `json:"eventType,omitempty"`
}

// EntryResponse is the API representation of a journal entry.
type EntryResponse struct {
	EntryID         string             `json:"entryID"`
	EntryDate       time.Time          `json:"entryDate"`
	Memo            string             `json:"memo"`
	Source          domain.EntrySource `json:"source"`
	SourceID        *string            `json:"sourceID,omitempty"`
	CurrencyCode    string             `json:"currencyCode"`
	Status          domain.EntryStatus `json:"status"`
	VoidReason      *string            `json:"voidReason,omitempty"`
	ReversalEntryID *string            `json:"reversalEntryID,omitempty"`
	Lines           []LineResponse     `json:"lines,omitempty"`
}

// ListEntriesParams holds pagination parameters for listing entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse is a page of journal entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain entry to its API representation.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:         e.EntryID,
		EntryDate:       e.EntryDate,
		Memo:            e.Memo,
		Source:          e.Source,
		SourceID:        e.SourceID,
		CurrencyCode:    e.CurrencyCode,
		Status:          e.Status,
		VoidReason:      e.VoidReason,
		ReversalEntryID: e.ReversalEntryID,
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			LineID:       l.LineID,
			AccountID:    l.AccountID,
			Direction:    l.Direction,
			Amount:       l.Amount,
			CurrencyCode: l.CurrencyCode,
			FxRate:       l.FxRate,
			EventType:    l.EventType,
		})
	}
	return resp
}
