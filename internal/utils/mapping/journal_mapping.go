package mapping

import (
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/models"
)

// ToModelEntry converts a domain JournalEntry to a model JournalEntry.
// Lines are persisted separately.
func ToModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		OwnerID:         d.OwnerID,
		EntryDate:       d.EntryDate,
		Memo:            d.Memo,
		Source:          string(d.Source),
		SourceID:        d.SourceID,
		CurrencyCode:    d.CurrencyCode,
		Status:          models.EntryStatus(d.Status),
		VoidReason:      d.VoidReason,
		ReversalEntryID: d.ReversalEntryID,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntry converts a model JournalEntry to a domain JournalEntry.
func ToDomainEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:         m.EntryID,
		OwnerID:         m.OwnerID,
		EntryDate:       m.EntryDate,
		Memo:            m.Memo,
		Source:          domain.EntrySource(m.Source),
		SourceID:        m.SourceID,
		CurrencyCode:    m.CurrencyCode,
		Status:          domain.EntryStatus(m.Status),
		VoidReason:      m.VoidReason,
		ReversalEntryID: m.ReversalEntryID,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLine converts a domain JournalLine to a model JournalLine.
func ToModelLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:       d.LineID,
		EntryID:      d.EntryID,
		AccountID:    d.AccountID,
		Direction:    string(d.Direction),
		Amount:       d.Amount,
		CurrencyCode: d.CurrencyCode,
		FxRate:       d.FxRate,
		EventType:    d.EventType,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLine converts a model JournalLine to a domain JournalLine.
func ToDomainLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:       m.LineID,
		EntryID:      m.EntryID,
		AccountID:    m.AccountID,
		Direction:    domain.TransactionType(m.Direction),
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		FxRate:       m.FxRate,
		EventType:    m.EventType,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLineSlice converts a slice of model lines to domain lines.
func ToDomainLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLine(m)
	}
	return ds
}
