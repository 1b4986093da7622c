package mapping

import (
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/models"
)

// ToModelBankTransaction converts a domain BankTransaction to its model form.
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		TxnID:       d.TxnID,
		OwnerID:     d.OwnerID,
		StatementID: d.StatementID,
		TxnDate:     d.TxnDate,
		Description: d.Description,
		Amount:      d.Amount,
		Direction:   string(d.Direction),
		Status:      string(d.Status),
		Confidence:  d.Confidence,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankTransaction converts a model BankTransaction to its domain form.
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		TxnID:       m.TxnID,
		OwnerID:     m.OwnerID,
		StatementID: m.StatementID,
		TxnDate:     m.TxnDate,
		Description: m.Description,
		Amount:      m.Amount,
		Direction:   domain.TxnDirection(m.Direction),
		Status:      domain.TxnStatus(m.Status),
		Confidence:  m.Confidence,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
