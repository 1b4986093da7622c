package domain

import "github.com/shopspring/decimal"

// LineSums is a debit/credit aggregation over journal lines of
// posted/reconciled entries.
type LineSums struct {
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
}

// ProcessingLeg is a journal entry together with its line touching the
// Processing account. The line's direction tells the transfer side: Processing
// debited means transfer-out, credited means transfer-in.
type ProcessingLeg struct {
	Entry JournalEntry `json:"entry"`
	Line  JournalLine  `json:"line"`
}

// EquationResult is the outcome of a system-wide accounting equation check.
type EquationResult struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Difference  decimal.Decimal `json:"difference"`
	Balanced    bool            `json:"balanced"`
}

// AnomalyFinding is one result from the external anomaly collaborator for a
// single bank transaction.
type AnomalyFinding struct {
	AnomalyType string        `json:"anomalyType"`
	Message     string        `json:"message"`
	Severity    CheckSeverity `json:"severity"`
}
