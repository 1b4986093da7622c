package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckType discriminates the three consistency scans.
type CheckType string

const (
	CheckDuplicate    CheckType = "DUPLICATE"
	CheckTransferPair CheckType = "TRANSFER_PAIR"
	CheckAnomaly      CheckType = "ANOMALY"
)

// CheckStatus indicates the review state of a consistency finding.
type CheckStatus string

const (
	CheckPending  CheckStatus = "pending"
	CheckApproved CheckStatus = "approved"
	CheckRejected CheckStatus = "rejected"
	CheckFlagged  CheckStatus = "flagged"
)

// IsResolved reports whether the check has left the pending state. Resolved
// checks are immutable except for their resolution fields.
func (s CheckStatus) IsResolved() bool {
	return s != CheckPending
}

// CheckSeverity grades how urgently a finding needs triage.
type CheckSeverity string

const (
	SeverityLow    CheckSeverity = "low"
	SeverityMedium CheckSeverity = "medium"
	SeverityHigh   CheckSeverity = "high"
)

// CheckDetails is the typed payload persisted with a consistency check. At
// most one of the three sections is populated, matching CheckType.
type CheckDetails struct {
	Duplicate    *DuplicateDetails    `json:"duplicate,omitempty"`
	TransferPair *TransferPairDetails `json:"transferPair,omitempty"`
	Anomaly      *AnomalyDetails      `json:"anomaly,omitempty"`
}

// DuplicateDetails describes a group of near-identical transactions.
type DuplicateDetails struct {
	Amount         decimal.Decimal `json:"amount"`
	Direction      TxnDirection    `json:"direction"`
	DescriptionKey string          `json:"descriptionKey"` // First 50 chars, lowercased
	DateSpanDays   int             `json:"dateSpanDays"`
}

// TransferPairDetails describes an OUT/IN transaction pair that looks like an
// internal transfer booked as two unrelated transactions.
type TransferPairDetails struct {
	OutTxnID string          `json:"outTxnID"`
	InTxnID  string          `json:"inTxnID"`
	Amount   decimal.Decimal `json:"amount"`
	GapDays  int             `json:"gapDays"`
}

// AnomalyDetails carries a finding from the external anomaly collaborator.
type AnomalyDetails struct {
	AnomalyType string `json:"anomalyType"`
	Message     string `json:"message"`
}

// ConsistencyCheck is a reviewable finding produced by a consistency scan.
// RelatedTxnIDs is kept sorted: together with CheckType and pending status it
// forms the natural idempotency key that makes re-running scans safe.
type ConsistencyCheck struct {
	CheckID        string        `json:"checkID"` // Primary key (UUID)
	OwnerID        string        `json:"ownerID"`
	CheckType      CheckType     `json:"checkType"`
	Status         CheckStatus   `json:"status"`
	RelatedTxnIDs  []string      `json:"relatedTxnIDs"` // Sorted
	Details        CheckDetails  `json:"details"`
	Severity       CheckSeverity `json:"severity"`
	ResolutionNote *string       `json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
	ResolvedBy     *string       `json:"resolvedBy,omitempty"`
	AuditFields
}
