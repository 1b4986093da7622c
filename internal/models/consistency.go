package models

import "time"

// ConsistencyCheck is the row shape of the consistency_checks table.
// RelatedTxnIDs maps to a sorted text[] column and Details to a jsonb column.
type ConsistencyCheck struct {
	CheckID        string     `json:"checkID"` // Primary key (UUID)
	OwnerID        string     `json:"ownerID"`
	CheckType      string     `json:"checkType"`
	Status         string     `json:"status"`
	RelatedTxnIDs  []string   `json:"relatedTxnIDs"`
	Details        []byte     `json:"details"` // jsonb payload
	Severity       string     `json:"severity"`
	ResolutionNote *string    `json:"resolutionNote"`
	ResolvedAt     *time.Time `json:"resolvedAt"`
	ResolvedBy     *string    `json:"resolvedBy"`
	AuditFields
}
