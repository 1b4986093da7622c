package dto

import (
	"time"

	"github.com/statera-app/statera/internal/core/domain"
)

// ConsistencyRunRequest triggers consistency scans, optionally scoped to a
// statement ("anchor" set). Comparison always runs against the full corpus.
type ConsistencyRunRequest struct {
	StatementID *string `json:"statementID"`
}

// ConsistencyRunSummary reports the findings of one scan run.
type ConsistencyRunSummary struct {
	DuplicatesFound    int `json:"duplicatesFound"`
	TransferPairsFound int `json:"transferPairsFound"`
	AnomaliesFound     int `json:"anomaliesFound"`
}

// UnresolvedChecksResponse answers the pre-batch-accept gate query.
type UnresolvedChecksResponse struct {
	HasUnresolved bool `json:"hasUnresolved"`
}

// CheckResponse is the API representation of a consistency check.
type CheckResponse struct {
	CheckID        string               `json:"checkID"`
	CheckType      domain.CheckType     `json:"checkType"`
	Status         domain.CheckStatus   `json:"status"`
	RelatedTxnIDs  []string             `json:"relatedTxnIDs"`
	Details        domain.CheckDetails  `json:"details"`
	Severity       domain.CheckSeverity `json:"severity"`
	ResolutionNote *string              `json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time           `json:"resolvedAt,omitempty"`
}

// ToCheckResponse converts a domain check to its API representation.
func ToCheckResponse(c *domain.ConsistencyCheck) CheckResponse {
	return CheckResponse{
		CheckID:        c.CheckID,
		CheckType:      c.CheckType,
		Status:         c.Status,
		RelatedTxnIDs:  c.RelatedTxnIDs,
		Details:        c.Details,
		Severity:       c.Severity,
		ResolutionNote: c.ResolutionNote,
		ResolvedAt:     c.ResolvedAt,
	}
}
