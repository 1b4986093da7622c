package dto

import (
	"github.com/statera-app/statera/internal/core/domain"
)

// ReconcileRequest triggers a matching run, optionally scoped to a statement.
type ReconcileRequest struct {
	StatementID *string `json:"statementID"`
}

// MatchRunSummary reports the outcome of one matching run.
type MatchRunSummary struct {
	Scanned       int `json:"scanned"`
	AutoAccepted  int `json:"autoAccepted"`
	PendingReview int `json:"pendingReview"`
	Unmatched     int `json:"unmatched"`
	Skipped       int `json:"skipped"` // Transactions that already hold an active match
}

// MatchResponse is the API representation of a reconciliation match.
type MatchResponse struct {
	MatchID        string                `json:"matchID"`
	TxnID          string                `json:"txnID"`
	EntryIDs       []string              `json:"entryIDs"`
	Score          int                   `json:"score"`
	Breakdown      domain.ScoreBreakdown `json:"breakdown"`
	Status         domain.MatchStatus    `json:"status"`
	Version        int64                 `json:"version"`
	SupersededByID *string               `json:"supersededByID,omitempty"`
}

// ToMatchResponse converts a domain match to its API representation.
func ToMatchResponse(m *domain.ReconciliationMatch) MatchResponse {
	return MatchResponse{
		MatchID:        m.MatchID,
		TxnID:          m.TxnID,
		EntryIDs:       m.EntryIDs,
		Score:          m.Score,
		Breakdown:      m.Breakdown,
		Status:         m.Status,
		Version:        m.Version,
		SupersededByID: m.SupersededByID,
	}
}
