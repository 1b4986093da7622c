package domain

// MatchStatus indicates the lifecycle state of a reconciliation match.
type MatchStatus string

const (
	MatchAutoAccepted  MatchStatus = "auto_accepted"
	MatchPendingReview MatchStatus = "pending_review"
	MatchAccepted      MatchStatus = "accepted"
	MatchRejected      MatchStatus = "rejected"

	// MatchSuperseded is reserved for replanning tooling that replaces an
	// active match with a successor. The reconcile run never rescores a
	// transaction holding an active match, so no current flow sets it, but
	// the transition table, persistence and unique-active-match index all
	// honor it.
	MatchSuperseded MatchStatus = "superseded"
)

// matchTransitions is the table of legal match status transitions. Matches are
// never deleted; a replanned match supersedes its predecessor, forming an
// append-only audit chain.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchAutoAccepted:  {MatchSuperseded},
	MatchPendingReview: {MatchAccepted, MatchRejected, MatchSuperseded},
	MatchAccepted:      {MatchSuperseded},
	MatchRejected:      {},
	MatchSuperseded:    {},
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the match currently claims its transaction.
// At most one active match may exist per bank transaction.
func (s MatchStatus) IsActive() bool {
	return s == MatchAutoAccepted || s == MatchPendingReview || s == MatchAccepted
}

// ScoreBreakdown carries the per-factor sub-scores (each 0-100, pre-weighting)
// that produced a match score.
type ScoreBreakdown struct {
	Amount         float64 `json:"amount"`
	Date           float64 `json:"date"`
	Description    float64 `json:"description"`
	History        float64 `json:"history"`
	ManyToOneBonus float64 `json:"manyToOneBonus,omitempty"`
}

// ReconciliationMatch links one bank transaction to one or more journal
// entries with a confidence score. Created by the matching engine, mutated
// only by the review workflow.
type ReconciliationMatch struct {
	MatchID        string         `json:"matchID"` // Primary key (UUID)
	OwnerID        string         `json:"ownerID"`
	TxnID          string         `json:"txnID"`
	EntryIDs       []string       `json:"entryIDs"` // Ordered; supports many-to-one
	Score          int            `json:"score"`    // 0-100
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Status         MatchStatus    `json:"status"`
	Version        int64          `json:"version"` // Incremented on every status transition
	SupersededByID *string        `json:"supersededByID,omitempty"` // Set only when a successor match supersedes this one
	AuditFields
}
