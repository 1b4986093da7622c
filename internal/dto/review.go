package dto

// BatchAcceptRequest accepts a set of pending matches meeting a score floor.
type BatchAcceptRequest struct {
	MatchIDs []string `json:"matchIDs" binding:"required,min=1"`
	MinScore int      `json:"minScore" binding:"min=0,max=100"`
}

// BatchRejectRequest rejects a set of pending matches.
type BatchRejectRequest struct {
	MatchIDs []string `json:"matchIDs" binding:"required,min=1"`
}

// SkippedMatch explains why a batch operation left one match untouched.
type SkippedMatch struct {
	MatchID string `json:"matchID"`
	Reason  string `json:"reason"`
}

// BatchResult reports per-id outcomes of a batch accept/reject. Skipped rows
// are intentional (not errors): batch operations never silently process
// low-confidence or already-resolved matches.
type BatchResult struct {
	Processed []string       `json:"processed"`
	Skipped   []SkippedMatch `json:"skipped"`
}

// ResolveCheckRequest resolves a consistency check.
type ResolveCheckRequest struct {
	Action string  `json:"action" binding:"required"`
	Note   *string `json:"note"`
}
