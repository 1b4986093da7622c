package models

// ReconciliationMatch is the row shape of the reconciliation_matches table.
// EntryIDs maps to a text[] column and Breakdown to a jsonb column.
type ReconciliationMatch struct {
	MatchID        string   `json:"matchID"` // Primary key (UUID)
	OwnerID        string   `json:"ownerID"`
	TxnID          string   `json:"txnID"`
	EntryIDs       []string `json:"entryIDs"`
	Score          int      `json:"score"`
	Breakdown      []byte   `json:"breakdown"` // jsonb payload
	Status         string   `json:"status"`
	Version        int64    `json:"version"`
	SupersededByID *string  `json:"supersededByID"`
	AuditFields
}
