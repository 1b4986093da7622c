package mapping

import (
	"encoding/json"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/models"
)

// ToModelMatch converts a domain ReconciliationMatch to its model form. The
// score breakdown is serialized into the jsonb payload column.
func ToModelMatch(d domain.ReconciliationMatch) (models.ReconciliationMatch, error) {
	breakdown, err := json.Marshal(d.Breakdown)
	if err != nil {
		return models.ReconciliationMatch{}, apperrors.NewAppError(500, "failed to serialize match breakdown", err)
	}
	return models.ReconciliationMatch{
		MatchID:        d.MatchID,
		OwnerID:        d.OwnerID,
		TxnID:          d.TxnID,
		EntryIDs:       d.EntryIDs,
		Score:          d.Score,
		Breakdown:      breakdown,
		Status:         string(d.Status),
		Version:        d.Version,
		SupersededByID: d.SupersededByID,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainMatch converts a model ReconciliationMatch to its domain form.
func ToDomainMatch(m models.ReconciliationMatch) (domain.ReconciliationMatch, error) {
	var breakdown domain.ScoreBreakdown
	if len(m.Breakdown) > 0 {
		if err := json.Unmarshal(m.Breakdown, &breakdown); err != nil {
			return domain.ReconciliationMatch{}, apperrors.NewAppError(500, "failed to deserialize match breakdown", err)
		}
	}
	return domain.ReconciliationMatch{
		MatchID:        m.MatchID,
		OwnerID:        m.OwnerID,
		TxnID:          m.TxnID,
		EntryIDs:       m.EntryIDs,
		Score:          m.Score,
		Breakdown:      breakdown,
		Status:         domain.MatchStatus(m.Status),
		Version:        m.Version,
		SupersededByID: m.SupersededByID,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}
