package mapping

import (
	"encoding/json"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/models"
)

// ToModelCheck converts a domain ConsistencyCheck to its model form. The
// details payload is serialized into the jsonb column.
func ToModelCheck(d domain.ConsistencyCheck) (models.ConsistencyCheck, error) {
	details, err := json.Marshal(d.Details)
	if err != nil {
		return models.ConsistencyCheck{}, apperrors.NewAppError(500, "failed to serialize check details", err)
	}
	return models.ConsistencyCheck{
		CheckID:        d.CheckID,
		OwnerID:        d.OwnerID,
		CheckType:      string(d.CheckType),
		Status:         string(d.Status),
		RelatedTxnIDs:  d.RelatedTxnIDs,
		Details:        details,
		Severity:       string(d.Severity),
		ResolutionNote: d.ResolutionNote,
		ResolvedAt:     d.ResolvedAt,
		ResolvedBy:     d.ResolvedBy,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainCheck converts a model ConsistencyCheck to its domain form.
func ToDomainCheck(m models.ConsistencyCheck) (domain.ConsistencyCheck, error) {
	var details domain.CheckDetails
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return domain.ConsistencyCheck{}, apperrors.NewAppError(500, "failed to deserialize check details", err)
		}
	}
	return domain.ConsistencyCheck{
		CheckID:        m.CheckID,
		OwnerID:        m.OwnerID,
		CheckType:      domain.CheckType(m.CheckType),
		Status:         domain.CheckStatus(m.Status),
		RelatedTxnIDs:  m.RelatedTxnIDs,
		Details:        details,
		Severity:       domain.CheckSeverity(m.Severity),
		ResolutionNote: m.ResolutionNote,
		ResolvedAt:     m.ResolvedAt,
		ResolvedBy:     m.ResolvedBy,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}
