package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	"github.com/statera-app/statera/internal/models"
	"github.com/statera-app/statera/internal/utils/mapping"
)

type PgxConsistencyRepository struct {
	BaseRepository
}

// newPgxConsistencyRepository creates a new repository for consistency check data.
func newPgxConsistencyRepository(pool *pgxpool.Pool) portsrepo.ConsistencyRepositoryWithTx {
	return &PgxConsistencyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxConsistencyRepository implements portsrepo.ConsistencyRepositoryWithTx
var _ portsrepo.ConsistencyRepositoryWithTx = (*PgxConsistencyRepository)(nil)

const checkColumns = `check_id, owner_id, check_type, status, related_txn_ids, details, severity, resolution_note, resolved_at, resolved_by, created_at, created_by, last_updated_at, last_updated_by`

// SaveCheck inserts a new consistency check.
func (r *PgxConsistencyRepository) SaveCheck(ctx context.Context, check domain.ConsistencyCheck) error {
	modelCheck, err := mapping.ToModelCheck(check)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO consistency_checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = r.Pool.Exec(ctx, query,
		modelCheck.CheckID,
		modelCheck.OwnerID,
		modelCheck.CheckType,
		modelCheck.Status,
		modelCheck.RelatedTxnIDs,
		modelCheck.Details,
		modelCheck.Severity,
		modelCheck.ResolutionNote,
		modelCheck.ResolvedAt,
		modelCheck.ResolvedBy,
		modelCheck.CreatedAt,
		modelCheck.CreatedBy,
		modelCheck.LastUpdatedAt,
		modelCheck.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert consistency check "+modelCheck.CheckID, err)
	}
	return nil
}

// FindCheckByID retrieves a check by its ID, scoped to the owner.
func (r *PgxConsistencyRepository) FindCheckByID(ctx context.Context, ownerID, checkID string) (*domain.ConsistencyCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM consistency_checks
		WHERE check_id = $1 AND owner_id = $2;
	`
	return queryOneCheck(ctx, r.Pool, query, "failed to find consistency check by ID "+checkID, checkID, ownerID)
}

// FindCheckByIDForUpdate retrieves a check, locking its row for the duration
// of the caller's transaction.
func (r *PgxConsistencyRepository) FindCheckByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, checkID string) (*domain.ConsistencyCheck, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM consistency_checks
		WHERE check_id = $1 AND owner_id = $2
		FOR UPDATE;
	`
	return queryOneCheck(ctx, tx, query, "failed to lock consistency check "+checkID, checkID, ownerID)
}

// ExistsPending reports whether a pending check of the given type with
// exactly the given sorted transaction id set already exists.
func (r *PgxConsistencyRepository) ExistsPending(ctx context.Context, ownerID string, checkType domain.CheckType, relatedTxnIDs []string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consistency_checks
			WHERE owner_id = $1 AND check_type = $2 AND status = 'pending'
			  AND related_txn_ids = $3::text[]
		);
	`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, ownerID, string(checkType), relatedTxnIDs).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check for pending consistency check", err)
	}
	return exists, nil
}

// ListChecks retrieves checks of the owner, newest first, optionally filtered
// by status.
func (r *PgxConsistencyRepository) ListChecks(ctx context.Context, ownerID string, status *domain.CheckStatus, limit int) ([]domain.ConsistencyCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + checkColumns + `
		FROM consistency_checks
		WHERE owner_id = $1
	`
	args := []interface{}{ownerID}
	if status != nil {
		args = append(args, string(*status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC, check_id LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query consistency checks for owner "+ownerID, err)
	}
	defer rows.Close()

	checks := []domain.ConsistencyCheck{}
	for rows.Next() {
		m, err := scanCheck(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan consistency check row", err)
		}
		domainCheck, err := mapping.ToDomainCheck(m)
		if err != nil {
			return nil, err
		}
		checks = append(checks, domainCheck)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating consistency check rows", err)
	}
	return checks, nil
}

// HasUnresolved reports whether any pending check exists for the owner.
func (r *PgxConsistencyRepository) HasUnresolved(ctx context.Context, ownerID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consistency_checks
			WHERE owner_id = $1 AND status = 'pending'
		);
	`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, ownerID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check for unresolved checks of owner "+ownerID, err)
	}
	return exists, nil
}

// UpdateCheckResolutionInTx writes the resolution fields of a check.
func (r *PgxConsistencyRepository) UpdateCheckResolutionInTx(ctx context.Context, tx pgx.Tx, checkID string, update portsrepo.CheckResolutionUpdate) error {
	query := `
		UPDATE consistency_checks
		SET status = $2,
		    resolution_note = $3,
		    resolved_at = $4,
		    resolved_by = $5,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE check_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		checkID,
		string(update.Status),
		update.ResolutionNote,
		update.ResolvedAt,
		update.ResolvedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update resolution of check "+checkID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("consistency check not found: " + checkID)
	}
	return nil
}

func queryOneCheck(ctx context.Context, db rowQuerier, query, errMsg string, args ...any) (*domain.ConsistencyCheck, error) {
	m, err := scanCheck(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, errMsg, err)
	}
	domainCheck, err := mapping.ToDomainCheck(m)
	if err != nil {
		return nil, err
	}
	return &domainCheck, nil
}

func scanCheck(row pgx.Row) (models.ConsistencyCheck, error) {
	var m models.ConsistencyCheck
	err := row.Scan(
		&m.CheckID,
		&m.OwnerID,
		&m.CheckType,
		&m.Status,
		&m.RelatedTxnIDs,
		&m.Details,
		&m.Severity,
		&m.ResolutionNote,
		&m.ResolvedAt,
		&m.ResolvedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.ConsistencyCheck{}, err
	}
	return m, nil
}
