package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	"github.com/statera-app/statera/internal/models"
	"github.com/statera-app/statera/internal/utils/mapping"
	"github.com/statera-app/statera/internal/utils/textmatch"
)

type PgxMatchRepository struct {
	BaseRepository
}

// newPgxMatchRepository creates a new repository for reconciliation match data.
func newPgxMatchRepository(pool *pgxpool.Pool) portsrepo.MatchRepositoryWithTx {
	return &PgxMatchRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxMatchRepository implements portsrepo.MatchRepositoryWithTx
var _ portsrepo.MatchRepositoryWithTx = (*PgxMatchRepository)(nil)

const matchColumns = `match_id, owner_id, txn_id, entry_ids, score, breakdown, status, version, superseded_by_id, created_at, created_by, last_updated_at, last_updated_by`

// activeMatchStatuses is the set of statuses that claim a transaction. A
// partial unique index on txn_id over these statuses enforces at most one
// active match per transaction.
const activeMatchStatuses = `('auto_accepted', 'pending_review', 'accepted')`

// SaveMatch inserts a new match.
func (r *PgxMatchRepository) SaveMatch(ctx context.Context, match domain.ReconciliationMatch) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.SaveMatchInTx(ctx, tx, match); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveMatchInTx inserts a new match using the caller's transaction.
func (r *PgxMatchRepository) SaveMatchInTx(ctx context.Context, tx pgx.Tx, match domain.ReconciliationMatch) error {
	modelMatch, err := mapping.ToModelMatch(match)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO reconciliation_matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		modelMatch.MatchID,
		modelMatch.OwnerID,
		modelMatch.TxnID,
		modelMatch.EntryIDs,
		modelMatch.Score,
		modelMatch.Breakdown,
		modelMatch.Status,
		modelMatch.Version,
		modelMatch.SupersededByID,
		modelMatch.CreatedAt,
		modelMatch.CreatedBy,
		modelMatch.LastUpdatedAt,
		modelMatch.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert match "+modelMatch.MatchID, err)
	}
	return nil
}

// FindMatchByID retrieves a match by its ID, scoped to the owner.
func (r *PgxMatchRepository) FindMatchByID(ctx context.Context, ownerID, matchID string) (*domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM reconciliation_matches
		WHERE match_id = $1 AND owner_id = $2;
	`
	return r.queryOneMatch(ctx, r.Pool, query, "failed to find match by ID "+matchID, matchID, ownerID)
}

// FindMatchByIDForUpdate retrieves a match, locking its row for the duration
// of the caller's transaction.
func (r *PgxMatchRepository) FindMatchByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, matchID string) (*domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM reconciliation_matches
		WHERE match_id = $1 AND owner_id = $2
		FOR UPDATE;
	`
	return r.queryOneMatch(ctx, tx, query, "failed to lock match "+matchID, matchID, ownerID)
}

// FindActiveMatchByTxn returns the single active match for a transaction.
func (r *PgxMatchRepository) FindActiveMatchByTxn(ctx context.Context, txnID string) (*domain.ReconciliationMatch, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM reconciliation_matches
		WHERE txn_id = $1 AND status IN ` + activeMatchStatuses + `;
	`
	return r.queryOneMatch(ctx, r.Pool, query, "failed to find active match for transaction "+txnID, txnID)
}

// ListPendingByOwner retrieves pending-review matches of the owner, oldest
// first so the review queue surfaces the backlog in arrival order.
func (r *PgxMatchRepository) ListPendingByOwner(ctx context.Context, ownerID string, limit int) ([]domain.ReconciliationMatch, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + matchColumns + `
		FROM reconciliation_matches
		WHERE owner_id = $1 AND status = 'pending_review'
		ORDER BY created_at, match_id
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query pending matches for owner "+ownerID, err)
	}
	defer rows.Close()

	matches := []domain.ReconciliationMatch{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan match row", err)
		}
		domainMatch, err := mapping.ToDomainMatch(m)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domainMatch)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating match rows", err)
	}
	return matches, nil
}

// UpdateMatchStatusInTx transitions a match's status. The update carries the
// new version and only applies when the stored row is still one step behind;
// a moved-on version surfaces as ErrConflict.
func (r *PgxMatchRepository) UpdateMatchStatusInTx(ctx context.Context, tx pgx.Tx, matchID string, update portsrepo.MatchStatusUpdate) error {
	query := `
		UPDATE reconciliation_matches
		SET status = $2,
		    version = $3,
		    superseded_by_id = COALESCE($4, superseded_by_id),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE match_id = $1 AND version = $3 - 1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		matchID,
		string(update.Status),
		update.Version,
		update.SupersededByID,
		update.UpdatedAt,
		update.UpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of match "+matchID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "match "+matchID+" was modified concurrently", apperrors.ErrConflict)
	}
	return nil
}

// HasAcceptedSimilar reports whether an accepted match exists for a
// transaction with the same amount (within 0.01) and normalized description.
// Amount filtering happens in SQL; description normalization in Go.
func (r *PgxMatchRepository) HasAcceptedSimilar(ctx context.Context, ownerID string, amount decimal.Decimal, descriptionKey string) (bool, error) {
	query := `
		SELECT t.description
		FROM reconciliation_matches m
		JOIN bank_transactions t ON t.txn_id = m.txn_id
		WHERE m.owner_id = $1
		  AND m.status IN ('accepted', 'auto_accepted')
		  AND ABS(t.amount - $2) <= 0.01
		LIMIT 200;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID, amount)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to query accepted matches for owner "+ownerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var description string
		if err := rows.Scan(&description); err != nil {
			return false, apperrors.NewAppError(500, "failed to scan accepted match row", err)
		}
		if textmatch.Normalize(description) == descriptionKey {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, apperrors.NewAppError(500, "error iterating accepted match rows", err)
	}
	return false, nil
}

func (r *PgxMatchRepository) queryOneMatch(ctx context.Context, db rowQuerier, query, errMsg string, args ...any) (*domain.ReconciliationMatch, error) {
	m, err := scanMatch(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, errMsg, err)
	}
	domainMatch, err := mapping.ToDomainMatch(m)
	if err != nil {
		return nil, err
	}
	return &domainMatch, nil
}

// rowQuerier abstracts QueryRow over a pool or an open transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanMatch(row pgx.Row) (models.ReconciliationMatch, error) {
	var m models.ReconciliationMatch
	err := row.Scan(
		&m.MatchID,
		&m.OwnerID,
		&m.TxnID,
		&m.EntryIDs,
		&m.Score,
		&m.Breakdown,
		&m.Status,
		&m.Version,
		&m.SupersededByID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.ReconciliationMatch{}, err
	}
	return m, nil
}
