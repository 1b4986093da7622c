package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	"github.com/statera-app/statera/internal/models"
	"github.com/statera-app/statera/internal/utils/mapping"
)

type PgxBankTransactionRepository struct {
	BaseRepository
}

// newPgxBankTransactionRepository creates a new repository for bank transaction data.
func newPgxBankTransactionRepository(pool *pgxpool.Pool) portsrepo.BankTransactionRepositoryFacade {
	return &PgxBankTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxBankTransactionRepository implements portsrepo.BankTransactionRepositoryFacade
var _ portsrepo.BankTransactionRepositoryFacade = (*PgxBankTransactionRepository)(nil)

const txnColumns = `txn_id, owner_id, statement_id, txn_date, description, amount, direction, status, confidence, created_at, created_by, last_updated_at, last_updated_by`

// SaveTransaction inserts an approved statement transaction.
func (r *PgxBankTransactionRepository) SaveTransaction(ctx context.Context, txn domain.BankTransaction) error {
	modelTxn := mapping.ToModelBankTransaction(txn)
	query := `
		INSERT INTO bank_transactions (` + txnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelTxn.TxnID,
		modelTxn.OwnerID,
		modelTxn.StatementID,
		modelTxn.TxnDate,
		modelTxn.Description,
		modelTxn.Amount,
		modelTxn.Direction,
		modelTxn.Status,
		modelTxn.Confidence,
		modelTxn.CreatedAt,
		modelTxn.CreatedBy,
		modelTxn.LastUpdatedAt,
		modelTxn.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert bank transaction "+modelTxn.TxnID, err)
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its ID, scoped to the owner.
func (r *PgxBankTransactionRepository) FindTransactionByID(ctx context.Context, ownerID, txnID string) (*domain.BankTransaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM bank_transactions
		WHERE txn_id = $1 AND owner_id = $2;
	`
	modelTxn, err := scanTransaction(r.Pool.QueryRow(ctx, query, txnID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bank transaction by ID "+txnID, err)
	}
	domainTxn := mapping.ToDomainBankTransaction(modelTxn)
	return &domainTxn, nil
}

// ListApproved returns every transaction of the owner, optionally scoped to
// one statement. Every persisted row has already passed extraction approval.
func (r *PgxBankTransactionRepository) ListApproved(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM bank_transactions
		WHERE owner_id = $1 AND ($2::text IS NULL OR statement_id = $2)
		ORDER BY txn_date, txn_id;
	`
	return r.queryTransactions(ctx, query, ownerID, statementID)
}

// ListForMatching returns transactions still awaiting a reconciliation
// decision.
func (r *PgxBankTransactionRepository) ListForMatching(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM bank_transactions
		WHERE owner_id = $1 AND ($2::text IS NULL OR statement_id = $2)
		  AND status IN ('pending', 'unmatched')
		ORDER BY txn_date, txn_id;
	`
	return r.queryTransactions(ctx, query, ownerID, statementID)
}

// UpdateTransactionStatus flips the reconciliation status of a transaction.
func (r *PgxBankTransactionRepository) UpdateTransactionStatus(ctx context.Context, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error {
	return updateTxnStatus(ctx, r.Pool, txnID, status, updatedBy, updatedAt)
}

// UpdateTransactionStatusInTx flips the reconciliation status using the
// caller's transaction.
func (r *PgxBankTransactionRepository) UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error {
	return updateTxnStatus(ctx, tx, txnID, status, updatedBy, updatedAt)
}

// rowExecer abstracts Exec over a pool or an open transaction.
type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateTxnStatus(ctx context.Context, db rowExecer, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE bank_transactions
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE txn_id = $1;
	`
	cmdTag, err := db.Exec(ctx, query, txnID, string(status), updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of transaction "+txnID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("bank transaction not found: " + txnID)
	}
	return nil
}

func (r *PgxBankTransactionRepository) queryTransactions(ctx context.Context, query string, ownerID string, statementID *string) ([]domain.BankTransaction, error) {
	rows, err := r.Pool.Query(ctx, query, ownerID, statementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bank transactions for owner "+ownerID, err)
	}
	defer rows.Close()

	txns := []domain.BankTransaction{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank transaction row", err)
		}
		txns = append(txns, mapping.ToDomainBankTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank transaction rows", err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row) (models.BankTransaction, error) {
	var m models.BankTransaction
	err := row.Scan(
		&m.TxnID,
		&m.OwnerID,
		&m.StatementID,
		&m.TxnDate,
		&m.Description,
		&m.Amount,
		&m.Direction,
		&m.Status,
		&m.Confidence,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.BankTransaction{}, err
	}
	return m, nil
}
