package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/statera-app/statera/internal/core/domain"
)

// BankTransactionRepositoryFacade defines persistence operations for approved
// bank statement transactions. The rows are produced by the extraction
// collaborator; this engine only reads them and flips their reconciliation
// status.
type BankTransactionRepositoryFacade interface {
	SaveTransaction(ctx context.Context, txn domain.BankTransaction) error
	FindTransactionByID(ctx context.Context, ownerID, txnID string) (*domain.BankTransaction, error)
	// ListApproved returns every approved transaction of the owner,
	// optionally scoped to one statement. Consistency scans compare an
	// anchor scope against this full corpus.
	ListApproved(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error)
	// ListForMatching returns approved transactions still awaiting a
	// decision (pending or unmatched).
	ListForMatching(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error)
	UpdateTransactionStatus(ctx context.Context, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error
	UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error
}
