package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxManager exposes database transaction control to services that need to
// span several repository calls with row-level locks.
type TxManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}
