package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool)
	transactionRepo := newPgxBankTransactionRepository(dbPool)
	matchRepo := newPgxMatchRepository(dbPool)
	consistencyRepo := newPgxConsistencyRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		JournalRepo:     journalRepo,
		TransactionRepo: transactionRepo,
		MatchRepo:       matchRepo,
		ConsistencyRepo: consistencyRepo,
	}
}
