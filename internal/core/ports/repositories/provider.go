package repositories

// RepositoryProvider bundles the concrete repository implementations handed to
// the service layer.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	JournalRepo     JournalRepositoryWithTx
	TransactionRepo BankTransactionRepositoryFacade
	MatchRepo       MatchRepositoryWithTx
	ConsistencyRepo ConsistencyRepositoryWithTx
}
