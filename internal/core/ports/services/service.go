package services

// ServiceContainer aggregates the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Ledger      LedgerSvcFacade
	Matching    MatchingSvcFacade
	Transfer    TransferSvcFacade
	Consistency ConsistencySvcFacade
	Review      ReviewSvcFacade
}
