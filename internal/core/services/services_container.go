package services

import (
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/platform/config"
)

// Repositories is the persistence surface the services are wired against.
type Repositories struct {
	Account     portsrepo.AccountRepositoryFacade
	Journal     portsrepo.JournalRepositoryWithTx
	Transaction portsrepo.BankTransactionRepositoryFacade
	Match       portsrepo.MatchRepositoryWithTx
	Consistency portsrepo.ConsistencyRepositoryWithTx
}

// NewServiceContainer wires every service facade. fxRates and detector are
// optional collaborators; passing nil disables fx resolution and the anomaly
// scan respectively.
func NewServiceContainer(repos Repositories, fxRates portssvc.FxRateProvider, detector portssvc.AnomalyDetector, cfg *config.Config) *portssvc.ServiceContainer {
	if fxRates != nil {
		fxRates = NewFxRateCache(fxRates, cfg.FxCacheTTL, cfg.FxCacheMaxEntries)
	}

	ledger := NewLedgerService(repos.Account, repos.Journal, fxRates, cfg.BaseCurrency)
	return &portssvc.ServiceContainer{
		Ledger:      ledger,
		Matching:    NewMatchingService(repos.Transaction, repos.Journal, repos.Match, repos.Account, cfg.Matching),
		Transfer:    NewTransferService(repos.Account, repos.Journal, ledger, cfg.Matching, cfg.BaseCurrency),
		Consistency: NewConsistencyService(repos.Transaction, repos.Consistency, detector, cfg.Consistency),
		Review:      NewReviewService(repos.Match, repos.Transaction, repos.Journal, repos.Consistency),
	}
}
