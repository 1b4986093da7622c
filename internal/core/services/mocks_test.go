package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/statera-app/statera/internal/core/domain"
	portsrepo "github.com/statera-app/statera/internal/core/ports/repositories"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/dto"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, ownerID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, ownerID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindSystemAccountByName(ctx context.Context, ownerID, name string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Mock JournalRepository ---

type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryWithTx = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, tx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, ownerID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	args := m.Called(ctx, entryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) UpdateEntryStatusInTx(ctx context.Context, tx pgx.Tx, entryID string, update portsrepo.EntryStatusUpdate) error {
	args := m.Called(ctx, tx, entryID, update)
	return args.Error(0)
}

func (m *MockJournalRepository) ListEntriesByOwner(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, ownerID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), returnedNextToken, args.Error(2)
}

func (m *MockJournalRepository) FindCandidateEntries(ctx context.Context, ownerID string, amount decimal.Decimal, refDate, dateFrom, dateTo time.Time, limit int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, amount, refDate, dateFrom, dateTo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) SumLinesByAccount(ctx context.Context, accountID string) (domain.LineSums, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.LineSums), args.Error(1)
}

func (m *MockJournalRepository) SumLinesByOwner(ctx context.Context, ownerID string) (map[string]domain.LineSums, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LineSums), args.Error(1)
}

func (m *MockJournalRepository) FindProcessingLegs(ctx context.Context, accountID string) ([]domain.ProcessingLeg, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingLeg), args.Error(1)
}

// --- Mock BankTransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.BankTransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.BankTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, ownerID, txnID string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, ownerID, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListApproved(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, ownerID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListForMatching(ctx context.Context, ownerID string, statementID *string) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, ownerID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateTransactionStatus(ctx context.Context, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, txnID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, txnID string, status domain.TxnStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, txnID, status, updatedBy, updatedAt)
	return args.Error(0)
}

// --- Mock MatchRepository ---

type MockMatchRepository struct {
	mock.Mock
}

var _ portsrepo.MatchRepositoryWithTx = (*MockMatchRepository)(nil)

func (m *MockMatchRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockMatchRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockMatchRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockMatchRepository) SaveMatch(ctx context.Context, match domain.ReconciliationMatch) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) SaveMatchInTx(ctx context.Context, tx pgx.Tx, match domain.ReconciliationMatch) error {
	args := m.Called(ctx, tx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) FindMatchByID(ctx context.Context, ownerID, matchID string) (*domain.ReconciliationMatch, error) {
	args := m.Called(ctx, ownerID, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) FindMatchByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, matchID string) (*domain.ReconciliationMatch, error) {
	args := m.Called(ctx, tx, ownerID, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) FindActiveMatchByTxn(ctx context.Context, txnID string) (*domain.ReconciliationMatch, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) ListPendingByOwner(ctx context.Context, ownerID string, limit int) ([]domain.ReconciliationMatch, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationMatch), args.Error(1)
}

func (m *MockMatchRepository) UpdateMatchStatusInTx(ctx context.Context, tx pgx.Tx, matchID string, update portsrepo.MatchStatusUpdate) error {
	args := m.Called(ctx, tx, matchID, update)
	return args.Error(0)
}

func (m *MockMatchRepository) HasAcceptedSimilar(ctx context.Context, ownerID string, amount decimal.Decimal, descriptionKey string) (bool, error) {
	args := m.Called(ctx, ownerID, amount, descriptionKey)
	return args.Bool(0), args.Error(1)
}

// --- Mock ConsistencyRepository ---

type MockConsistencyRepository struct {
	mock.Mock
}

var _ portsrepo.ConsistencyRepositoryWithTx = (*MockConsistencyRepository)(nil)

func (m *MockConsistencyRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockConsistencyRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockConsistencyRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockConsistencyRepository) SaveCheck(ctx context.Context, check domain.ConsistencyCheck) error {
	args := m.Called(ctx, check)
	return args.Error(0)
}

func (m *MockConsistencyRepository) FindCheckByID(ctx context.Context, ownerID, checkID string) (*domain.ConsistencyCheck, error) {
	args := m.Called(ctx, ownerID, checkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsistencyCheck), args.Error(1)
}

func (m *MockConsistencyRepository) FindCheckByIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID, checkID string) (*domain.ConsistencyCheck, error) {
	args := m.Called(ctx, tx, ownerID, checkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsistencyCheck), args.Error(1)
}

func (m *MockConsistencyRepository) ExistsPending(ctx context.Context, ownerID string, checkType domain.CheckType, relatedTxnIDs []string) (bool, error) {
	args := m.Called(ctx, ownerID, checkType, relatedTxnIDs)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsistencyRepository) ListChecks(ctx context.Context, ownerID string, status *domain.CheckStatus, limit int) ([]domain.ConsistencyCheck, error) {
	args := m.Called(ctx, ownerID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConsistencyCheck), args.Error(1)
}

func (m *MockConsistencyRepository) HasUnresolved(ctx context.Context, ownerID string) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsistencyRepository) UpdateCheckResolutionInTx(ctx context.Context, tx pgx.Tx, checkID string, update portsrepo.CheckResolutionUpdate) error {
	args := m.Called(ctx, tx, checkID, update)
	return args.Error(0)
}

// --- Mock collaborators ---

type MockFxRateProvider struct {
	mock.Mock
}

var _ portssvc.FxRateProvider = (*MockFxRateProvider)(nil)

func (m *MockFxRateProvider) GetRate(ctx context.Context, fromCurrency, toCurrency string, on time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, fromCurrency, toCurrency, on)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockAnomalyDetector struct {
	mock.Mock
}

var _ portssvc.AnomalyDetector = (*MockAnomalyDetector)(nil)

func (m *MockAnomalyDetector) Detect(ctx context.Context, txn domain.BankTransaction) ([]domain.AnomalyFinding, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnomalyFinding), args.Error(1)
}

// --- Mock LedgerService (as used by TransferService) ---

type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) CreateAccount(ctx context.Context, ownerID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) GetAccountByID(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) ListAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockLedgerService) CreateEntry(ctx context.Context, ownerID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) GetEntryByID(ctx context.Context, ownerID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, ownerID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockLedgerService) PostEntry(ctx context.Context, ownerID, entryID, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) VoidEntry(ctx context.Context, ownerID, entryID, reason, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, ownerID, entryID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) CalculateAccountBalance(ctx context.Context, ownerID, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerID, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerService) VerifyAccountingEquation(ctx context.Context, ownerID string) (*domain.EquationResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EquationResult), args.Error(1)
}
