package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/core/services"
	"github.com/statera-app/statera/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockJournalRepo *MockJournalRepository
	mockFxRates     *MockFxRateProvider
	service         portssvc.LedgerSvcFacade
	ownerID         string
	userID          string
	bankAccount     domain.Account
	expenseAccount  domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockFxRates = new(MockFxRateProvider)
	suite.service = services.NewLedgerService(suite.mockAccountRepo, suite.mockJournalRepo, suite.mockFxRates, "SGD")

	suite.ownerID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.bankAccount = domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      suite.ownerID,
		Name:         "DBS Savings",
		AccountType:  domain.Asset,
		CurrencyCode: "SGD",
		IsActive:     true,
	}
	suite.expenseAccount = domain.Account{
		AccountID:    uuid.NewString(),
		OwnerID:      suite.ownerID,
		Name:         "Groceries",
		AccountType:  domain.Expense,
		CurrencyCode: "SGD",
		IsActive:     true,
	}
}

func (suite *LedgerServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.bankAccount.AccountID:    suite.bankAccount,
		suite.expenseAccount.AccountID: suite.expenseAccount,
	}
}

func (suite *LedgerServiceTestSuite) balancedRequest(amount decimal.Decimal) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:     time.Now().UTC(),
		Memo:     "NTUC FairPrice groceries",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: amount},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: amount},
		},
	}
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_Success() {
	ctx := context.Background()
	req := suite.balancedRequest(decimal.NewFromFloat(84.50))

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.ownerID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.NotEmpty(entry.EntryID)
	suite.Equal(domain.EntryDraft, entry.Status)
	suite.Equal(domain.SourceManual, entry.Source)
	suite.Len(entry.Lines, 2)
	suite.Equal(suite.userID, entry.CreatedBy)

	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_Unbalanced() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:     time.Now().UTC(),
		Memo:     "lopsided",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(100)},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(90)},
		},
	}

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_WithinTolerance() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:     time.Now().UTC(),
		Memo:     "fx rounding leftover",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromFloat(100.01)},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(100)},
		},
	}

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.ownerID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)
	suite.Require().NoError(err)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_SingleLine() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:     time.Now().UTC(),
		Memo:     "half an entry",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(50)},
		},
	}

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_SameAccountBothSides() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:     time.Now().UTC(),
		Memo:     "self transfer",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(50)},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(50)},
		},
	}

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_InactiveAccount() {
	ctx := context.Background()
	inactive := suite.bankAccount
	inactive.IsActive = false
	accounts := map[string]domain.Account{
		suite.bankAccount.AccountID:    inactive,
		suite.expenseAccount.AccountID: suite.expenseAccount,
	}
	req := suite.balancedRequest(decimal.NewFromInt(25))

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.ownerID, mock.AnythingOfType("[]string")).Return(accounts, nil).Once()

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_ForeignLineResolvesFxRate() {
	ctx := context.Background()
	date := time.Now().UTC()
	req := dto.CreateEntryRequest{
		Date:     date,
		Memo:     "USD subscription",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromFloat(13.50), CurrencyCode: "USD"},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromFloat(13.50)},
		},
	}

	suite.mockFxRates.On("GetRate", ctx, "USD", "SGD", date).Return(decimal.NewFromFloat(1.35), nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.ownerID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry.Lines[0].FxRate)
	suite.True(entry.Lines[0].FxRate.Equal(decimal.NewFromFloat(1.35)))
	suite.mockFxRates.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_FxRateUnavailable() {
	ctx := context.Background()
	date := time.Now().UTC()
	req := dto.CreateEntryRequest{
		Date:     date,
		Memo:     "EUR purchase",
		Currency: "SGD",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(20), CurrencyCode: "EUR"},
			{AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(20)},
		},
	}

	suite.mockFxRates.On("GetRate", ctx, "EUR", "SGD", date).Return(decimal.Zero, apperrors.ErrFxRateUnavailable).Once()

	_, err := suite.service.CreateEntry(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFxRateUnavailable)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := &domain.JournalEntry{
		EntryID: entryID,
		OwnerID: suite.ownerID,
		Status:  domain.EntryDraft,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(40), CurrencyCode: "SGD"},
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(40), CurrencyCode: "SGD"},
	}

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.ownerID, entryID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, suite.ownerID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("UpdateEntryStatusInTx", ctx, mock.Anything, entryID, mock.MatchedBy(func(u interface{}) bool { return true })).Return(nil).Once()
	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, suite.ownerID, entryID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryPosted, posted.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostEntry_AlreadyPosted() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := &domain.JournalEntry{EntryID: entryID, OwnerID: suite.ownerID, Status: domain.EntryPosted}

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.ownerID, entryID).Return(entry, nil).Once()

	_, err := suite.service.PostEntry(ctx, suite.ownerID, entryID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateEntryStatusInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestVoidEntry_FlipsDirections() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := &domain.JournalEntry{
		EntryID:      entryID,
		OwnerID:      suite.ownerID,
		EntryDate:    time.Now().UTC().AddDate(0, 0, -2),
		Memo:         "Rent payment",
		CurrencyCode: "SGD",
		Status:       domain.EntryPosted,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.expenseAccount.AccountID, Direction: domain.Debit, Amount: decimal.NewFromInt(1800), CurrencyCode: "SGD"},
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.bankAccount.AccountID, Direction: domain.Credit, Amount: decimal.NewFromInt(1800), CurrencyCode: "SGD"},
	}

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.ownerID, entryID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()

	var savedReversal domain.JournalEntry
	var savedLines []domain.JournalLine
	suite.mockJournalRepo.On("SaveEntryInTx", ctx, mock.Anything, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) {
			savedReversal = args.Get(2).(domain.JournalEntry)
			savedLines = args.Get(3).([]domain.JournalLine)
		}).Return(nil).Once()
	suite.mockJournalRepo.On("UpdateEntryStatusInTx", ctx, mock.Anything, entryID, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	reversal, err := suite.service.VoidEntry(ctx, suite.ownerID, entryID, "booked twice", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryPosted, reversal.Status)
	suite.Equal(domain.SourceSystem, savedReversal.Source)
	suite.Require().NotNil(savedReversal.SourceID)
	suite.Equal(entryID, *savedReversal.SourceID)
	suite.Require().Len(savedLines, 2)
	suite.Equal(domain.Credit, savedLines[0].Direction)
	suite.Equal(domain.Debit, savedLines[1].Direction)
	suite.True(savedLines[0].Amount.Equal(lines[0].Amount))
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestVoidEntry_DraftFails() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := &domain.JournalEntry{EntryID: entryID, OwnerID: suite.ownerID, Status: domain.EntryDraft}

	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.ownerID, entryID).Return(entry, nil).Once()

	_, err := suite.service.VoidEntry(ctx, suite.ownerID, entryID, "wrong amount", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestVoidEntry_EmptyReason() {
	ctx := context.Background()

	_, err := suite.service.VoidEntry(ctx, suite.ownerID, uuid.NewString(), "", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestCalculateAccountBalance_AssetDebitPositive() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.ownerID, suite.bankAccount.AccountID).Return(&suite.bankAccount, nil).Once()
	suite.mockJournalRepo.On("SumLinesByAccount", ctx, suite.bankAccount.AccountID).
		Return(domain.LineSums{DebitTotal: decimal.NewFromInt(500), CreditTotal: decimal.NewFromInt(120)}, nil).Once()

	balance, err := suite.service.CalculateAccountBalance(ctx, suite.ownerID, suite.bankAccount.AccountID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(380)))
}

func (suite *LedgerServiceTestSuite) TestCalculateAccountBalance_LiabilityCreditPositive() {
	ctx := context.Background()
	card := domain.Account{
		AccountID:   uuid.NewString(),
		OwnerID:     suite.ownerID,
		AccountType: domain.Liability,
		IsActive:    true,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.ownerID, card.AccountID).Return(&card, nil).Once()
	suite.mockJournalRepo.On("SumLinesByAccount", ctx, card.AccountID).
		Return(domain.LineSums{DebitTotal: decimal.NewFromInt(200), CreditTotal: decimal.NewFromInt(750)}, nil).Once()

	balance, err := suite.service.CalculateAccountBalance(ctx, suite.ownerID, card.AccountID)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(550)))
}

func (suite *LedgerServiceTestSuite) TestVerifyAccountingEquation_Balanced() {
	ctx := context.Background()
	equity := domain.Account{AccountID: uuid.NewString(), OwnerID: suite.ownerID, AccountType: domain.Equity, IsActive: true}
	accounts := []domain.Account{suite.bankAccount, suite.expenseAccount, equity}
	sums := map[string]domain.LineSums{
		suite.bankAccount.AccountID:    {DebitTotal: decimal.NewFromInt(900), CreditTotal: decimal.NewFromInt(100)},
		suite.expenseAccount.AccountID: {DebitTotal: decimal.NewFromInt(100), CreditTotal: decimal.Zero},
		equity.AccountID:               {DebitTotal: decimal.Zero, CreditTotal: decimal.NewFromInt(900)},
	}

	suite.mockAccountRepo.On("ListAccountsByOwner", ctx, suite.ownerID).Return(accounts, nil).Once()
	suite.mockJournalRepo.On("SumLinesByOwner", ctx, suite.ownerID).Return(sums, nil).Once()

	result, err := suite.service.VerifyAccountingEquation(ctx, suite.ownerID)

	suite.Require().NoError(err)
	suite.True(result.Balanced, "expected equation to hold, difference was %s", result.Difference)
	suite.True(result.Assets.Equal(decimal.NewFromInt(800)))
	suite.True(result.Expenses.Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestCreateAccount_ReservedName() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Name:         domain.ProcessingAccountName,
		AccountType:  domain.Asset,
		CurrencyCode: "SGD",
	}

	_, err := suite.service.CreateAccount(ctx, suite.ownerID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
