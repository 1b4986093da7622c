package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/statera-app/statera/internal/core/domain"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/core/services"
	"github.com/statera-app/statera/internal/platform/config"
)

type ConsistencyServiceTestSuite struct {
	suite.Suite
	mockTxnRepo   *MockTransactionRepository
	mockCheckRepo *MockConsistencyRepository
	mockDetector  *MockAnomalyDetector
	service       portssvc.ConsistencySvcFacade
	ownerID       string
	userID        string
}

func (suite *ConsistencyServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockCheckRepo = new(MockConsistencyRepository)
	suite.mockDetector = new(MockAnomalyDetector)
	suite.service = services.NewConsistencyService(
		suite.mockTxnRepo, suite.mockCheckRepo, suite.mockDetector,
		config.ConsistencyConfig{DuplicateDateSpanDays: 1, TransferWindowDays: 3})
	suite.ownerID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *ConsistencyServiceTestSuite) txn(id, description string, date time.Time, amount decimal.Decimal, direction domain.TxnDirection) domain.BankTransaction {
	return domain.BankTransaction{
		TxnID:       id,
		OwnerID:     suite.ownerID,
		StatementID: "stmt-1",
		TxnDate:     date,
		Description: description,
		Amount:      amount,
		Direction:   direction,
		Status:      domain.TxnPending,
	}
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_FlagsSameDayPair() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromFloat(84.50)
	a := suite.txn("txn-a", "NTUC FAIRPRICE JURONG", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "NTUC FAIRPRICE JURONG", date, amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, []string{"txn-a", "txn-b"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found)
	suite.Equal(domain.CheckPending, saved.Status)
	suite.Equal([]string{"txn-a", "txn-b"}, saved.RelatedTxnIDs)
	suite.Require().NotNil(saved.Details.Duplicate)
	suite.Equal("ntuc fairprice jurong", saved.Details.Duplicate.DescriptionKey)
	suite.Equal(domain.SeverityHigh, saved.Severity, "a same-day repeat is the classic double-charge")
	suite.mockCheckRepo.AssertExpectations(suite.T())
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_SuffixNoiseStillGroups() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(50)
	a := suite.txn("txn-a", "NTUC FAIRPRICE", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "NTUC FAIRPRICE #123", date, amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, []string{"txn-a", "txn-b"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found, "a trailing reference code must not split the group")
	suite.Equal([]string{"txn-a", "txn-b"}, saved.RelatedTxnIDs)
	suite.Equal(domain.SeverityHigh, saved.Severity)
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_NextDayPairIsMediumSeverity() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(25)
	a := suite.txn("txn-a", "STARBUCKS RAFFLES", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "STARBUCKS RAFFLES", date.AddDate(0, 0, 1), amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, []string{"txn-a", "txn-b"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found)
	suite.Equal(domain.SeverityMedium, saved.Severity)
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_GroupSpanStaysWithinLimit() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(18)
	early := suite.txn("txn-a", "MCDONALDS", date.AddDate(0, 0, -1), amount, domain.TxnOut)
	middle := suite.txn("txn-b", "MCDONALDS", date, amount, domain.TxnOut)
	late := suite.txn("txn-c", "MCDONALDS", date.AddDate(0, 0, 1), amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{early, middle, late}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, mock.Anything).Return(false, nil)

	var groups [][]string
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) {
			check := args.Get(1).(domain.ConsistencyCheck)
			groups = append(groups, check.RelatedTxnIDs)
			suite.LessOrEqual(check.Details.Duplicate.DateSpanDays, 1)
		}).Return(nil)

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, found)
	for _, ids := range groups {
		suite.Len(ids, 2, "a two-day chain must not collapse into one group")
	}
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_RerunIsIdempotent() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(30)
	a := suite.txn("txn-a", "GRAB RIDE", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "GRAB RIDE", date, amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()
	// A pending check for the same sorted id set already exists.
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, []string{"txn-a", "txn-b"}).Return(true, nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, found)
	suite.mockCheckRepo.AssertNotCalled(suite.T(), "SaveCheck", mock.Anything, mock.Anything)
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_DifferentAmountsIgnored() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	a := suite.txn("txn-a", "SHELL STATION", date, decimal.NewFromInt(60), domain.TxnOut)
	b := suite.txn("txn-b", "SHELL STATION", date, decimal.NewFromInt(65), domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, found)
	suite.mockCheckRepo.AssertNotCalled(suite.T(), "SaveCheck", mock.Anything, mock.Anything)
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_OutsideDateSpanIgnored() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(12)
	a := suite.txn("txn-a", "SPOTIFY", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "SPOTIFY", date.AddDate(0, 0, 30), amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b}, nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, found, "a monthly subscription is not a duplicate")
}

func (suite *ConsistencyServiceTestSuite) TestDetectDuplicates_TripletIsHighSeverity() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(45)
	a := suite.txn("txn-a", "KOPITIAM", date, amount, domain.TxnOut)
	b := suite.txn("txn-b", "KOPITIAM", date, amount, domain.TxnOut)
	c := suite.txn("txn-c", "KOPITIAM", date, amount, domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{a, b, c}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckDuplicate, []string{"txn-a", "txn-b", "txn-c"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectDuplicates(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found)
	suite.Equal(domain.SeverityHigh, saved.Severity)
}

func (suite *ConsistencyServiceTestSuite) TestDetectTransferPairs_FlagsOutInPair() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(2000)
	out := suite.txn("txn-out", "TO POSB SAVINGS", date, amount, domain.TxnOut)
	in := suite.txn("txn-in", "FROM DBS MULTIPLIER", date.AddDate(0, 0, 1), amount, domain.TxnIn)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{out, in}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckTransferPair, []string{"txn-in", "txn-out"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectTransferPairs(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found)
	suite.Require().NotNil(saved.Details.TransferPair)
	suite.Equal("txn-out", saved.Details.TransferPair.OutTxnID)
	suite.Equal("txn-in", saved.Details.TransferPair.InTxnID)
	suite.Equal(1, saved.Details.TransferPair.GapDays)
}

func (suite *ConsistencyServiceTestSuite) TestDetectTransferPairs_OutsideWindowIgnored() {
	ctx := context.Background()
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(500)
	out := suite.txn("txn-out", "TO SAVINGS", date, amount, domain.TxnOut)
	in := suite.txn("txn-in", "SALARY", date.AddDate(0, 0, 10), amount, domain.TxnIn)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{out, in}, nil).Once()

	found, err := suite.service.DetectTransferPairs(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, found)
}

func (suite *ConsistencyServiceTestSuite) TestDetectAnomalies_RecordsDetectorFindings() {
	ctx := context.Background()
	txn := suite.txn("txn-odd", "CASH WITHDRAWAL", time.Now().UTC(), decimal.NewFromInt(5000), domain.TxnOut)

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{txn}, nil).Once()
	suite.mockDetector.On("Detect", ctx, txn).Return([]domain.AnomalyFinding{
		{AnomalyType: "amount_outlier", Message: "5000.00 is 12x the trailing mean", Severity: domain.SeverityHigh},
	}, nil).Once()
	suite.mockCheckRepo.On("ExistsPending", ctx, suite.ownerID, domain.CheckAnomaly, []string{"txn-odd"}).Return(false, nil).Once()

	var saved domain.ConsistencyCheck
	suite.mockCheckRepo.On("SaveCheck", ctx, mock.AnythingOfType("domain.ConsistencyCheck")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.ConsistencyCheck) }).Return(nil).Once()

	found, err := suite.service.DetectAnomalies(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, found)
	suite.Require().NotNil(saved.Details.Anomaly)
	suite.Equal("amount_outlier", saved.Details.Anomaly.AnomalyType)
	suite.Equal(domain.SeverityHigh, saved.Severity)
}

func (suite *ConsistencyServiceTestSuite) TestDetectAnomalies_NilDetectorFindsNothing() {
	ctx := context.Background()
	svc := services.NewConsistencyService(suite.mockTxnRepo, suite.mockCheckRepo, nil, config.ConsistencyConfig{})

	found, err := svc.DetectAnomalies(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, found)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ListApproved", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConsistencyServiceTestSuite) TestRunAll_Aggregates() {
	ctx := context.Background()

	suite.mockTxnRepo.On("ListApproved", ctx, suite.ownerID, (*string)(nil)).Return([]domain.BankTransaction{}, nil).Times(3)

	summary, err := suite.service.RunAll(ctx, suite.ownerID, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(0, summary.DuplicatesFound)
	suite.Equal(0, summary.TransferPairsFound)
	suite.Equal(0, summary.AnomaliesFound)
}

func TestConsistencyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConsistencyServiceTestSuite))
}
