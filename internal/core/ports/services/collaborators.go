package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// FxRateProvider supplies a spot or period-average exchange rate for a
// currency pair on a date. Unavailability must surface as
// apperrors.ErrFxRateUnavailable; the engine never defaults a rate to 1:1.
type FxRateProvider interface {
	GetRate(ctx context.Context, fromCurrency, toCurrency string, on time.Time) (decimal.Decimal, error)
}

// AnomalyDetector is the external statistical/rule-based outlier collaborator.
// Scoring logic is out of scope for this engine; it only records the findings.
type AnomalyDetector interface {
	Detect(ctx context.Context, txn domain.BankTransaction) ([]domain.AnomalyFinding, error)
}
