package accounting

import (
	"fmt"

	"github.com/statera-app/statera/internal/apperrors"
	"github.com/statera-app/statera/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the maximum permitted |sum(debits) - sum(credits)| for a
// single entry. Accumulated rounding from fx-converted lines stays below this.
var BalanceTolerance = decimal.New(1, -2) // 0.01

// EquationTolerance is the tolerance for the system-wide accounting equation
// check (Assets == Liabilities + Equity + Income - Expenses).
var EquationTolerance = decimal.New(1, -1) // 0.10

// CalculateSignedAmount applies the correct sign to a line amount based on
// account type and direction.
// DEBIT to ASSET/EXPENSE -> positive, CREDIT to ASSET/EXPENSE -> negative,
// DEBIT to LIABILITY/EQUITY/INCOME -> negative, CREDIT -> positive.
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := line.Amount
	isDebit := line.Direction == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return signedAmount, nil
}

// ValidateBalance checks that an entry's lines form a balanced double-entry
// set: at least two lines, every amount positive with at most two decimal
// places, and |sum(debits) - sum(credits)| within BalanceTolerance.
func ValidateBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero

	for _, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line amount must be positive for account %s", apperrors.ErrValidation, line.AccountID)
		}
		if line.Amount.Exponent() < -2 {
			return fmt.Errorf("%w: line amount %s has more than two decimal places", apperrors.ErrValidation, line.Amount.String())
		}
		if line.Direction == domain.Debit {
			debitsSum = debitsSum.Add(line.Amount)
		} else {
			creditsSum = creditsSum.Add(line.Amount)
		}
	}

	if debitsSum.Sub(creditsSum).Abs().GreaterThan(BalanceTolerance) {
		return fmt.Errorf("%w: entry does not balance, debits sum is %s and credits sum is %s",
			apperrors.ErrValidation, debitsSum.String(), creditsSum.String())
	}

	return nil
}

// ValidateFxRates checks that every line in a currency other than the owner's
// base currency carries an fx rate. Booking a foreign line without a rate
// would corrupt balances, so this is a hard validation failure.
func ValidateFxRates(lines []domain.JournalLine, baseCurrency string) error {
	for _, line := range lines {
		if line.CurrencyCode == baseCurrency {
			continue
		}
		if line.FxRate == nil || line.FxRate.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line for account %s in %s requires an fx rate against base currency %s",
				apperrors.ErrValidation, line.AccountID, line.CurrencyCode, baseCurrency)
		}
	}
	return nil
}

// NetSignedBalance folds debit and credit sums into a single balance honouring
// the account type's sign convention.
func NetSignedBalance(accountType domain.AccountType, debitSum, creditSum decimal.Decimal) decimal.Decimal {
	net := debitSum.Sub(creditSum)
	if !accountType.IsDebitPositive() {
		return net.Neg()
	}
	return net
}
