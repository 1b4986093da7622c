package accounting_test

import (
	"testing"

	"github.com/statera-app/statera/internal/core/domain"
	"github.com/statera-app/statera/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(accountID string, direction domain.TransactionType, amount string) domain.JournalLine {
	return domain.JournalLine{
		AccountID:    accountID,
		Direction:    direction,
		Amount:       decimal.RequireFromString(amount),
		CurrencyCode: "SGD",
	}
}

func TestCalculateSignedAmount(t *testing.T) {
	tests := []struct {
		name        string
		direction   domain.TransactionType
		accountType domain.AccountType
		want        string
	}{
		{"debit asset is positive", domain.Debit, domain.Asset, "100"},
		{"credit asset is negative", domain.Credit, domain.Asset, "-100"},
		{"debit expense is positive", domain.Debit, domain.Expense, "100"},
		{"debit liability is negative", domain.Debit, domain.Liability, "-100"},
		{"credit liability is positive", domain.Credit, domain.Liability, "100"},
		{"credit income is positive", domain.Credit, domain.Income, "100"},
		{"debit equity is negative", domain.Debit, domain.Equity, "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.CalculateSignedAmount(line("acc-1", tt.direction, "100"), tt.accountType)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestCalculateSignedAmount_UnknownType(t *testing.T) {
	_, err := accounting.CalculateSignedAmount(line("acc-1", domain.Debit, "100"), domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestValidateBalance(t *testing.T) {
	t.Run("balanced pair passes", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "100.00"),
			line("salary", domain.Credit, "100.00"),
		})
		assert.NoError(t, err)
	})

	t.Run("within tolerance passes", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "100.01"),
			line("salary", domain.Credit, "100.00"),
		})
		assert.NoError(t, err)
	})

	t.Run("beyond tolerance fails", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "100.02"),
			line("salary", domain.Credit, "100.00"),
		})
		assert.Error(t, err)
	})

	t.Run("fewer than two lines fails", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "100.00"),
		})
		assert.Error(t, err)
	})

	t.Run("non-positive amount fails", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "0"),
			line("salary", domain.Credit, "0"),
		})
		assert.Error(t, err)
	})

	t.Run("more than two decimal places fails", func(t *testing.T) {
		err := accounting.ValidateBalance([]domain.JournalLine{
			line("cash", domain.Debit, "10.005"),
			line("salary", domain.Credit, "10.005"),
		})
		assert.Error(t, err)
	})
}

func TestValidateFxRates(t *testing.T) {
	rate := decimal.RequireFromString("1.35")

	foreign := line("cash", domain.Debit, "100.00")
	foreign.CurrencyCode = "USD"

	t.Run("missing rate on foreign line fails", func(t *testing.T) {
		err := accounting.ValidateFxRates([]domain.JournalLine{foreign}, "SGD")
		assert.Error(t, err)
	})

	t.Run("rate present passes", func(t *testing.T) {
		withRate := foreign
		withRate.FxRate = &rate
		err := accounting.ValidateFxRates([]domain.JournalLine{withRate}, "SGD")
		assert.NoError(t, err)
	})

	t.Run("base currency line needs no rate", func(t *testing.T) {
		err := accounting.ValidateFxRates([]domain.JournalLine{line("cash", domain.Debit, "100.00")}, "SGD")
		assert.NoError(t, err)
	})
}

func TestNetSignedBalance(t *testing.T) {
	debits := decimal.RequireFromString("150.00")
	credits := decimal.RequireFromString("50.00")

	assert.True(t, accounting.NetSignedBalance(domain.Asset, debits, credits).Equal(decimal.RequireFromString("100.00")))
	assert.True(t, accounting.NetSignedBalance(domain.Income, debits, credits).Equal(decimal.RequireFromString("-100.00")))
	assert.True(t, accounting.NetSignedBalance(domain.Liability, credits, debits).Equal(decimal.RequireFromString("100.00")))
}
