package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// ProcessingAccountName is the reserved name of the system account through
// which every internal transfer leg is booked.
const ProcessingAccountName = "Processing"

// Account represents a financial account within the core domain.
// Balances are not persisted on the account row; they are derived from the
// lines of posted/reconciled journal entries so that drafts and voided entries
// can never leak into a reported balance.
type Account struct {
	AccountID       string      `json:"accountID"`       // Primary key (UUID)
	OwnerID         string      `json:"ownerID"`         // Owning tenant (NON-NULL)
	Name            string      `json:"name"`            // User-defined name
	AccountType     AccountType `json:"accountType"`     // ASSET, LIABILITY, etc.
	CurrencyCode    string      `json:"currencyCode"`    // ISO currency code (NON-NULL)
	ParentAccountID string      `json:"parentAccountID"` // Nullable self-reference
	Description     string      `json:"description"`     // Nullable user description
	IsActive        bool        `json:"isActive"`        // Soft delete flag; never hard-deleted once referenced
	IsSystem        bool        `json:"isSystem"`        // System-bootstrapped (e.g. Processing)
	AuditFields
}

// IsDebitPositive reports whether the balance sign convention for the type is
// debit-positive (ASSET/EXPENSE) rather than credit-positive.
func (t AccountType) IsDebitPositive() bool {
	return t == Asset || t == Expense
}
