package models

// AccountType mirrors the account_type column.
type AccountType string

// Account is the row shape of the accounts table.
type Account struct {
	AccountID       string      `json:"accountID"` // Primary key (UUID)
	OwnerID         string      `json:"ownerID"`
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	CurrencyCode    string      `json:"currencyCode"`
	ParentAccountID string      `json:"parentAccountID"` // Empty when top-level
	Description     string      `json:"description"`
	IsActive        bool        `json:"isActive"`
	IsSystem        bool        `json:"isSystem"`
	AuditFields
}
