package dto

import (
	"github.com/shopspring/decimal"
	"github.com/statera-app/statera/internal/core/domain"
)

// CreateAccountRequest is the payload for creating an account.
type CreateAccountRequest struct {
	Name            string             `json:"name" binding:"required"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode    string             `json:"currencyCode" binding:"required,len=3"`
	ParentAccountID string             `json:"parentAccountID"`
	Description     string             `json:"description"`
}

// AccountResponse is the API representation of an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	CurrencyCode    string             `json:"currencyCode"`
	ParentAccountID string             `json:"parentAccountID,omitempty"`
	Description     string             `json:"description,omitempty"`
	IsActive        bool               `json:"isActive"`
	IsSystem        bool               `json:"isSystem"`
}

// BalanceResponse reports a derived account balance.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain account to its API representation.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       a.AccountID,
		Name:            a.Name,
		AccountType:     a.AccountType,
		CurrencyCode:    a.CurrencyCode,
		ParentAccountID: a.ParentAccountID,
		Description:     a.Description,
		IsActive:        a.IsActive,
		IsSystem:        a.IsSystem,
	}
}
