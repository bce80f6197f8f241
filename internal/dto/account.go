package dto

import (
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a bank or cash account.
type CreateAccountRequest struct {
	Name           string          `json:"name" binding:"required,max=120"`
	Description    string          `json:"description"`
	InitialBalance decimal.Decimal `json:"initialBalance" binding:"gte=0"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID      string          `json:"accountID"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy  string          `json:"lastUpdatedBy"`
}

// ListAccountsParams defines the query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountReconciliationResponse compares the stored balance with the one implied by history.
type AccountReconciliationResponse struct {
	AccountID        string          `json:"accountID"`
	StoredBalance    decimal.Decimal `json:"storedBalance"`
	ExpectedBalance  decimal.Decimal `json:"expectedBalance"`
	Difference       decimal.Decimal `json:"difference"`
	InBalance        bool            `json:"inBalance"`
	TransactionCount int             `json:"transactionCount"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		Name:           acc.Name,
		Description:    acc.Description,
		InitialBalance: acc.InitialBalance,
		Balance:        acc.Balance,
		IsActive:       acc.IsActive,
		CreatedAt:      acc.CreatedAt,
		CreatedBy:      acc.CreatedBy,
		LastUpdatedAt:  acc.LastUpdatedAt,
		LastUpdatedBy:  acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain accounts.
func ToListAccountResponse(accounts []domain.Account) ListAccountsResponse {
	list := make([]AccountResponse, len(accounts))
	for i := range accounts {
		list[i] = ToAccountResponse(&accounts[i])
	}
	return ListAccountsResponse{Accounts: list}
}
