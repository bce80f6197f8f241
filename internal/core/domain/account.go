package domain

import (
	"github.com/shopspring/decimal"
)

// Account is a tenant's bank or cash account. Balance is the running balance and
// always equals InitialBalance plus the signed sum of its ACTIVE transactions.
type Account struct {
	AccountID      string          `json:"accountID"`
	TenantID       string          `json:"tenantID"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	IsActive       bool            `json:"isActive"`
	AuditFields
}

// CanDebit reports whether the account balance covers an outgoing amount.
func (a Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
