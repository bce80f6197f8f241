package services

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account of the tenant.
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of the tenant's accounts.
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account master data
type AccountWriterSvc interface {
	// CreateAccount opens a new account whose balance starts at its initial balance.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
}

// AccountCalculatorSvc defines calculation operations for account data
type AccountCalculatorSvc interface {
	// ReconcileAccount recomputes the balance from history and compares it with the stored one.
	ReconcileAccount(ctx context.Context, tenantID string, accountID string) (*dto.AccountReconciliationResponse, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountCalculatorSvc
}
