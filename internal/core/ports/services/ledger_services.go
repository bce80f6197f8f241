package services

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
)

// LedgerReaderSvc defines read operations over ledger movements.
type LedgerReaderSvc interface {
	GetTransactionByID(ctx context.Context, tenantID string, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccount retrieves a page of an account's movements, newest first.
	ListTransactionsByAccount(ctx context.Context, tenantID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines the money movements exposed to callers.
type LedgerWriterSvc interface {
	// RecordStandaloneMovement records an income, expense or transfer not tied to a booking.
	// For transfers the returned movement is the source-side leg.
	RecordStandaloneMovement(ctx context.Context, tenantID string, req dto.RecordMovementRequest, userID string) (*domain.Transaction, error)

	// CancelTransaction reverses an ACTIVE movement and every effect it had.
	CancelTransaction(ctx context.Context, tenantID string, transactionID string, userID string) error
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
