package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionReader defines read operations for ledger movements.
type TransactionReader interface {
	// FindTransactionByID retrieves a movement of the tenant.
	FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccountID retrieves a page of an account's movements, newest first.
	// It returns the movements, a token for the next page, and an error.
	ListTransactionsByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// FindTransactionsByAccountID retrieves the full history of an account, ACTIVE and CANCELLED.
	FindTransactionsByAccountID(ctx context.Context, tenantID, accountID string) ([]domain.Transaction, error)
}

// TransactionTxSupport defines the in-transaction operations used by the recorder and the reversal engine.
type TransactionTxSupport interface {
	// SaveTransactionsInTx inserts movements within a given transaction.
	SaveTransactionsInTx(ctx context.Context, tx pgx.Tx, transactions []domain.Transaction) error

	// FindTransactionByIDForUpdate selects a movement and locks its row.
	FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.Transaction, error)

	// FindTransferCounterpartForUpdate locates and locks the destination INCOME leg of a TRANSFER
	// by destination account, amount, date and transfer-origin marker.
	FindTransferCounterpartForUpdate(ctx context.Context, tx pgx.Tx, source domain.Transaction) (*domain.Transaction, error)

	// UpdateTransactionStatusInTx flips the status of the given movements.
	UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, tenantID string, transactionIDs []string, status domain.TransactionStatus, userID string, now time.Time) error
}

// TransactionRepositoryFacade combines all ledger movement repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionTxSupport
}
