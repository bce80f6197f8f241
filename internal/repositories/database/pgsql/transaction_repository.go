package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, tenant_id, account_id, kind, amount, description, reference,
	booking_id, destination_account_id, transfer_source_id, status, txn_date,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for ledger movements.
func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.TransactionID,
		&t.TenantID,
		&t.AccountID,
		&t.Kind,
		&t.Amount,
		&t.Description,
		&t.Reference,
		&t.BookingID,
		&t.DestinationAccountID,
		&t.TransferSourceID,
		&t.Status,
		&t.Date,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	return t, err
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// SaveTransactionsInTx inserts movements within a given transaction.
func (r *PgxTransactionRepository) SaveTransactionsInTx(ctx context.Context, tx pgx.Tx, transactions []domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(transactions))
	for _, t := range transactions {
		batch.Queue(query,
			t.TransactionID,
			t.TenantID,
			t.AccountID,
			t.Kind,
			t.Amount,
			t.Description,
			t.Reference,
			t.BookingID,
			t.DestinationAccountID,
			t.TransferSourceID,
			t.Status,
			t.Date,
			t.CreatedAt,
			t.CreatedBy,
			t.LastUpdatedAt,
			t.LastUpdatedBy,
		)
		ids = append(ids, t.TransactionID)
	}
	if err := execBatch(ctx, tx, batch, "transaction", ids); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Err != nil {
			return mapWriteError(appErr.Err, "transaction", "batch")
		}
		return err
	}
	return nil
}

// FindTransactionByID retrieves a movement of the tenant.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, tenantID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 AND tenant_id = $2;`
	t, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return &t, nil
}

const lockTransactionQuery = `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 AND tenant_id = $2 FOR UPDATE;`

// FindTransactionByIDForUpdate selects a movement and locks its row.
func (r *PgxTransactionRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.Transaction, error) {
	t, err := scanTransaction(tx.QueryRow(ctx, lockTransactionQuery, transactionID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", transactionID)
		}
		return nil, fmt.Errorf("failed to lock transaction %s: %w", transactionID, err)
	}
	return &t, nil
}

// FindTransferCounterpartForUpdate locates the destination leg of a transfer and locks it.
func (r *PgxTransactionRepository) FindTransferCounterpartForUpdate(ctx context.Context, tx pgx.Tx, source domain.Transaction) (*domain.Transaction, error) {
	if source.DestinationAccountID == nil {
		return nil, fmt.Errorf("%w: transaction %s is not a transfer", apperrors.ErrInvalidState, source.TransactionID)
	}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tenant_id = $1 AND transfer_source_id = $2 AND account_id = $3
		  AND kind = 'INCOME' AND amount = $4 AND txn_date = $5
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE;
	`
	t, err := scanTransaction(tx.QueryRow(ctx, query,
		source.TenantID, source.TransactionID, *source.DestinationAccountID, source.Amount, source.Date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transfer counterpart of", source.TransactionID)
		}
		return nil, fmt.Errorf("failed to lock transfer counterpart of %s: %w", source.TransactionID, err)
	}
	return &t, nil
}

// UpdateTransactionStatusInTx flips the status of the given movements.
func (r *PgxTransactionRepository) UpdateTransactionStatusInTx(ctx context.Context, tx pgx.Tx, tenantID string, transactionIDs []string, status domain.TransactionStatus, userID string, now time.Time) error {
	query := `
		UPDATE transactions
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND tenant_id = $2;
	`
	batch := &pgx.Batch{}
	for _, id := range transactionIDs {
		batch.Queue(query, id, tenantID, status, now, userID)
	}
	return execBatch(ctx, tx, batch, "transaction", transactionIDs)
}

// FindTransactionsByAccountID retrieves every movement of an account, oldest first.
func (r *PgxTransactionRepository) FindTransactionsByAccountID(ctx context.Context, tenantID, accountID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY txn_date, created_at, transaction_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions for account "+accountID, err)
	}
	return collectTransactions(rows)
}

// ListTransactionsByAccountID retrieves a paginated list of transactions for a specific account using token-based pagination.
// It returns the transactions, a token for the next page, and an error.
func (r *PgxTransactionRepository) ListTransactionsByAccountID(ctx context.Context, tenantID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// One extra row tells whether another page exists.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tenant_id = $1 AND account_id = $2
	`
	orderByClause := `ORDER BY txn_date DESC, created_at DESC, transaction_id DESC`

	var rows pgx.Rows
	var err error
	if nextToken != nil && *nextToken != "" {
		cursor, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, decodeErr)
		}
		query := baseQuery + ` AND (txn_date, created_at, transaction_id) < ($3, $4, $5) ` + orderByClause + ` LIMIT $6;`
		rows, err = r.Pool.Query(ctx, query, tenantID, accountID, cursor.Date, cursor.CreatedAt, cursor.ID, fetchLimit)
	} else {
		query := baseQuery + " " + orderByClause + ` LIMIT $3;`
		rows, err = r.Pool.Query(ctx, query, tenantID, accountID, fetchLimit)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for account "+accountID, err)
	}

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to read transactions for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(transactions) > limit {
		last := transactions[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		nextTokenVal = &token
		transactions = transactions[:limit]
	}
	return transactions, nextTokenVal, nil
}
