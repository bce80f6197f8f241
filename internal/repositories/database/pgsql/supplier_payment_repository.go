package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const supplierPaymentColumns = `supplier_payment_id, tenant_id, booking_id, supplier_id, account_id, transaction_id,
	amount, notes, status, payment_date, created_at, created_by, last_updated_at, last_updated_by`

type PgxSupplierPaymentRepository struct {
	BaseRepository
}

func newPgxSupplierPaymentRepository(pool *pgxpool.Pool) *PgxSupplierPaymentRepository {
	return &PgxSupplierPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SupplierPaymentRepositoryFacade = (*PgxSupplierPaymentRepository)(nil)

func scanSupplierPayment(row pgx.Row, id string) (*domain.SupplierPayment, error) {
	var p domain.SupplierPayment
	err := row.Scan(
		&p.SupplierPaymentID,
		&p.TenantID,
		&p.BookingID,
		&p.SupplierID,
		&p.AccountID,
		&p.TransactionID,
		&p.Amount,
		&p.Notes,
		&p.Status,
		&p.Date,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("supplier payment", id)
		}
		return nil, fmt.Errorf("failed to read supplier payment %s: %w", id, err)
	}
	return &p, nil
}

// SaveSupplierPaymentInTx inserts a supplier payment next to its backing expense.
func (r *PgxSupplierPaymentRepository) SaveSupplierPaymentInTx(ctx context.Context, tx pgx.Tx, p domain.SupplierPayment) error {
	query := `
		INSERT INTO supplier_payments (` + supplierPaymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		p.SupplierPaymentID,
		p.TenantID,
		p.BookingID,
		p.SupplierID,
		p.AccountID,
		p.TransactionID,
		p.Amount,
		p.Notes,
		p.Status,
		p.Date,
		p.CreatedAt,
		p.CreatedBy,
		p.LastUpdatedAt,
		p.LastUpdatedBy,
	)
	if err != nil {
		return mapWriteError(err, "supplier payment", p.SupplierPaymentID)
	}
	return nil
}

func (r *PgxSupplierPaymentRepository) FindSupplierPaymentByID(ctx context.Context, tenantID, paymentID string) (*domain.SupplierPayment, error) {
	query := `SELECT ` + supplierPaymentColumns + ` FROM supplier_payments WHERE supplier_payment_id = $1 AND tenant_id = $2;`
	return scanSupplierPayment(r.Pool.QueryRow(ctx, query, paymentID, tenantID), paymentID)
}

func (r *PgxSupplierPaymentRepository) FindSupplierPaymentByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.SupplierPayment, error) {
	query := `SELECT ` + supplierPaymentColumns + ` FROM supplier_payments WHERE supplier_payment_id = $1 AND tenant_id = $2 FOR UPDATE;`
	return scanSupplierPayment(tx.QueryRow(ctx, query, paymentID, tenantID), paymentID)
}

func (r *PgxSupplierPaymentRepository) FindSupplierPaymentByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.SupplierPayment, error) {
	query := `SELECT ` + supplierPaymentColumns + ` FROM supplier_payments WHERE transaction_id = $1 AND tenant_id = $2 FOR UPDATE;`
	return scanSupplierPayment(tx.QueryRow(ctx, query, transactionID, tenantID), "for transaction "+transactionID)
}

func (r *PgxSupplierPaymentRepository) UpdateSupplierPaymentStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, paymentID string, status domain.SupplierPaymentStatus, userID string, now time.Time) error {
	query := `
		UPDATE supplier_payments
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE supplier_payment_id = $1 AND tenant_id = $2;
	`
	tag, err := tx.Exec(ctx, query, paymentID, tenantID, status, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update supplier payment "+paymentID, err)
	}
	return checkAffected(tag, "supplier payment", paymentID)
}

// SumActivePaymentsByBookingInTx reads the paid total while the booking row is locked.
func (r *PgxSupplierPaymentRepository) SumActivePaymentsByBookingInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM supplier_payments
		WHERE tenant_id = $1 AND booking_id = $2 AND status = 'ACTIVE';
	`
	var total decimal.Decimal
	if err := tx.QueryRow(ctx, query, tenantID, bookingID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum supplier payments of booking "+bookingID, err)
	}
	return total, nil
}

// SumActivePaymentsByBookingIDs returns the ACTIVE paid total per booking.
func (r *PgxSupplierPaymentRepository) SumActivePaymentsByBookingIDs(ctx context.Context, tenantID string, bookingIDs []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return totals, nil
	}

	query := `
		SELECT booking_id, SUM(amount)
		FROM supplier_payments
		WHERE tenant_id = $1 AND booking_id = ANY($2) AND status = 'ACTIVE'
		GROUP BY booking_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, bookingIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum supplier payments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID string
		var total decimal.Decimal
		if err := rows.Scan(&bookingID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan supplier payment total: %w", err)
		}
		totals[bookingID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supplier payment totals: %w", err)
	}
	return totals, nil
}
