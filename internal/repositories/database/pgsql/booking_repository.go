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
)

const bookingColumns = `booking_id, tenant_id, description, total_price, net_cost, payment_type, down_payment,
	installment_count, frequency, first_payment_date, status, supplier_id, supplier_deadline,
	created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `installment_id, booking_id, tenant_id, sequence_number, due_date, amount, paid_amount,
	status, paid_date, notes, created_at, created_by, last_updated_at, last_updated_by`

const allocationColumns = `transaction_id, installment_id, booking_id, tenant_id, amount, created_at`

// Row locks taken by the payment and reversal units.
const (
	lockBookingQuery = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1 AND tenant_id = $2 FOR UPDATE;`

	lockInstallmentsQuery = `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE booking_id = $1 AND tenant_id = $2
		ORDER BY sequence_number
		FOR UPDATE;
	`

	lockTransactionAllocationsQuery = `
		SELECT ` + allocationColumns + `
		FROM installment_allocations
		WHERE transaction_id = $1 AND tenant_id = $2
		ORDER BY installment_id
		FOR UPDATE;
	`

	lockBookingAllocationsQuery = `
		SELECT ` + allocationColumns + `
		FROM installment_allocations
		WHERE booking_id = $1 AND tenant_id = $2
		ORDER BY created_at, transaction_id, installment_id
		FOR UPDATE;
	`
)

type PgxBookingRepository struct {
	BaseRepository
}

// newPgxBookingRepository creates a new repository for bookings and installment plans.
func newPgxBookingRepository(pool *pgxpool.Pool) *PgxBookingRepository {
	return &PgxBookingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BookingRepositoryFacade = (*PgxBookingRepository)(nil)

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.BookingID,
		&b.TenantID,
		&b.Description,
		&b.TotalPrice,
		&b.NetCost,
		&b.PaymentType,
		&b.DownPayment,
		&b.InstallmentCount,
		&b.Frequency,
		&b.FirstPaymentDate,
		&b.Status,
		&b.SupplierID,
		&b.SupplierDeadline,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	return b, err
}

func scanInstallments(rows pgx.Rows) ([]domain.Installment, error) {
	defer rows.Close()
	installments := []domain.Installment{}
	for rows.Next() {
		var i domain.Installment
		err := rows.Scan(
			&i.InstallmentID,
			&i.BookingID,
			&i.TenantID,
			&i.SequenceNumber,
			&i.DueDate,
			&i.Amount,
			&i.PaidAmount,
			&i.Status,
			&i.PaidDate,
			&i.Notes,
			&i.CreatedAt,
			&i.CreatedBy,
			&i.LastUpdatedAt,
			&i.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		installments = append(installments, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installment rows: %w", err)
	}
	return installments, nil
}

func (r *PgxBookingRepository) findBooking(ctx context.Context, q pgx.Tx, tenantID, bookingID string, forUpdate bool) (*domain.Booking, error) {
	var row pgx.Row
	if forUpdate {
		row = q.QueryRow(ctx, lockBookingQuery, bookingID, tenantID)
	} else {
		row = r.Pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1 AND tenant_id = $2;`, bookingID, tenantID)
	}
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("booking", bookingID)
		}
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}
	return &b, nil
}

// FindBookingByID retrieves a booking of the tenant.
func (r *PgxBookingRepository) FindBookingByID(ctx context.Context, tenantID, bookingID string) (*domain.Booking, error) {
	return r.findBooking(ctx, nil, tenantID, bookingID, false)
}

// FindBookingByIDForUpdate retrieves a booking and locks its row.
func (r *PgxBookingRepository) FindBookingByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (*domain.Booking, error) {
	return r.findBooking(ctx, tx, tenantID, bookingID, true)
}

// FindInstallmentsByBookingID returns the plan ordered by sequence number.
func (r *PgxBookingRepository) FindInstallmentsByBookingID(ctx context.Context, tenantID, bookingID string) ([]domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE booking_id = $1 AND tenant_id = $2
		ORDER BY sequence_number;
	`
	rows, err := r.Pool.Query(ctx, query, bookingID, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query installments of booking "+bookingID, err)
	}
	return scanInstallments(rows)
}

// FindInstallmentsByBookingIDForUpdate returns the plan with every row locked.
func (r *PgxBookingRepository) FindInstallmentsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.Installment, error) {
	rows, err := tx.Query(ctx, lockInstallmentsQuery, bookingID, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock installments of booking "+bookingID, err)
	}
	return scanInstallments(rows)
}

// ListExposureBookings returns the bookings that carry supplier debt.
func (r *PgxBookingRepository) ListExposureBookings(ctx context.Context, tenantID string, supplierID *string) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1
		  AND supplier_id IS NOT NULL
		  AND net_cost > 0
		  AND status IN ('ACTIVE', 'COMPLETED')
		  AND ($2::text IS NULL OR supplier_id = $2)
		ORDER BY supplier_id, supplier_deadline NULLS LAST, booking_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, supplierID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query exposure bookings", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating booking rows: %w", err)
	}
	return bookings, nil
}

// SaveBookingInTx inserts a new booking.
func (r *PgxBookingRepository) SaveBookingInTx(ctx context.Context, tx pgx.Tx, b domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, query,
		b.BookingID,
		b.TenantID,
		b.Description,
		b.TotalPrice,
		b.NetCost,
		b.PaymentType,
		b.DownPayment,
		b.InstallmentCount,
		b.Frequency,
		b.FirstPaymentDate,
		b.Status,
		b.SupplierID,
		b.SupplierDeadline,
		b.CreatedAt,
		b.CreatedBy,
		b.LastUpdatedAt,
		b.LastUpdatedBy,
	)
	if err != nil {
		return mapWriteError(err, "booking", b.BookingID)
	}
	return nil
}

// UpdateBookingInTx persists terms, supplier data and status.
func (r *PgxBookingRepository) UpdateBookingInTx(ctx context.Context, tx pgx.Tx, b domain.Booking) error {
	query := `
		UPDATE bookings
		SET description = $3, total_price = $4, net_cost = $5, payment_type = $6, down_payment = $7,
		    installment_count = $8, frequency = $9, first_payment_date = $10, status = $11,
		    supplier_id = $12, supplier_deadline = $13, last_updated_at = $14, last_updated_by = $15
		WHERE booking_id = $1 AND tenant_id = $2;
	`
	tag, err := tx.Exec(ctx, query,
		b.BookingID,
		b.TenantID,
		b.Description,
		b.TotalPrice,
		b.NetCost,
		b.PaymentType,
		b.DownPayment,
		b.InstallmentCount,
		b.Frequency,
		b.FirstPaymentDate,
		b.Status,
		b.SupplierID,
		b.SupplierDeadline,
		b.LastUpdatedAt,
		b.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update booking "+b.BookingID, err)
	}
	return checkAffected(tag, "booking", b.BookingID)
}

// UpdateBookingStatusInTx changes only the lifecycle status.
func (r *PgxBookingRepository) UpdateBookingStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, status domain.BookingStatus, userID string, now time.Time) error {
	query := `
		UPDATE bookings
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE booking_id = $1 AND tenant_id = $2;
	`
	tag, err := tx.Exec(ctx, query, bookingID, tenantID, status, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of booking "+bookingID, err)
	}
	return checkAffected(tag, "booking", bookingID)
}

// UpdateInstallmentsInTx persists paid amount, status, paid date and notes.
func (r *PgxBookingRepository) UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, installments []domain.Installment) error {
	query := `
		UPDATE installments
		SET paid_amount = $3, status = $4, paid_date = $5, notes = $6, last_updated_at = $7, last_updated_by = $8
		WHERE installment_id = $1 AND tenant_id = $2;
	`
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(installments))
	for _, i := range installments {
		batch.Queue(query, i.InstallmentID, i.TenantID, i.PaidAmount, i.Status, i.PaidDate, i.Notes, i.LastUpdatedAt, i.LastUpdatedBy)
		ids = append(ids, i.InstallmentID)
	}
	return execBatch(ctx, tx, batch, "installment", ids)
}

// ReplaceInstallmentsInTx discards the booking's plan, with its allocations, and inserts a new one.
func (r *PgxBookingRepository) ReplaceInstallmentsInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, installments []domain.Installment) error {
	if _, err := tx.Exec(ctx, `DELETE FROM installment_allocations WHERE booking_id = $1 AND tenant_id = $2;`, bookingID, tenantID); err != nil {
		return apperrors.NewAppError(500, "failed to delete allocations of booking "+bookingID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM installments WHERE booking_id = $1 AND tenant_id = $2;`, bookingID, tenantID); err != nil {
		return apperrors.NewAppError(500, "failed to delete installments of booking "+bookingID, err)
	}
	if len(installments) == 0 {
		return nil
	}

	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(installments))
	for _, i := range installments {
		batch.Queue(query,
			i.InstallmentID, i.BookingID, i.TenantID, i.SequenceNumber, i.DueDate, i.Amount, i.PaidAmount,
			i.Status, i.PaidDate, i.Notes, i.CreatedAt, i.CreatedBy, i.LastUpdatedAt, i.LastUpdatedBy,
		)
		ids = append(ids, i.InstallmentID)
	}
	return execBatch(ctx, tx, batch, "installment", ids)
}

func scanAllocations(rows pgx.Rows) ([]domain.InstallmentAllocation, error) {
	defer rows.Close()
	allocations := []domain.InstallmentAllocation{}
	for rows.Next() {
		var a domain.InstallmentAllocation
		if err := rows.Scan(&a.TransactionID, &a.InstallmentID, &a.BookingID, &a.TenantID, &a.Amount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation rows: %w", err)
	}
	return allocations, nil
}

// SaveAllocationsInTx records how payments were spread over installments.
func (r *PgxBookingRepository) SaveAllocationsInTx(ctx context.Context, tx pgx.Tx, allocations []domain.InstallmentAllocation) error {
	query := `
		INSERT INTO installment_allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	ids := make([]string, 0, len(allocations))
	for _, a := range allocations {
		batch.Queue(query, a.TransactionID, a.InstallmentID, a.BookingID, a.TenantID, a.Amount, a.CreatedAt)
		ids = append(ids, a.TransactionID+"/"+a.InstallmentID)
	}
	return execBatch(ctx, tx, batch, "installment allocation", ids)
}

// FindAllocationsByTransactionIDForUpdate locks what one payment put on the plan.
func (r *PgxBookingRepository) FindAllocationsByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) ([]domain.InstallmentAllocation, error) {
	rows, err := tx.Query(ctx, lockTransactionAllocationsQuery, transactionID, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock allocations of transaction "+transactionID, err)
	}
	return scanAllocations(rows)
}

// FindAllocationsByBookingIDForUpdate returns the booking's allocations, oldest payment first.
func (r *PgxBookingRepository) FindAllocationsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.InstallmentAllocation, error) {
	rows, err := tx.Query(ctx, lockBookingAllocationsQuery, bookingID, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock allocations of booking "+bookingID, err)
	}
	return scanAllocations(rows)
}

// DeleteAllocationsByTransactionIDInTx forgets a reversed payment's allocations.
func (r *PgxBookingRepository) DeleteAllocationsByTransactionIDInTx(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM installment_allocations WHERE transaction_id = $1 AND tenant_id = $2;`, transactionID, tenantID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete allocations of transaction "+transactionID, err)
	}
	return nil
}
