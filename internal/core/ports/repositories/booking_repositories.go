package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// BookingReader defines read operations for bookings and their installment plans.
type BookingReader interface {
	FindBookingByID(ctx context.Context, tenantID, bookingID string) (*domain.Booking, error)

	// FindInstallmentsByBookingID returns the plan ordered by sequence number.
	FindInstallmentsByBookingID(ctx context.Context, tenantID, bookingID string) ([]domain.Installment, error)

	// ListExposureBookings returns bookings that carry supplier debt (supplier set, net cost > 0,
	// ACTIVE or COMPLETED), optionally restricted to one supplier.
	ListExposureBookings(ctx context.Context, tenantID string, supplierID *string) ([]domain.Booking, error)
}

// BookingTxSupport defines the in-transaction booking operations.
type BookingTxSupport interface {
	SaveBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error

	// UpdateBookingInTx persists terms, supplier data and status.
	UpdateBookingInTx(ctx context.Context, tx pgx.Tx, booking domain.Booking) error

	UpdateBookingStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, status domain.BookingStatus, userID string, now time.Time) error

	// FindBookingByIDForUpdate locks the booking row; it serializes every installment change of the booking.
	FindBookingByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (*domain.Booking, error)

	FindInstallmentsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.Installment, error)

	// UpdateInstallmentsInTx persists paid amount, status, paid date and notes.
	UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, installments []domain.Installment) error

	// ReplaceInstallmentsInTx discards the booking's plan, with its allocations, and inserts a new one.
	ReplaceInstallmentsInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string, installments []domain.Installment) error

	SaveAllocationsInTx(ctx context.Context, tx pgx.Tx, allocations []domain.InstallmentAllocation) error

	FindAllocationsByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) ([]domain.InstallmentAllocation, error)

	// FindAllocationsByBookingIDForUpdate returns the booking's allocations, oldest payment first.
	FindAllocationsByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) ([]domain.InstallmentAllocation, error)

	DeleteAllocationsByTransactionIDInTx(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) error
}

// BookingRepositoryFacade combines all booking repository interfaces.
type BookingRepositoryFacade interface {
	BookingReader
	BookingTxSupport
}
