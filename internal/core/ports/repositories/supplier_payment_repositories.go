package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type SupplierPaymentReader interface {
	FindSupplierPaymentByID(ctx context.Context, tenantID, paymentID string) (*domain.SupplierPayment, error)

	// SumActivePaymentsByBookingIDs returns the ACTIVE paid total per booking. Bookings without payments are absent.
	SumActivePaymentsByBookingIDs(ctx context.Context, tenantID string, bookingIDs []string) (map[string]decimal.Decimal, error)
}

type SupplierPaymentTxSupport interface {
	SaveSupplierPaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.SupplierPayment) error

	FindSupplierPaymentByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.SupplierPayment, error)

	// FindSupplierPaymentByTransactionIDForUpdate returns ErrNotFound when the expense backs no supplier payment.
	FindSupplierPaymentByTransactionIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID, transactionID string) (*domain.SupplierPayment, error)

	UpdateSupplierPaymentStatusInTx(ctx context.Context, tx pgx.Tx, tenantID, paymentID string, status domain.SupplierPaymentStatus, userID string, now time.Time) error

	// SumActivePaymentsByBookingInTx reads the paid total while the booking row is locked.
	SumActivePaymentsByBookingInTx(ctx context.Context, tx pgx.Tx, tenantID, bookingID string) (decimal.Decimal, error)
}

type SupplierPaymentRepositoryFacade interface {
	SupplierPaymentReader
	SupplierPaymentTxSupport
}
