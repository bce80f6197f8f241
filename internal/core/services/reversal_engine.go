package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/accounting"
	"github.com/jackc/pgx/v5"
)

// cancellation summarizes what a reversal touched.
type cancellation struct {
	Cancelled         []domain.Transaction
	BookingID         *string
	BookingStatus     domain.BookingStatus
	SupplierPaymentID *string
}

// reversalEngine undoes a movement and every downstream effect it had.
//
// Rows are locked in a fixed order: transactions (source leg first), then the
// supplier payment, then the booking with its installments, then accounts.
type reversalEngine struct {
	BaseService
	recorder            *transactionRecorder
	transactionRepo     portsrepo.TransactionRepositoryFacade
	bookingRepo         portsrepo.BookingTxSupport
	supplierPaymentRepo portsrepo.SupplierPaymentTxSupport
}

func newReversalEngine(base BaseService, recorder *transactionRecorder, transactionRepo portsrepo.TransactionRepositoryFacade,
	bookingRepo portsrepo.BookingTxSupport, supplierPaymentRepo portsrepo.SupplierPaymentTxSupport) *reversalEngine {
	return &reversalEngine{
		BaseService:         base,
		recorder:            recorder,
		transactionRepo:     transactionRepo,
		bookingRepo:         bookingRepo,
		supplierPaymentRepo: supplierPaymentRepo,
	}
}

// cancelTransaction reverses the movement inside tx.
func (e *reversalEngine) cancelTransaction(ctx context.Context, tx pgx.Tx, tenantID, transactionID, userID string, now time.Time) (*cancellation, error) {
	// Route through the source leg so both legs of a transfer are always locked in the same order.
	peek, err := e.transactionRepo.FindTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	rootID := transactionID
	if peek.TransferSourceID != nil {
		rootID = *peek.TransferSourceID
	}

	txn, err := e.transactionRepo.FindTransactionByIDForUpdate(ctx, tx, tenantID, rootID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.TransactionActive {
		return nil, fmt.Errorf("%w: transaction %s is already cancelled", apperrors.ErrInvalidState, transactionID)
	}

	switch {
	case txn.Kind == domain.Transfer:
		return e.cancelTransfer(ctx, tx, *txn, userID, now)
	case txn.Kind == domain.Income && txn.BookingID != nil:
		return e.cancelBookingPayment(ctx, tx, *txn, userID, now)
	case txn.Kind == domain.Expense:
		return e.cancelExpense(ctx, tx, *txn, userID, now)
	default:
		if err := e.recorder.cancel(ctx, tx, tenantID, []domain.Transaction{*txn}, userID, now); err != nil {
			return nil, err
		}
		return &cancellation{Cancelled: []domain.Transaction{*txn}}, nil
	}
}

func (e *reversalEngine) cancelTransfer(ctx context.Context, tx pgx.Tx, source domain.Transaction, userID string, now time.Time) (*cancellation, error) {
	dest, err := e.transactionRepo.FindTransferCounterpartForUpdate(ctx, tx, source)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: transfer %s has no matching destination leg", apperrors.ErrInvalidState, source.TransactionID)
		}
		return nil, err
	}
	if dest.Status != domain.TransactionActive {
		return nil, fmt.Errorf("%w: destination leg %s of transfer %s is already cancelled",
			apperrors.ErrInvalidState, dest.TransactionID, source.TransactionID)
	}

	pair := []domain.Transaction{source, *dest}
	if err := e.recorder.cancel(ctx, tx, source.TenantID, pair, userID, now); err != nil {
		return nil, err
	}
	return &cancellation{Cancelled: pair}, nil
}

// cancelBookingPayment takes back exactly what the payment put on each installment,
// highest sequence first. Unapplied excess was never on the plan and needs no undoing.
func (e *reversalEngine) cancelBookingPayment(ctx context.Context, tx pgx.Tx, income domain.Transaction, userID string, now time.Time) (*cancellation, error) {
	bookingID := *income.BookingID
	booking, err := e.bookingRepo.FindBookingByIDForUpdate(ctx, tx, income.TenantID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking of payment %s: %w", income.TransactionID, err)
	}
	installments, err := e.bookingRepo.FindInstallmentsByBookingIDForUpdate(ctx, tx, income.TenantID, bookingID)
	if err != nil {
		return nil, err
	}

	allocations, err := e.bookingRepo.FindAllocationsByTransactionIDForUpdate(ctx, tx, income.TenantID, income.TransactionID)
	if err != nil {
		return nil, err
	}

	reversal := accounting.ReversePayment(installments, allocations)
	for i := range reversal.Touched {
		reversal.Touched[i].LastUpdatedAt = now
		reversal.Touched[i].LastUpdatedBy = userID
	}
	if len(reversal.Touched) > 0 {
		if err := e.bookingRepo.UpdateInstallmentsInTx(ctx, tx, reversal.Touched); err != nil {
			return nil, fmt.Errorf("failed to update installments: %w", err)
		}
	}
	if len(allocations) > 0 {
		if err := e.bookingRepo.DeleteAllocationsByTransactionIDInTx(ctx, tx, income.TenantID, income.TransactionID); err != nil {
			return nil, fmt.Errorf("failed to release installment allocations: %w", err)
		}
	}
	if reversal.Unreversed.IsPositive() {
		e.LogWarn(ctx, "Installments held less than the cancelled payment's allocations",
			slog.String("transaction_id", income.TransactionID),
			slog.String("booking_id", bookingID),
			slog.String("unreversed", reversal.Unreversed.String()))
	}

	status := accounting.ResolveBookingStatus(*booking, reversal.Installments)
	if status != booking.Status {
		if err := e.bookingRepo.UpdateBookingStatusInTx(ctx, tx, booking.TenantID, bookingID, status, userID, now); err != nil {
			return nil, fmt.Errorf("failed to update booking status: %w", err)
		}
	}

	if err := e.recorder.cancel(ctx, tx, income.TenantID, []domain.Transaction{income}, userID, now); err != nil {
		return nil, err
	}
	return &cancellation{
		Cancelled:     []domain.Transaction{income},
		BookingID:     &bookingID,
		BookingStatus: status,
	}, nil
}

// cancelExpense also cancels the supplier payment the expense backs, if any.
func (e *reversalEngine) cancelExpense(ctx context.Context, tx pgx.Tx, expense domain.Transaction, userID string, now time.Time) (*cancellation, error) {
	result := &cancellation{Cancelled: []domain.Transaction{expense}}

	payment, err := e.supplierPaymentRepo.FindSupplierPaymentByTransactionIDForUpdate(ctx, tx, expense.TenantID, expense.TransactionID)
	switch {
	case err == nil:
		if payment.Status == domain.SupplierPaymentActive {
			if err := e.supplierPaymentRepo.UpdateSupplierPaymentStatusInTx(ctx, tx, payment.TenantID, payment.SupplierPaymentID,
				domain.SupplierPaymentCancelled, userID, now); err != nil {
				return nil, fmt.Errorf("failed to cancel supplier payment: %w", err)
			}
		}
		id := payment.SupplierPaymentID
		result.SupplierPaymentID = &id
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		return nil, err
	}

	if err := e.recorder.cancel(ctx, tx, expense.TenantID, []domain.Transaction{expense}, userID, now); err != nil {
		return nil, err
	}
	return result, nil
}
