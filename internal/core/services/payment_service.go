package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/accounting"
	"github.com/jackc/pgx/v5"
)

// paymentService applies customer payments to installment plans.
type paymentService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	bookingRepo portsrepo.BookingTxSupport
	recorder    *transactionRecorder
}

// NewPaymentService creates the payment applier.
func NewPaymentService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.PaymentSvcFacade {
	base := newBaseService(options...)
	return &paymentService{
		BaseService: base,
		txManager:   repos.TxManager,
		bookingRepo: repos.BookingRepo,
		recorder:    newTransactionRecorder(base, repos.AccountRepo, repos.TransactionRepo),
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// ApplyPayment distributes the payment from the chosen installment forward and records
// one INCOME for the full amount, plus the share each installment absorbed so a later
// cancellation undoes exactly this payment. Money left after the last installment is
// reported as unapplied; the income still carries the whole amount.
func (s *paymentService) ApplyPayment(ctx context.Context, tenantID string, bookingID string, req dto.ApplyPaymentRequest, userID string) (*dto.ApplyPaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if err := validateMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: a funding account is required", apperrors.ErrValidation)
	}
	if req.StartingInstallmentID == "" {
		return nil, fmt.Errorf("%w: startingInstallmentID is required", apperrors.ErrValidation)
	}
	paidAt, err := s.businessDate(req.Date)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	result := &dto.ApplyPaymentResult{}
	err = s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		booking, err := s.bookingRepo.FindBookingByIDForUpdate(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == domain.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", apperrors.ErrInvalidState, bookingID)
		}

		installments, err := s.bookingRepo.FindInstallmentsByBookingIDForUpdate(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}

		application, err := accounting.ApplyPayment(installments, req.StartingInstallmentID, req.Amount, req.Notes, paidAt)
		if err != nil {
			return err
		}
		for i := range application.Touched {
			application.Touched[i].LastUpdatedAt = now
			application.Touched[i].LastUpdatedBy = userID
		}
		if len(application.Touched) > 0 {
			if err := s.bookingRepo.UpdateInstallmentsInTx(ctx, tx, application.Touched); err != nil {
				return fmt.Errorf("failed to update installments: %w", err)
			}
		}

		status := accounting.ResolveBookingStatus(*booking, application.Installments)
		if status != booking.Status {
			if err := s.bookingRepo.UpdateBookingStatusInTx(ctx, tx, tenantID, bookingID, status, userID, now); err != nil {
				return fmt.Errorf("failed to update booking status: %w", err)
			}
		}

		income, err := s.recorder.recordIncome(ctx, tx, movement{
			TenantID:    tenantID,
			AccountID:   req.AccountID,
			Amount:      req.Amount,
			Description: paymentDescription(booking),
			BookingID:   &bookingID,
			Date:        paidAt,
			UserID:      userID,
			Now:         now,
		})
		if err != nil {
			return err
		}

		allocations := application.Allocations
		for i := range allocations {
			allocations[i].TransactionID = income.TransactionID
			allocations[i].BookingID = bookingID
			allocations[i].TenantID = tenantID
			allocations[i].CreatedAt = now
		}
		if len(allocations) > 0 {
			if err := s.bookingRepo.SaveAllocationsInTx(ctx, tx, allocations); err != nil {
				return fmt.Errorf("failed to record installment allocations: %w", err)
			}
		}

		result.BookingStatus = status
		result.UpdatedInstallments = application.Touched
		result.Transaction = *income
		result.AppliedAmount = application.Applied
		result.UnappliedAmount = application.Unapplied
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to apply payment",
			slog.String("booking_id", bookingID),
			slog.String("starting_installment_id", req.StartingInstallmentID))
		return nil, err
	}

	if result.UnappliedAmount.IsPositive() {
		s.LogWarn(ctx, "Payment exceeded the outstanding installments",
			slog.String("booking_id", bookingID),
			slog.String("transaction_id", result.Transaction.TransactionID),
			slog.String("unapplied", result.UnappliedAmount.String()))
	}
	s.LogInfo(ctx, "Payment applied",
		slog.String("booking_id", bookingID),
		slog.String("transaction_id", result.Transaction.TransactionID),
		slog.String("booking_status", string(result.BookingStatus)))
	return result, nil
}

func paymentDescription(b *domain.Booking) string {
	if b.Description == "" {
		return "Payment for booking " + b.BookingID
	}
	return "Payment for booking " + b.BookingID + ": " + b.Description
}
