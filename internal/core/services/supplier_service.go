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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// supplierService records payments to suppliers and aggregates what is still owed.
type supplierService struct {
	BaseService
	txManager           portsrepo.TransactionManager
	bookingRepo         portsrepo.BookingRepositoryFacade
	supplierPaymentRepo portsrepo.SupplierPaymentRepositoryFacade
	recorder            *transactionRecorder
	reversal            *reversalEngine
	exposureCache       portsrepo.ExposureCache
}

// NewSupplierService creates the supplier debt service.
func NewSupplierService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.SupplierSvcFacade {
	base := newBaseService(options...)
	recorder := newTransactionRecorder(base, repos.AccountRepo, repos.TransactionRepo)
	return &supplierService{
		BaseService:         base,
		txManager:           repos.TxManager,
		bookingRepo:         repos.BookingRepo,
		supplierPaymentRepo: repos.SupplierPaymentRepo,
		recorder:            recorder,
		reversal:            newReversalEngine(base, recorder, repos.TransactionRepo, repos.BookingRepo, repos.SupplierPaymentRepo),
		exposureCache:       cacheOrNoop(repos.ExposureCache),
	}
}

var _ portssvc.SupplierSvcFacade = (*supplierService)(nil)

func (s *supplierService) GetSupplierPayment(ctx context.Context, tenantID string, paymentID string) (*domain.SupplierPayment, error) {
	return s.supplierPaymentRepo.FindSupplierPaymentByID(ctx, tenantID, paymentID)
}

// RecordSupplierPayment pays part of a booking's net cost from an account. The payment
// may not exceed the remaining supplier debt nor the account balance.
func (s *supplierService) RecordSupplierPayment(ctx context.Context, tenantID string, req dto.RecordSupplierPaymentRequest, userID string) (*domain.SupplierPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if err := validateMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.BookingID == "" || req.SupplierID == "" || req.AccountID == "" {
		return nil, fmt.Errorf("%w: bookingID, supplierID and accountID are required", apperrors.ErrValidation)
	}
	date, err := s.businessDate(req.Date)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var payment domain.SupplierPayment
	err = s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		booking, err := s.bookingRepo.FindBookingByIDForUpdate(ctx, tx, tenantID, req.BookingID)
		if err != nil {
			return err
		}
		if booking.Status == domain.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", apperrors.ErrInvalidState, req.BookingID)
		}
		if booking.SupplierID == nil || *booking.SupplierID != req.SupplierID {
			return fmt.Errorf("%w: booking %s is not supplied by %s", apperrors.ErrValidation, req.BookingID, req.SupplierID)
		}

		paid, err := s.supplierPaymentRepo.SumActivePaymentsByBookingInTx(ctx, tx, tenantID, req.BookingID)
		if err != nil {
			return err
		}
		remaining := booking.NetCost.Sub(paid)
		if req.Amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: payment %s exceeds remaining supplier debt %s",
				apperrors.ErrInsufficientFunds, req.Amount.StringFixed(2), remaining.StringFixed(2))
		}

		bookingID := req.BookingID
		expense, err := s.recorder.recordExpense(ctx, tx, movement{
			TenantID:    tenantID,
			AccountID:   req.AccountID,
			Amount:      req.Amount,
			Description: "Supplier payment to " + req.SupplierID + " for booking " + req.BookingID,
			BookingID:   &bookingID,
			Date:        date,
			UserID:      userID,
			Now:         now,
		})
		if err != nil {
			return err
		}

		payment = domain.SupplierPayment{
			SupplierPaymentID: uuid.NewString(),
			TenantID:          tenantID,
			BookingID:         req.BookingID,
			SupplierID:        req.SupplierID,
			AccountID:         req.AccountID,
			TransactionID:     expense.TransactionID,
			Amount:            req.Amount,
			Notes:             req.Notes,
			Status:            domain.SupplierPaymentActive,
			Date:              date,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		return s.supplierPaymentRepo.SaveSupplierPaymentInTx(ctx, tx, payment)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record supplier payment",
			slog.String("booking_id", req.BookingID),
			slog.String("supplier_id", req.SupplierID))
		return nil, err
	}

	s.exposureCache.InvalidateTenant(ctx, tenantID)
	s.LogInfo(ctx, "Supplier payment recorded",
		slog.String("supplier_payment_id", payment.SupplierPaymentID),
		slog.String("transaction_id", payment.TransactionID),
		slog.String("amount", payment.Amount.String()))
	return &payment, nil
}

// CancelSupplierPayment cancels the payment together with its backing expense.
func (s *supplierService) CancelSupplierPayment(ctx context.Context, tenantID string, paymentID string, userID string) error {
	payment, err := s.supplierPaymentRepo.FindSupplierPaymentByID(ctx, tenantID, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != domain.SupplierPaymentActive {
		return fmt.Errorf("%w: supplier payment %s is already cancelled", apperrors.ErrInvalidState, paymentID)
	}

	now := s.Now()
	err = s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		_, err := s.reversal.cancelTransaction(ctx, tx, tenantID, payment.TransactionID, userID, now)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel supplier payment", slog.String("supplier_payment_id", paymentID))
		return err
	}

	s.exposureCache.InvalidateTenant(ctx, tenantID)
	s.LogInfo(ctx, "Supplier payment cancelled",
		slog.String("supplier_payment_id", paymentID),
		slog.String("transaction_id", payment.TransactionID))
	return nil
}

// GetSupplierExposure classifies every booking with supplier debt as of the agency's today.
func (s *supplierService) GetSupplierExposure(ctx context.Context, tenantID string, supplierID *string) (*domain.ExposureReport, error) {
	today := s.Today()
	scope := "*"
	if supplierID != nil && *supplierID != "" {
		scope = *supplierID
	} else {
		supplierID = nil
	}
	cacheKey := today.Format(dto.DateLayout) + "|" + scope

	cached, version, ok := s.exposureCache.GetExposure(ctx, tenantID, cacheKey)
	if ok {
		s.LogDebug(ctx, "Supplier exposure served from cache", slog.String("scope", scope))
		return cached, nil
	}

	bookings, err := s.bookingRepo.ListExposureBookings(ctx, tenantID, supplierID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list exposure bookings", slog.String("scope", scope))
		return nil, err
	}
	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.BookingID
	}
	paid, err := s.supplierPaymentRepo.SumActivePaymentsByBookingIDs(ctx, tenantID, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum supplier payments", slog.String("scope", scope))
		return nil, err
	}

	report := accounting.BuildExposureReport(bookings, paid, today, s.riskWarningDays)
	s.exposureCache.SetExposure(ctx, tenantID, cacheKey, version, report)
	return &report, nil
}
