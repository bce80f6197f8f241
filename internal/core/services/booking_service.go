package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// bookingService maintains bookings and their installment plans.
type bookingService struct {
	BaseService
	txManager     portsrepo.TransactionManager
	bookingRepo   portsrepo.BookingRepositoryFacade
	exposureCache portsrepo.ExposureCache
}

// NewBookingService creates the booking service.
func NewBookingService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.BookingSvcFacade {
	return &bookingService{
		BaseService:   newBaseService(options...),
		txManager:     repos.TxManager,
		bookingRepo:   repos.BookingRepo,
		exposureCache: cacheOrNoop(repos.ExposureCache),
	}
}

var _ portssvc.BookingSvcFacade = (*bookingService)(nil)

func (s *bookingService) GetBooking(ctx context.Context, tenantID string, bookingID string) (*dto.BookingWithInstallments, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	installments, err := s.bookingRepo.FindInstallmentsByBookingID(ctx, tenantID, bookingID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load installments", slog.String("booking_id", bookingID))
		return nil, err
	}
	return &dto.BookingWithInstallments{Booking: *booking, Installments: installments}, nil
}

// applyTerms copies the request onto b and validates the result.
func (s *bookingService) applyTerms(b domain.Booking, req dto.BookingTermsRequest) (domain.Booking, error) {
	b.Description = req.Description
	b.TotalPrice = req.TotalPrice
	b.NetCost = req.NetCost
	b.PaymentType = domain.PaymentType(req.PaymentType)
	b.DownPayment = req.DownPayment
	b.InstallmentCount = req.InstallmentCount
	// Frequency and first payment date keep their stored values when omitted.
	if req.Frequency != "" {
		b.Frequency = domain.Frequency(req.Frequency)
	} else if b.Frequency == "" {
		b.Frequency = domain.FrequencyMonthly
	}

	if !b.TotalPrice.IsPositive() {
		return b, fmt.Errorf("%w: total price must be positive", apperrors.ErrValidation)
	}
	if b.NetCost.IsNegative() || b.DownPayment.IsNegative() {
		return b, fmt.Errorf("%w: net cost and down payment cannot be negative", apperrors.ErrValidation)
	}
	for field, amount := range map[string]decimal.Decimal{
		"totalPrice":  b.TotalPrice,
		"netCost":     b.NetCost,
		"downPayment": b.DownPayment,
	} {
		if err := validateMoney(field, amount); err != nil {
			return b, err
		}
	}
	if b.InstallmentCount < 0 {
		return b, fmt.Errorf("%w: installment count cannot be negative", apperrors.ErrValidation)
	}
	switch b.PaymentType {
	case domain.PaymentCash:
		if b.InstallmentCount > 0 {
			return b, fmt.Errorf("%w: cash bookings have no installments", apperrors.ErrValidation)
		}
	case domain.PaymentCredit:
	default:
		return b, fmt.Errorf("%w: unsupported payment type %q", apperrors.ErrValidation, req.PaymentType)
	}

	if (req.FirstPaymentDate != nil && *req.FirstPaymentDate != "") || b.FirstPaymentDate.IsZero() {
		first, err := s.businessDate(req.FirstPaymentDate)
		if err != nil {
			return b, err
		}
		b.FirstPaymentDate = first
	}

	b.SupplierID = nil
	if req.SupplierID != nil && strings.TrimSpace(*req.SupplierID) != "" {
		supplierID := strings.TrimSpace(*req.SupplierID)
		b.SupplierID = &supplierID
	}
	b.SupplierDeadline = nil
	if req.SupplierDeadline != nil && *req.SupplierDeadline != "" {
		deadline, err := s.businessDate(req.SupplierDeadline)
		if err != nil {
			return b, err
		}
		b.SupplierDeadline = &deadline
	}

	if b.UsesSchedule() {
		if err := accounting.TermsFromBooking(b).Validate(); err != nil {
			return b, err
		}
	}
	return b, nil
}

// buildPlan generates the schedule for b and spreads the collected money over it from the
// first installment, oldest payment first. It returns the plan and the new allocations.
func (s *bookingService) buildPlan(ctx context.Context, b domain.Booking, paid collected, userID string, now time.Time) ([]domain.Installment, []domain.InstallmentAllocation, error) {
	if !b.UsesSchedule() {
		if paid.Total().IsPositive() {
			s.LogWarn(ctx, "Booking no longer has installments; collected money stays on the ledger only",
				slog.String("booking_id", b.BookingID),
				slog.String("paid", paid.Total().String()))
		}
		return []domain.Installment{}, nil, nil
	}

	generated, err := accounting.GenerateSchedule(accounting.TermsFromBooking(b))
	if err != nil {
		return nil, nil, err
	}
	for i := range generated {
		generated[i].InstallmentID = uuid.NewString()
		generated[i].BookingID = b.BookingID
		generated[i].TenantID = b.TenantID
		generated[i].AuditFields = domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		}
	}

	if !paid.Total().IsPositive() {
		return generated, nil, nil
	}
	redistributed := accounting.RedistributePaid(generated, paid.Payments, paid.LastPaidDate)
	if redistributed.Unapplied.IsPositive() {
		s.LogWarn(ctx, "Collected money exceeds the regenerated plan",
			slog.String("booking_id", b.BookingID),
			slog.String("unapplied", redistributed.Unapplied.String()))
	}

	allocations := make([]domain.InstallmentAllocation, 0, len(redistributed.Allocations))
	for _, a := range redistributed.Allocations {
		if a.TransactionID != "" {
			allocations = append(allocations, a)
		}
	}
	return redistributed.Installments, allocations, nil
}

// collected is what a previous plan had received, per payment, and when it last received money.
type collected struct {
	Payments     []accounting.Collected
	LastPaidDate time.Time
}

func (c collected) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// collectedOn groups the allocations by payment in the order they are given. Paid money
// that no allocation accounts for is carried last, without a payment.
func collectedOn(installments []domain.Installment, allocations []domain.InstallmentAllocation, fallback time.Time) collected {
	paid := collected{LastPaidDate: fallback}
	index := make(map[string]int)
	attributed := decimal.Zero
	for _, a := range allocations {
		i, ok := index[a.TransactionID]
		if !ok {
			i = len(paid.Payments)
			index[a.TransactionID] = i
			paid.Payments = append(paid.Payments, accounting.Collected{
				TransactionID: a.TransactionID,
				Amount:        decimal.Zero,
				CreatedAt:     a.CreatedAt,
			})
		}
		paid.Payments[i].Amount = paid.Payments[i].Amount.Add(a.Amount)
		attributed = attributed.Add(a.Amount)
	}
	if rest := accounting.SumPaid(installments).Sub(attributed); rest.IsPositive() {
		paid.Payments = append(paid.Payments, accounting.Collected{Amount: rest})
	}

	var latest *time.Time
	for _, inst := range installments {
		if inst.PaidDate != nil && (latest == nil || inst.PaidDate.After(*latest)) {
			latest = inst.PaidDate
		}
	}
	if latest != nil {
		paid.LastPaidDate = *latest
	}
	return paid
}

// replacePlan regenerates the plan of the locked booking and persists booking, plan and
// the allocations of every payment still on it.
func (s *bookingService) replacePlan(ctx context.Context, tx pgx.Tx, b domain.Booking, userID string, now time.Time) (*dto.BookingWithInstallments, error) {
	previous, err := s.bookingRepo.FindInstallmentsByBookingIDForUpdate(ctx, tx, b.TenantID, b.BookingID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.bookingRepo.FindAllocationsByBookingIDForUpdate(ctx, tx, b.TenantID, b.BookingID)
	if err != nil {
		return nil, err
	}

	plan, moved, err := s.buildPlan(ctx, b, collectedOn(previous, allocations, s.Today()), userID, now)
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.ReplaceInstallmentsInTx(ctx, tx, b.TenantID, b.BookingID, plan); err != nil {
		return nil, fmt.Errorf("failed to replace installments: %w", err)
	}
	if len(moved) > 0 {
		if err := s.bookingRepo.SaveAllocationsInTx(ctx, tx, moved); err != nil {
			return nil, fmt.Errorf("failed to record installment allocations: %w", err)
		}
	}

	b.Status = accounting.ResolveBookingStatus(b, plan)
	b.LastUpdatedAt = now
	b.LastUpdatedBy = userID
	if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &dto.BookingWithInstallments{Booking: b, Installments: plan}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, tenantID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error) {
	now := s.Now()
	booking, err := s.applyTerms(domain.Booking{
		BookingID: uuid.NewString(),
		TenantID:  tenantID,
		Status:    domain.BookingActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}, req)
	if err != nil {
		return nil, err
	}

	plan, _, err := s.buildPlan(ctx, booking, collected{}, userID, now)
	if err != nil {
		return nil, err
	}
	booking.Status = accounting.ResolveBookingStatus(booking, plan)

	err = s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		if err := s.bookingRepo.SaveBookingInTx(ctx, tx, booking); err != nil {
			return err
		}
		return s.bookingRepo.ReplaceInstallmentsInTx(ctx, tx, tenantID, booking.BookingID, plan)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create booking", slog.String("tenant_id", tenantID))
		return nil, err
	}

	if booking.SupplierID != nil {
		s.exposureCache.InvalidateTenant(ctx, tenantID)
	}
	s.LogInfo(ctx, "Booking created",
		slog.String("booking_id", booking.BookingID),
		slog.String("payment_type", string(booking.PaymentType)),
		slog.Int("installments", len(plan)))
	return &dto.BookingWithInstallments{Booking: booking, Installments: plan}, nil
}

// UpdateBookingTerms regenerates the plan only when a term that shapes it changed.
func (s *bookingService) UpdateBookingTerms(ctx context.Context, tenantID string, bookingID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error) {
	now := s.Now()
	var result *dto.BookingWithInstallments
	err := s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		existing, err := s.bookingRepo.FindBookingByIDForUpdate(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if existing.Status == domain.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", apperrors.ErrInvalidState, bookingID)
		}

		updated, err := s.applyTerms(*existing, req)
		if err != nil {
			return err
		}

		if existing.ScheduleTermsChanged(updated) {
			result, err = s.replacePlan(ctx, tx, updated, userID, now)
			return err
		}

		updated.LastUpdatedAt = now
		updated.LastUpdatedBy = userID
		if err := s.bookingRepo.UpdateBookingInTx(ctx, tx, updated); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		installments, err := s.bookingRepo.FindInstallmentsByBookingIDForUpdate(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		result = &dto.BookingWithInstallments{Booking: updated, Installments: installments}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update booking terms", slog.String("booking_id", bookingID))
		return nil, err
	}

	s.exposureCache.InvalidateTenant(ctx, tenantID)
	s.LogInfo(ctx, "Booking terms updated", slog.String("booking_id", bookingID), slog.String("status", string(result.Booking.Status)))
	return result, nil
}

// RegenerateSchedule discards the plan and rebuilds it from the current terms,
// carrying over the money already collected.
func (s *bookingService) RegenerateSchedule(ctx context.Context, tenantID string, bookingID string, userID string) (*dto.BookingWithInstallments, error) {
	now := s.Now()
	var result *dto.BookingWithInstallments
	err := s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		booking, err := s.bookingRepo.FindBookingByIDForUpdate(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}
		if booking.Status == domain.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", apperrors.ErrInvalidState, bookingID)
		}
		result, err = s.replacePlan(ctx, tx, *booking, userID, now)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to regenerate schedule", slog.String("booking_id", bookingID))
		return nil, err
	}

	s.LogInfo(ctx, "Schedule regenerated", slog.String("booking_id", bookingID), slog.Int("installments", len(result.Installments)))
	return result, nil
}
