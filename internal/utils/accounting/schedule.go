package accounting

import (
	"fmt"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ScheduleTerms are the priced terms an installment plan is generated from.
type ScheduleTerms struct {
	TotalPrice       decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
	Frequency        domain.Frequency
	StartDate        time.Time
}

// TermsFromBooking extracts the schedule terms of a booking.
func TermsFromBooking(b domain.Booking) ScheduleTerms {
	return ScheduleTerms{
		TotalPrice:       b.TotalPrice,
		DownPayment:      b.DownPayment,
		InstallmentCount: b.InstallmentCount,
		Frequency:        b.Frequency,
		StartDate:        b.FirstPaymentDate,
	}
}

// Validate rejects terms that cannot produce a schedule.
func (t ScheduleTerms) Validate() error {
	if t.InstallmentCount < 1 {
		return fmt.Errorf("%w: installment count must be at least 1", apperrors.ErrValidation)
	}
	if !t.TotalPrice.IsPositive() {
		return fmt.Errorf("%w: total price must be positive", apperrors.ErrValidation)
	}
	if t.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down payment cannot be negative", apperrors.ErrValidation)
	}
	if t.DownPayment.GreaterThanOrEqual(t.TotalPrice) {
		return fmt.Errorf("%w: down payment must be less than total price", apperrors.ErrValidation)
	}
	if t.Frequency != domain.FrequencySemimonthly && t.Frequency != domain.FrequencyMonthly {
		return fmt.Errorf("%w: unsupported frequency %q", apperrors.ErrValidation, t.Frequency)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", apperrors.ErrValidation)
	}
	return nil
}

// GenerateSchedule amortizes TotalPrice-DownPayment over InstallmentCount installments.
//
// Every installment but the last gets floor(remaining/count) whole currency units; the last
// one absorbs the remainder, so the amounts always sum to exactly the financed amount.
// Returned installments carry sequence, due date and amount only; identity is assigned by the caller.
func GenerateSchedule(terms ScheduleTerms) ([]domain.Installment, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	remaining := terms.TotalPrice.Sub(terms.DownPayment)
	count := decimal.NewFromInt(int64(terms.InstallmentCount))
	base := remaining.Div(count).Floor()
	last := remaining.Sub(base.Mul(decimal.NewFromInt(int64(terms.InstallmentCount - 1))))

	installments := make([]domain.Installment, 0, terms.InstallmentCount)
	due := terms.StartDate
	for i := 0; i < terms.InstallmentCount; i++ {
		switch terms.Frequency {
		case domain.FrequencySemimonthly:
			due = NextSemimonthlyDueDate(due)
		case domain.FrequencyMonthly:
			due = MonthlyDueDate(terms.StartDate, i)
		}

		amount := base
		if i == terms.InstallmentCount-1 {
			amount = last
		}

		status := domain.InstallmentPending
		if amount.IsZero() {
			// nothing to collect when the financed amount is smaller than the count
			status = domain.InstallmentPaid
		}

		installments = append(installments, domain.Installment{
			SequenceNumber: i + 1,
			DueDate:        due,
			Amount:         amount,
			PaidAmount:     decimal.Zero,
			Status:         status,
		})
	}
	return installments, nil
}
