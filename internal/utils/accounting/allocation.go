package accounting

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentApplication is the outcome of distributing one payment over an installment set.
type PaymentApplication struct {
	// Installments is the full set, ordered by sequence number, with the payment applied.
	Installments []domain.Installment
	// Touched holds only the installments whose state changed.
	Touched []domain.Installment
	// Applied is the part of the payment absorbed by installments.
	Applied decimal.Decimal
	// Unapplied is what was left once every reachable installment was fully paid.
	Unapplied decimal.Decimal
	// Allocations holds one entry per installment that absorbed money, in sequence order.
	Allocations []domain.InstallmentAllocation
}

// Collected is the money one earlier payment put on a plan.
type Collected struct {
	TransactionID string
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

// SortBySequence returns a copy of installments ordered by sequence number.
func SortBySequence(installments []domain.Installment) []domain.Installment {
	sorted := make([]domain.Installment, len(installments))
	copy(sorted, installments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber < sorted[j].SequenceNumber
	})
	return sorted
}

// ApplyPayment distributes amount over the installments, starting at startingInstallmentID
// and spilling forward in sequence order. Fully paid installments are skipped. Notes go on
// the starting installment only. The input slice is not modified.
func ApplyPayment(installments []domain.Installment, startingInstallmentID string, amount decimal.Decimal, notes *string, paidAt time.Time) (PaymentApplication, error) {
	if !amount.IsPositive() {
		return PaymentApplication{}, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	ordered := SortBySequence(installments)
	start := -1
	for i, inst := range ordered {
		if inst.InstallmentID == startingInstallmentID {
			start = i
			break
		}
	}
	if start < 0 {
		return PaymentApplication{}, apperrors.NewNotFoundError("installment", startingInstallmentID)
	}

	touched := make(map[int]bool)
	if notes != nil {
		n := *notes
		ordered[start].Notes = &n
		touched[start] = true
	}

	unapplied, allocations := distribute(ordered, start, amount, paidAt, touched)
	return PaymentApplication{
		Installments: ordered,
		Touched:      collectTouched(ordered, touched),
		Applied:      amount.Sub(unapplied),
		Unapplied:    unapplied,
		Allocations:  allocations,
	}, nil
}

// RedistributePaid spreads the money of earlier payments over a freshly generated schedule,
// oldest payment first, each from the first installment onward. Used when a booking's
// schedule is regenerated. Allocations carry the transaction and creation time of the
// payment they came from.
func RedistributePaid(installments []domain.Installment, payments []Collected, paidAt time.Time) PaymentApplication {
	ordered := SortBySequence(installments)
	touched := make(map[int]bool)
	result := PaymentApplication{Applied: decimal.Zero, Unapplied: decimal.Zero}
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			continue
		}
		if len(ordered) == 0 {
			result.Unapplied = result.Unapplied.Add(p.Amount)
			continue
		}
		unapplied, allocations := distribute(ordered, 0, p.Amount, paidAt, touched)
		for i := range allocations {
			allocations[i].TransactionID = p.TransactionID
			allocations[i].CreatedAt = p.CreatedAt
		}
		result.Allocations = append(result.Allocations, allocations...)
		result.Applied = result.Applied.Add(p.Amount.Sub(unapplied))
		result.Unapplied = result.Unapplied.Add(unapplied)
	}
	result.Installments = ordered
	result.Touched = collectTouched(ordered, touched)
	return result
}

// distribute mutates ordered in place and returns the undistributed remainder together
// with the share each installment absorbed.
func distribute(ordered []domain.Installment, start int, amount decimal.Decimal, paidAt time.Time, touched map[int]bool) (decimal.Decimal, []domain.InstallmentAllocation) {
	remaining := amount
	var allocations []domain.InstallmentAllocation
	for i := start; i < len(ordered) && remaining.IsPositive(); i++ {
		inst := &ordered[i]
		if inst.IsSettled() {
			continue
		}
		portion := decimal.Min(remaining, inst.Outstanding())
		inst.PaidAmount = inst.PaidAmount.Add(portion)
		if inst.IsSettled() {
			inst.Status = domain.InstallmentPaid
			at := paidAt
			inst.PaidDate = &at
		}
		remaining = remaining.Sub(portion)
		touched[i] = true
		allocations = append(allocations, domain.InstallmentAllocation{
			InstallmentID: inst.InstallmentID,
			BookingID:     inst.BookingID,
			TenantID:      inst.TenantID,
			Amount:        portion,
		})
	}
	return remaining, allocations
}

func collectTouched(ordered []domain.Installment, touched map[int]bool) []domain.Installment {
	out := make([]domain.Installment, 0, len(touched))
	for i, inst := range ordered {
		if touched[i] {
			out = append(out, inst)
		}
	}
	return out
}

// ResolveBookingStatus derives the status a booking must have given its installment set.
// Cancelled bookings stay cancelled and CASH bookings are always complete. A CREDIT booking
// is COMPLETED exactly when every installment is PAID, and ACTIVE otherwise.
func ResolveBookingStatus(b domain.Booking, installments []domain.Installment) domain.BookingStatus {
	if b.Status == domain.BookingCancelled {
		return domain.BookingCancelled
	}
	if b.PaymentType == domain.PaymentCash {
		return domain.BookingCompleted
	}
	if len(installments) == 0 {
		return domain.BookingActive
	}
	for _, inst := range installments {
		if inst.Status != domain.InstallmentPaid {
			return domain.BookingActive
		}
	}
	return domain.BookingCompleted
}
