package accounting

import (
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReversalResult is the outcome of undoing a payment over an installment set.
type ReversalResult struct {
	Installments []domain.Installment
	Touched      []domain.Installment
	Reversed     decimal.Decimal
	// Unreversed is non-zero when an installment held less paid money than its
	// allocation claims, or the allocated installment no longer exists.
	Unreversed decimal.Decimal
}

// ReversePayment removes exactly what the allocations put on each installment, working
// from the highest sequence number down. Money other payments placed stays where it is.
// Installments that drop below their amount go back to PENDING and lose their paid date.
// The input slice is not modified.
func ReversePayment(installments []domain.Installment, allocations []domain.InstallmentAllocation) ReversalResult {
	ordered := SortBySequence(installments)
	owed := make(map[string]decimal.Decimal, len(allocations))
	total := decimal.Zero
	for _, a := range allocations {
		if share, ok := owed[a.InstallmentID]; ok {
			owed[a.InstallmentID] = share.Add(a.Amount)
		} else {
			owed[a.InstallmentID] = a.Amount
		}
		total = total.Add(a.Amount)
	}

	touched := make(map[int]bool)
	reversed := decimal.Zero
	for i := len(ordered) - 1; i >= 0; i-- {
		inst := &ordered[i]
		share, ok := owed[inst.InstallmentID]
		if !ok {
			continue
		}
		portion := decimal.Min(share, inst.PaidAmount)
		if !portion.IsPositive() {
			continue
		}
		inst.PaidAmount = inst.PaidAmount.Sub(portion)
		if !inst.IsSettled() {
			inst.Status = domain.InstallmentPending
			inst.PaidDate = nil
		}
		reversed = reversed.Add(portion)
		touched[i] = true
	}

	return ReversalResult{
		Installments: ordered,
		Touched:      collectTouched(ordered, touched),
		Reversed:     reversed,
		Unreversed:   total.Sub(reversed),
	}
}
