package accounting

import (
	"sort"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultWarningDays is how close a supplier deadline must be to turn YELLOW.
const DefaultWarningDays = 7

// ClassifyRisk labels an outstanding supplier obligation. today and deadline are
// compared as calendar dates.
func ClassifyRisk(remaining decimal.Decimal, deadline *time.Time, today time.Time, warningDays int) domain.TrafficLight {
	if !remaining.IsPositive() {
		return domain.RiskGreen
	}
	if deadline == nil {
		return domain.RiskGray
	}
	// deadlines are stored as plain dates; keep the calendar day as-is
	day := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, today.Location())
	switch {
	case day.Before(today):
		return domain.RiskRed
	case !day.After(today.AddDate(0, 0, warningDays)):
		return domain.RiskYellow
	default:
		return domain.RiskGreen
	}
}

// ExposureEligible reports whether a booking carries supplier debt worth tracking.
func ExposureEligible(b domain.Booking) bool {
	if b.SupplierID == nil || *b.SupplierID == "" {
		return false
	}
	if !b.NetCost.IsPositive() {
		return false
	}
	return b.Status == domain.BookingActive || b.Status == domain.BookingCompleted
}

// BuildExposureReport aggregates supplier debt per booking and per supplier.
// paidByBooking holds the sum of ACTIVE supplier payments keyed by booking id.
// today must already be truncated to the agency's business day.
func BuildExposureReport(bookings []domain.Booking, paidByBooking map[string]decimal.Decimal, today time.Time, warningDays int) domain.ExposureReport {
	report := domain.ExposureReport{
		AsOf:           today,
		Suppliers:      []domain.SupplierExposure{},
		TotalNetCost:   decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalRemaining: decimal.Zero,
	}

	bySupplier := make(map[string]*domain.SupplierExposure)
	order := []string{}

	for _, b := range bookings {
		if !ExposureEligible(b) {
			continue
		}
		paid := paidByBooking[b.BookingID]
		remaining := decimal.Max(decimal.Zero, b.NetCost.Sub(paid))
		light := ClassifyRisk(remaining, b.SupplierDeadline, today, warningDays)

		be := domain.BookingExposure{
			BookingID:    b.BookingID,
			SupplierID:   *b.SupplierID,
			Description:  b.Description,
			NetCost:      b.NetCost,
			TotalPaid:    paid,
			Remaining:    remaining,
			Deadline:     b.SupplierDeadline,
			TrafficLight: light,
			Overdue:      light == domain.RiskRed,
		}

		se, ok := bySupplier[be.SupplierID]
		if !ok {
			se = &domain.SupplierExposure{
				SupplierID: be.SupplierID,
				NetCost:    decimal.Zero,
				TotalPaid:  decimal.Zero,
				Remaining:  decimal.Zero,
			}
			bySupplier[be.SupplierID] = se
			order = append(order, be.SupplierID)
		}
		se.NetCost = se.NetCost.Add(be.NetCost)
		se.TotalPaid = se.TotalPaid.Add(be.TotalPaid)
		se.Remaining = se.Remaining.Add(be.Remaining)
		if be.Overdue {
			se.OverdueCount++
		}
		se.Bookings = append(se.Bookings, be)
	}

	sort.Strings(order)
	for _, id := range order {
		se := bySupplier[id]
		report.Suppliers = append(report.Suppliers, *se)
		report.TotalNetCost = report.TotalNetCost.Add(se.NetCost)
		report.TotalPaid = report.TotalPaid.Add(se.TotalPaid)
		report.TotalRemaining = report.TotalRemaining.Add(se.Remaining)
		report.OverdueCount += se.OverdueCount
	}
	return report
}
