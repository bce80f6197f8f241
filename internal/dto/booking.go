package dto

import (
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BookingTermsRequest carries the priced terms of a booking. It is used both for
// creation and for updates; an update replaces every term.
type BookingTermsRequest struct {
	Description      string          `json:"description" binding:"max=500"`
	TotalPrice       decimal.Decimal `json:"totalPrice" binding:"required,gt=0"`
	NetCost          decimal.Decimal `json:"netCost" binding:"gte=0"`
	PaymentType      string          `json:"paymentType" binding:"required,oneof=CASH CREDIT"`
	DownPayment      decimal.Decimal `json:"downPayment" binding:"gte=0"`
	InstallmentCount int             `json:"installmentCount" binding:"gte=0,lte=120"`
	Frequency        string          `json:"frequency" binding:"omitempty,oneof=SEMIMONTHLY MONTHLY"`
	FirstPaymentDate *string         `json:"firstPaymentDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
	SupplierID       *string         `json:"supplierID,omitempty"`
	SupplierDeadline *string         `json:"supplierDeadline,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// InstallmentResponse defines the data returned for an installment.
type InstallmentResponse struct {
	InstallmentID  string          `json:"installmentID"`
	SequenceNumber int             `json:"sequenceNumber"`
	DueDate        string          `json:"dueDate"`
	Amount         decimal.Decimal `json:"amount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Status         string          `json:"status"`
	PaidDate       *string         `json:"paidDate,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
}

// BookingResponse defines the data returned for a booking with its plan.
type BookingResponse struct {
	BookingID        string                `json:"bookingID"`
	Description      string                `json:"description"`
	TotalPrice       decimal.Decimal       `json:"totalPrice"`
	NetCost          decimal.Decimal       `json:"netCost"`
	PaymentType      string                `json:"paymentType"`
	DownPayment      decimal.Decimal       `json:"downPayment"`
	InstallmentCount int                   `json:"installmentCount"`
	Frequency        string                `json:"frequency,omitempty"`
	FirstPaymentDate *string               `json:"firstPaymentDate,omitempty"`
	Status           string                `json:"status"`
	SupplierID       *string               `json:"supplierID,omitempty"`
	SupplierDeadline *string               `json:"supplierDeadline,omitempty"`
	Installments     []InstallmentResponse `json:"installments"`
	CreatedAt        time.Time             `json:"createdAt"`
	LastUpdatedAt    time.Time             `json:"lastUpdatedAt"`
}

// BookingWithInstallments is what the booking service hands back to callers.
type BookingWithInstallments struct {
	Booking      domain.Booking
	Installments []domain.Installment
}

func formatDatePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// ToInstallmentResponse converts a domain.Installment.
func ToInstallmentResponse(inst *domain.Installment) InstallmentResponse {
	return InstallmentResponse{
		InstallmentID:  inst.InstallmentID,
		SequenceNumber: inst.SequenceNumber,
		DueDate:        inst.DueDate.Format(DateLayout),
		Amount:         inst.Amount,
		PaidAmount:     inst.PaidAmount,
		Status:         string(inst.Status),
		PaidDate:       formatDatePtr(inst.PaidDate),
		Notes:          inst.Notes,
	}
}

// ToInstallmentResponses converts a slice of installments.
func ToInstallmentResponses(insts []domain.Installment) []InstallmentResponse {
	out := make([]InstallmentResponse, len(insts))
	for i := range insts {
		out[i] = ToInstallmentResponse(&insts[i])
	}
	return out
}

// ToBookingResponse converts a booking and its plan.
func ToBookingResponse(b *BookingWithInstallments) BookingResponse {
	first := b.Booking.FirstPaymentDate
	return BookingResponse{
		BookingID:        b.Booking.BookingID,
		Description:      b.Booking.Description,
		TotalPrice:       b.Booking.TotalPrice,
		NetCost:          b.Booking.NetCost,
		PaymentType:      string(b.Booking.PaymentType),
		DownPayment:      b.Booking.DownPayment,
		InstallmentCount: b.Booking.InstallmentCount,
		Frequency:        string(b.Booking.Frequency),
		FirstPaymentDate: formatDatePtr(&first),
		Status:           string(b.Booking.Status),
		SupplierID:       b.Booking.SupplierID,
		SupplierDeadline: formatDatePtr(b.Booking.SupplierDeadline),
		Installments:     ToInstallmentResponses(b.Installments),
		CreatedAt:        b.Booking.CreatedAt,
		LastUpdatedAt:    b.Booking.LastUpdatedAt,
	}
}
