package services

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/dto"
)

// PaymentSvcFacade applies customer payments to installment plans.
type PaymentSvcFacade interface {
	// ApplyPayment distributes one payment over the booking's installments starting at
	// req.StartingInstallmentID and records a single income for the full amount.
	ApplyPayment(ctx context.Context, tenantID string, bookingID string, req dto.ApplyPaymentRequest, userID string) (*dto.ApplyPaymentResult, error)
}

// BookingReaderSvc defines read operations for bookings.
type BookingReaderSvc interface {
	GetBooking(ctx context.Context, tenantID string, bookingID string) (*dto.BookingWithInstallments, error)
}

// BookingWriterSvc defines the booking operations that shape installment plans.
type BookingWriterSvc interface {
	CreateBooking(ctx context.Context, tenantID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error)

	// UpdateBookingTerms replaces the booking's terms and regenerates the plan when priced terms changed.
	UpdateBookingTerms(ctx context.Context, tenantID string, bookingID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error)

	// RegenerateSchedule discards the plan and builds a fresh one from the current terms.
	RegenerateSchedule(ctx context.Context, tenantID string, bookingID string, userID string) (*dto.BookingWithInstallments, error)
}

// BookingSvcFacade combines all booking service interfaces.
type BookingSvcFacade interface {
	BookingReaderSvc
	BookingWriterSvc
}
