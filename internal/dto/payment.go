package dto

import (
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest defines a customer payment against a booking's installment plan.
type ApplyPaymentRequest struct {
	StartingInstallmentID string          `json:"startingInstallmentID" binding:"required"`
	Amount                decimal.Decimal `json:"amount" binding:"required,gt=0"`
	AccountID             string          `json:"accountID" binding:"required"`
	Notes                 *string         `json:"notes,omitempty" binding:"omitempty,max=500"`
	Date                  *string         `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// ApplyPaymentResult is the outcome of applying a payment.
type ApplyPaymentResult struct {
	BookingStatus       domain.BookingStatus
	UpdatedInstallments []domain.Installment
	Transaction         domain.Transaction
	AppliedAmount       decimal.Decimal
	UnappliedAmount     decimal.Decimal
}

// ApplyPaymentResponse defines the data returned after applying a payment.
type ApplyPaymentResponse struct {
	BookingStatus       string                `json:"bookingStatus"`
	UpdatedInstallments []InstallmentResponse `json:"updatedInstallments"`
	Transaction         TransactionResponse   `json:"transaction"`
	AppliedAmount       decimal.Decimal       `json:"appliedAmount"`
	UnappliedAmount     decimal.Decimal       `json:"unappliedAmount"`
}

// ToApplyPaymentResponse converts the service result.
func ToApplyPaymentResponse(r *ApplyPaymentResult) ApplyPaymentResponse {
	return ApplyPaymentResponse{
		BookingStatus:       string(r.BookingStatus),
		UpdatedInstallments: ToInstallmentResponses(r.UpdatedInstallments),
		Transaction:         ToTransactionResponse(&r.Transaction),
		AppliedAmount:       r.AppliedAmount,
		UnappliedAmount:     r.UnappliedAmount,
	}
}
