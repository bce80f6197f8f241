package dto

import (
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordSupplierPaymentRequest defines a payment to a supplier against a booking.
type RecordSupplierPaymentRequest struct {
	BookingID  string          `json:"bookingID" binding:"required"`
	SupplierID string          `json:"supplierID" binding:"required"`
	AccountID  string          `json:"accountID" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Notes      *string         `json:"notes,omitempty" binding:"omitempty,max=500"`
	Date       *string         `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// SupplierPaymentResponse defines the data returned for a supplier payment.
type SupplierPaymentResponse struct {
	SupplierPaymentID string          `json:"supplierPaymentID"`
	BookingID         string          `json:"bookingID"`
	SupplierID        string          `json:"supplierID"`
	AccountID         string          `json:"accountID"`
	TransactionID     string          `json:"transactionID"`
	Amount            decimal.Decimal `json:"amount"`
	Notes             *string         `json:"notes,omitempty"`
	Status            string          `json:"status"`
	Date              string          `json:"date"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// ToSupplierPaymentResponse converts a domain.SupplierPayment.
func ToSupplierPaymentResponse(p *domain.SupplierPayment) SupplierPaymentResponse {
	return SupplierPaymentResponse{
		SupplierPaymentID: p.SupplierPaymentID,
		BookingID:         p.BookingID,
		SupplierID:        p.SupplierID,
		AccountID:         p.AccountID,
		TransactionID:     p.TransactionID,
		Amount:            p.Amount,
		Notes:             p.Notes,
		Status:            string(p.Status),
		Date:              p.Date.Format(DateLayout),
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
	}
}
