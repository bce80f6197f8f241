package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "CASH"
	PaymentCredit PaymentType = "CREDIT"
)

type Frequency string

const (
	FrequencySemimonthly Frequency = "SEMIMONTHLY"
	FrequencyMonthly     Frequency = "MONTHLY"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "ACTIVE"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a client's purchase of a trip. Only the priced terms and the supplier
// obligation are modelled here; client and destination data live elsewhere.
type Booking struct {
	BookingID        string          `json:"bookingID"`
	TenantID         string          `json:"tenantID"`
	Description      string          `json:"description"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	NetCost          decimal.Decimal `json:"netCost"`
	PaymentType      PaymentType     `json:"paymentType"`
	DownPayment      decimal.Decimal `json:"downPayment"`
	InstallmentCount int             `json:"installmentCount"`
	Frequency        Frequency       `json:"frequency"`
	FirstPaymentDate time.Time       `json:"firstPaymentDate"`
	Status           BookingStatus   `json:"status"`
	SupplierID       *string         `json:"supplierID,omitempty"`
	SupplierDeadline *time.Time      `json:"supplierDeadline,omitempty"`
	AuditFields
}

// UsesSchedule reports whether the booking is paid through installments.
func (b Booking) UsesSchedule() bool {
	return b.PaymentType == PaymentCredit && b.InstallmentCount > 0
}

// ScheduleTermsChanged reports whether the fields that shape the installment schedule differ.
func (b Booking) ScheduleTermsChanged(other Booking) bool {
	return !b.TotalPrice.Equal(other.TotalPrice) ||
		b.PaymentType != other.PaymentType ||
		b.InstallmentCount != other.InstallmentCount ||
		!b.DownPayment.Equal(other.DownPayment) ||
		b.Frequency != other.Frequency ||
		!b.FirstPaymentDate.Equal(other.FirstPaymentDate)
}

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// Installment is one scheduled obligation of a credit booking.
type Installment struct {
	InstallmentID  string            `json:"installmentID"`
	BookingID      string            `json:"bookingID"`
	TenantID       string            `json:"tenantID"`
	SequenceNumber int               `json:"sequenceNumber"`
	DueDate        time.Time         `json:"dueDate"`
	Amount         decimal.Decimal   `json:"amount"`
	PaidAmount     decimal.Decimal   `json:"paidAmount"`
	Status         InstallmentStatus `json:"status"`
	PaidDate       *time.Time        `json:"paidDate,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	AuditFields
}

// Outstanding is what is still owed on the installment.
func (i Installment) Outstanding() decimal.Decimal {
	rest := i.Amount.Sub(i.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// IsSettled reports whether the paid amount covers the installment amount.
func (i Installment) IsSettled() bool {
	return i.PaidAmount.GreaterThanOrEqual(i.Amount)
}

// InstallmentAllocation is the part of one payment that landed on one installment.
type InstallmentAllocation struct {
	TransactionID string          `json:"transactionID"`
	InstallmentID string          `json:"installmentID"`
	BookingID     string          `json:"bookingID"`
	TenantID      string          `json:"tenantID"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"createdAt"`
}
