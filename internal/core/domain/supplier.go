package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SupplierPaymentStatus string

const (
	SupplierPaymentActive    SupplierPaymentStatus = "ACTIVE"
	SupplierPaymentCancelled SupplierPaymentStatus = "CANCELLED"
)

// SupplierPayment is money paid to a supplier against a booking's net cost.
// It is always backed by an EXPENSE transaction.
type SupplierPayment struct {
	SupplierPaymentID string                `json:"supplierPaymentID"`
	TenantID          string                `json:"tenantID"`
	BookingID         string                `json:"bookingID"`
	SupplierID        string                `json:"supplierID"`
	AccountID         string                `json:"accountID"`
	TransactionID     string                `json:"transactionID"`
	Amount            decimal.Decimal       `json:"amount"`
	Notes             *string               `json:"notes,omitempty"`
	Status            SupplierPaymentStatus `json:"status"`
	Date              time.Time             `json:"date"`
	AuditFields
}

// TrafficLight is the risk classification of a supplier obligation.
type TrafficLight string

const (
	RiskGreen  TrafficLight = "GREEN"
	RiskYellow TrafficLight = "YELLOW"
	RiskRed    TrafficLight = "RED"
	RiskGray   TrafficLight = "GRAY"
)

// BookingExposure is the supplier debt position of one booking.
type BookingExposure struct {
	BookingID    string          `json:"bookingID"`
	SupplierID   string          `json:"supplierID"`
	Description  string          `json:"description"`
	NetCost      decimal.Decimal `json:"netCost"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	Remaining    decimal.Decimal `json:"remaining"`
	Deadline     *time.Time      `json:"deadline,omitempty"`
	TrafficLight TrafficLight    `json:"trafficLight"`
	Overdue      bool            `json:"overdue"`
}

// SupplierExposure rolls up the bookings of one supplier.
type SupplierExposure struct {
	SupplierID   string            `json:"supplierID"`
	NetCost      decimal.Decimal   `json:"netCost"`
	TotalPaid    decimal.Decimal   `json:"totalPaid"`
	Remaining    decimal.Decimal   `json:"remaining"`
	OverdueCount int               `json:"overdueCount"`
	Bookings     []BookingExposure `json:"bookings"`
}

// ExposureReport is the tenant-wide supplier debt picture as of a business day.
type ExposureReport struct {
	AsOf           time.Time          `json:"asOf"`
	Suppliers      []SupplierExposure `json:"suppliers"`
	TotalNetCost   decimal.Decimal    `json:"totalNetCost"`
	TotalPaid      decimal.Decimal    `json:"totalPaid"`
	TotalRemaining decimal.Decimal    `json:"totalRemaining"`
	OverdueCount   int                `json:"overdueCount"`
}
