package handlers_test

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) ReconcileAccount(ctx context.Context, tenantID string, accountID string) (*dto.AccountReconciliationResponse, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountReconciliationResponse), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetTransactionByID(ctx context.Context, tenantID string, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, tenantID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) ListTransactionsByAccount(ctx context.Context, tenantID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, tenantID, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}
func (m *MockLedgerService) RecordStandaloneMovement(ctx context.Context, tenantID string, req dto.RecordMovementRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockLedgerService) CancelTransaction(ctx context.Context, tenantID string, transactionID string, userID string) error {
	args := m.Called(ctx, tenantID, transactionID, userID)
	return args.Error(0)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ApplyPayment(ctx context.Context, tenantID string, bookingID string, req dto.ApplyPaymentRequest, userID string) (*dto.ApplyPaymentResult, error) {
	args := m.Called(ctx, tenantID, bookingID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ApplyPaymentResult), args.Error(1)
}

var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Mock BookingService ---
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) GetBooking(ctx context.Context, tenantID string, bookingID string) (*dto.BookingWithInstallments, error) {
	args := m.Called(ctx, tenantID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BookingWithInstallments), args.Error(1)
}
func (m *MockBookingService) CreateBooking(ctx context.Context, tenantID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BookingWithInstallments), args.Error(1)
}
func (m *MockBookingService) UpdateBookingTerms(ctx context.Context, tenantID string, bookingID string, req dto.BookingTermsRequest, userID string) (*dto.BookingWithInstallments, error) {
	args := m.Called(ctx, tenantID, bookingID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BookingWithInstallments), args.Error(1)
}
func (m *MockBookingService) RegenerateSchedule(ctx context.Context, tenantID string, bookingID string, userID string) (*dto.BookingWithInstallments, error) {
	args := m.Called(ctx, tenantID, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BookingWithInstallments), args.Error(1)
}

var _ portssvc.BookingSvcFacade = (*MockBookingService)(nil)

// --- Mock SupplierService ---
type MockSupplierService struct {
	mock.Mock
}

func (m *MockSupplierService) RecordSupplierPayment(ctx context.Context, tenantID string, req dto.RecordSupplierPaymentRequest, userID string) (*domain.SupplierPayment, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierPayment), args.Error(1)
}
func (m *MockSupplierService) CancelSupplierPayment(ctx context.Context, tenantID string, paymentID string, userID string) error {
	args := m.Called(ctx, tenantID, paymentID, userID)
	return args.Error(0)
}
func (m *MockSupplierService) GetSupplierPayment(ctx context.Context, tenantID string, paymentID string) (*domain.SupplierPayment, error) {
	args := m.Called(ctx, tenantID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierPayment), args.Error(1)
}
func (m *MockSupplierService) GetSupplierExposure(ctx context.Context, tenantID string, supplierID *string) (*domain.ExposureReport, error) {
	args := m.Called(ctx, tenantID, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExposureReport), args.Error(1)
}

var _ portssvc.SupplierSvcFacade = (*MockSupplierService)(nil)
