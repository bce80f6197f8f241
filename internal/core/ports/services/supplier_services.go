package services

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
)

// SupplierSvcFacade records supplier payments and reports outstanding supplier debt.
type SupplierSvcFacade interface {
	RecordSupplierPayment(ctx context.Context, tenantID string, req dto.RecordSupplierPaymentRequest, userID string) (*domain.SupplierPayment, error)

	CancelSupplierPayment(ctx context.Context, tenantID string, paymentID string, userID string) error

	GetSupplierPayment(ctx context.Context, tenantID string, paymentID string) (*domain.SupplierPayment, error)

	// GetSupplierExposure reports debt per booking and per supplier; a nil supplierID covers all suppliers.
	GetSupplierExposure(ctx context.Context, tenantID string, supplierID *string) (*domain.ExposureReport, error)
}
