package repositories

import (
	"context"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
)

// ExposureCache stores computed supplier exposure reports per tenant.
// Implementations must treat a miss and an unreachable backend the same way.
type ExposureCache interface {
	// GetExposure also returns the tenant's cache version seen by the read; a negative
	// version means the backend could not be asked.
	GetExposure(ctx context.Context, tenantID, key string) (*domain.ExposureReport, int64, bool)

	// SetExposure stores a report under the version its inputs were read at, so a report
	// computed across an invalidation is never reachable.
	SetExposure(ctx context.Context, tenantID, key string, version int64, report domain.ExposureReport)
	// InvalidateTenant drops every cached report of the tenant.
	InvalidateTenant(ctx context.Context, tenantID string)
}

// RepositoryProvider holds all repository interfaces needed by services.
// All repositories share one pool, so TxManager begins units that span them.
type RepositoryProvider struct {
	TxManager           TransactionManager
	AccountRepo         AccountRepositoryFacade
	TransactionRepo     TransactionRepositoryFacade
	BookingRepo         BookingRepositoryFacade
	SupplierPaymentRepo SupplierPaymentRepositoryFacade
	ExposureCache       ExposureCache
}
