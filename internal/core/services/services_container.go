package services

import (
	"github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/platform/config"
)

// NewServiceContainer creates and initializes all services.
// It takes the application configuration and repository provider as dependencies.
func NewServiceContainer(cfg *config.Config, repos repositories.RepositoryProvider) *services.ServiceContainer {
	options := []ServiceOption{
		WithLocation(cfg.AgencyLocation),
		WithRiskWarningDays(cfg.RiskWarningDays),
	}

	return &services.ServiceContainer{
		Account:  NewAccountService(repos.AccountRepo, repos.TransactionRepo, options...),
		Ledger:   NewLedgerService(repos, options...),
		Payment:  NewPaymentService(repos, options...),
		Booking:  NewBookingService(repos, options...),
		Supplier: NewSupplierService(repos, options...),
	}
}
