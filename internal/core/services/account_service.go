package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/accounting"
	"github.com/google/uuid"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo     portsrepo.AccountRepositoryFacade
	transactionRepo portsrepo.TransactionReader
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, transactionRepo portsrepo.TransactionReader, options ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService:     newBaseService(options...),
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	if req.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", apperrors.ErrValidation)
	}
	if err := validateMoney("initialBalance", req.InitialBalance); err != nil {
		return nil, err
	}

	now := s.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		TenantID:       tenantID,
		Name:           name,
		Description:    req.Description,
		InitialBalance: req.InitialBalance,
		Balance:        req.InitialBalance,
		IsActive:       true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("tenant_id", tenantID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("tenant_id", tenantID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		s.LogDebug(ctx, "Account lookup failed", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.String("tenant_id", tenantID))
		return nil, err
	}
	return accounts, nil
}

// ReconcileAccount recomputes the balance from the opening balance and the ACTIVE history.
func (s *accountService) ReconcileAccount(ctx context.Context, tenantID string, accountID string) (*dto.AccountReconciliationResponse, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	history, err := s.transactionRepo.FindTransactionsByAccountID(ctx, tenantID, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load account history", slog.String("account_id", accountID))
		return nil, err
	}

	expected, err := accounting.ExpectedBalance(*account, history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	diff := account.Balance.Sub(expected)
	if !diff.IsZero() {
		s.LogWarn(ctx, "Account balance drift detected",
			slog.String("account_id", accountID),
			slog.String("stored", account.Balance.String()),
			slog.String("expected", expected.String()))
	}

	return &dto.AccountReconciliationResponse{
		AccountID:        accountID,
		StoredBalance:    account.Balance,
		ExpectedBalance:  expected,
		Difference:       diff,
		InBalance:        diff.IsZero(),
		TransactionCount: len(history),
	}, nil
}
