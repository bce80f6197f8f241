package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const (
	defaultTransactionPageSize = 20
	maxTransactionPageSize     = 100
)

// ledgerService records standalone movements and cancels any movement.
type ledgerService struct {
	BaseService
	txManager       portsrepo.TransactionManager
	accountRepo     portsrepo.AccountReader
	transactionRepo portsrepo.TransactionReader
	recorder        *transactionRecorder
	reversal        *reversalEngine
	exposureCache   portsrepo.ExposureCache
}

// NewLedgerService creates the ledger service over the shared repositories.
func NewLedgerService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.LedgerSvcFacade {
	base := newBaseService(options...)
	recorder := newTransactionRecorder(base, repos.AccountRepo, repos.TransactionRepo)
	return &ledgerService{
		BaseService:     base,
		txManager:       repos.TxManager,
		accountRepo:     repos.AccountRepo,
		transactionRepo: repos.TransactionRepo,
		recorder:        recorder,
		reversal:        newReversalEngine(base, recorder, repos.TransactionRepo, repos.BookingRepo, repos.SupplierPaymentRepo),
		exposureCache:   cacheOrNoop(repos.ExposureCache),
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetTransactionByID(ctx context.Context, tenantID string, transactionID string) (*domain.Transaction, error) {
	txn, err := s.transactionRepo.FindTransactionByID(ctx, tenantID, transactionID)
	if err != nil {
		s.LogDebug(ctx, "Transaction lookup failed", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		return nil, err
	}
	return txn, nil
}

func (s *ledgerService) ListTransactionsByAccount(ctx context.Context, tenantID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	limit := pagination.ClampLimit(params.Limit, defaultTransactionPageSize, maxTransactionPageSize)
	txns, nextToken, err := s.transactionRepo.ListTransactionsByAccountID(ctx, tenantID, accountID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("account_id", accountID))
		return nil, err
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// RecordStandaloneMovement records an income, expense or transfer not tied to a booking.
func (s *ledgerService) RecordStandaloneMovement(ctx context.Context, tenantID string, req dto.RecordMovementRequest, userID string) (*domain.Transaction, error) {
	kind := domain.TransactionKind(req.Kind)
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if err := validateMoney("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.AccountID == "" {
		return nil, fmt.Errorf("%w: accountID is required", apperrors.ErrValidation)
	}
	hasDestination := req.DestinationAccountID != nil && *req.DestinationAccountID != ""
	switch kind {
	case domain.Income, domain.Expense:
		if hasDestination {
			return nil, fmt.Errorf("%w: destinationAccountID is only allowed on transfers", apperrors.ErrValidation)
		}
	case domain.Transfer:
		if !hasDestination {
			return nil, fmt.Errorf("%w: destinationAccountID is required for transfers", apperrors.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown transaction kind %q", apperrors.ErrValidation, req.Kind)
	}

	date, err := s.businessDate(req.Date)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	m := movement{
		TenantID:    tenantID,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		Date:        date,
		UserID:      userID,
		Now:         now,
	}

	var recorded *domain.Transaction
	err = s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		var recErr error
		switch kind {
		case domain.Income:
			recorded, recErr = s.recorder.recordIncome(ctx, tx, m)
		case domain.Expense:
			recorded, recErr = s.recorder.recordExpense(ctx, tx, m)
		case domain.Transfer:
			recorded, _, recErr = s.recorder.recordTransfer(ctx, tx, m, *req.DestinationAccountID)
		}
		return recErr
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record movement",
			slog.String("kind", req.Kind),
			slog.String("account_id", req.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Movement recorded",
		slog.String("transaction_id", recorded.TransactionID),
		slog.String("kind", req.Kind),
		slog.String("amount", req.Amount.String()))
	return recorded, nil
}

// CancelTransaction reverses an ACTIVE movement and every effect it had.
func (s *ledgerService) CancelTransaction(ctx context.Context, tenantID string, transactionID string, userID string) error {
	now := s.Now()
	var result *cancellation
	err := s.runInTx(ctx, s.txManager, func(tx pgx.Tx) error {
		var cancelErr error
		result, cancelErr = s.reversal.cancelTransaction(ctx, tx, tenantID, transactionID, userID, now)
		return cancelErr
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to cancel transaction", slog.String("transaction_id", transactionID))
		return err
	}

	if result.SupplierPaymentID != nil {
		s.exposureCache.InvalidateTenant(ctx, tenantID)
	}

	attrs := []any{slog.String("transaction_id", transactionID), slog.Int("cancelled_count", len(result.Cancelled))}
	if result.BookingID != nil {
		attrs = append(attrs, slog.String("booking_id", *result.BookingID), slog.String("booking_status", string(result.BookingStatus)))
	}
	s.LogInfo(ctx, "Transaction cancelled", attrs...)
	return nil
}
