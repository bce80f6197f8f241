package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/travel_agency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/travel_agency_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// movement describes one money movement to record.
type movement struct {
	TenantID    string
	AccountID   string
	Amount      decimal.Decimal
	Description string
	Reference   *string
	BookingID   *string
	Date        time.Time
	UserID      string
	Now         time.Time
}

// transactionRecorder is the only component that changes account balances.
// Every method runs inside the caller's transaction and locks the accounts it
// touches in account ID order.
type transactionRecorder struct {
	BaseService
	accountRepo     portsrepo.AccountTransactionSupport
	transactionRepo portsrepo.TransactionTxSupport
}

func newTransactionRecorder(base BaseService, accountRepo portsrepo.AccountTransactionSupport, transactionRepo portsrepo.TransactionTxSupport) *transactionRecorder {
	return &transactionRecorder{
		BaseService:     base,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

func sortedKeys(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (r *transactionRecorder) lockAccounts(ctx context.Context, tx pgx.Tx, tenantID string, ids ...string) (map[string]domain.Account, error) {
	locked, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, tenantID, sortedKeys(ids...))
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	return locked, nil
}

func (r *transactionRecorder) newTransaction(m movement, kind domain.TransactionKind) domain.Transaction {
	return domain.Transaction{
		TransactionID: uuid.NewString(),
		TenantID:      m.TenantID,
		AccountID:     m.AccountID,
		Kind:          kind,
		Amount:        m.Amount,
		Description:   m.Description,
		Reference:     m.Reference,
		BookingID:     m.BookingID,
		Status:        domain.TransactionActive,
		Date:          m.Date,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.Now,
			CreatedBy:     m.UserID,
			LastUpdatedAt: m.Now,
			LastUpdatedBy: m.UserID,
		},
	}
}

func usableAccount(locked map[string]domain.Account, accountID string) (domain.Account, error) {
	account, ok := locked[accountID]
	if !ok {
		return domain.Account{}, apperrors.NewNotFoundError("account", accountID)
	}
	if !account.IsActive {
		return domain.Account{}, fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidState, accountID)
	}
	return account, nil
}

// persist validates, inserts and applies the balance effect of new movements.
func (r *transactionRecorder) persist(ctx context.Context, tx pgx.Tx, m movement, txns ...domain.Transaction) error {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}
	if err := r.transactionRepo.SaveTransactionsInTx(ctx, tx, txns); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, accounting.BalanceChanges(txns), m.UserID, m.Now); err != nil {
		return fmt.Errorf("failed to update account balances: %w", err)
	}
	return nil
}

// recordIncome credits the account.
func (r *transactionRecorder) recordIncome(ctx context.Context, tx pgx.Tx, m movement) (*domain.Transaction, error) {
	locked, err := r.lockAccounts(ctx, tx, m.TenantID, m.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := usableAccount(locked, m.AccountID); err != nil {
		return nil, err
	}

	income := r.newTransaction(m, domain.Income)
	if err := r.persist(ctx, tx, m, income); err != nil {
		return nil, err
	}
	r.LogDebug(ctx, "Income recorded", slog.String("transaction_id", income.TransactionID), slog.String("account_id", m.AccountID))
	return &income, nil
}

// recordExpense debits the account. The balance must cover the amount.
func (r *transactionRecorder) recordExpense(ctx context.Context, tx pgx.Tx, m movement) (*domain.Transaction, error) {
	locked, err := r.lockAccounts(ctx, tx, m.TenantID, m.AccountID)
	if err != nil {
		return nil, err
	}
	account, err := usableAccount(locked, m.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.CanDebit(m.Amount) {
		return nil, fmt.Errorf("%w: account %s balance %s does not cover %s",
			apperrors.ErrInsufficientFunds, account.AccountID, account.Balance.StringFixed(2), m.Amount.StringFixed(2))
	}

	expense := r.newTransaction(m, domain.Expense)
	if err := r.persist(ctx, tx, m, expense); err != nil {
		return nil, err
	}
	r.LogDebug(ctx, "Expense recorded", slog.String("transaction_id", expense.TransactionID), slog.String("account_id", m.AccountID))
	return &expense, nil
}

// recordTransfer moves money between two accounts of the tenant. It writes the
// TRANSFER leg on the source and an INCOME leg on the destination pointing back at it.
func (r *transactionRecorder) recordTransfer(ctx context.Context, tx pgx.Tx, m movement, destinationAccountID string) (*domain.Transaction, *domain.Transaction, error) {
	if destinationAccountID == m.AccountID {
		return nil, nil, fmt.Errorf("%w: transfer source and destination must differ", apperrors.ErrInvalidState)
	}

	locked, err := r.lockAccounts(ctx, tx, m.TenantID, m.AccountID, destinationAccountID)
	if err != nil {
		return nil, nil, err
	}
	source, err := usableAccount(locked, m.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := usableAccount(locked, destinationAccountID); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid transfer destination: %v", apperrors.ErrInvalidState, err)
	}
	if !source.CanDebit(m.Amount) {
		return nil, nil, fmt.Errorf("%w: account %s balance %s does not cover %s",
			apperrors.ErrInsufficientFunds, source.AccountID, source.Balance.StringFixed(2), m.Amount.StringFixed(2))
	}

	out := r.newTransaction(m, domain.Transfer)
	dest := destinationAccountID
	out.DestinationAccountID = &dest

	in := r.newTransaction(m, domain.Income)
	in.AccountID = destinationAccountID
	sourceID := out.TransactionID
	in.TransferSourceID = &sourceID

	if err := r.persist(ctx, tx, m, out, in); err != nil {
		return nil, nil, err
	}
	r.LogDebug(ctx, "Transfer recorded",
		slog.String("transaction_id", out.TransactionID),
		slog.String("from_account_id", m.AccountID),
		slog.String("to_account_id", destinationAccountID))
	return &out, &in, nil
}

// cancel marks movements CANCELLED and removes their balance effect. No overdraft
// check applies: undoing an income may leave an account negative.
func (r *transactionRecorder) cancel(ctx context.Context, tx pgx.Tx, tenantID string, txns []domain.Transaction, userID string, now time.Time) error {
	ids := make([]string, 0, len(txns))
	accountIDs := make([]string, 0, len(txns))
	changes := make(map[string]decimal.Decimal, len(txns))
	for _, t := range txns {
		if t.Status != domain.TransactionActive {
			return fmt.Errorf("%w: transaction %s is already cancelled", apperrors.ErrInvalidState, t.TransactionID)
		}
		ids = append(ids, t.TransactionID)
		accountIDs = append(accountIDs, t.AccountID)
		changes[t.AccountID] = changes[t.AccountID].Sub(t.SignedAmount())
	}

	locked, err := r.lockAccounts(ctx, tx, tenantID, accountIDs...)
	if err != nil {
		return err
	}
	for _, id := range accountIDs {
		if _, ok := locked[id]; !ok {
			return apperrors.NewNotFoundError("account", id)
		}
	}

	if err := r.transactionRepo.UpdateTransactionStatusInTx(ctx, tx, tenantID, ids, domain.TransactionCancelled, userID, now); err != nil {
		return fmt.Errorf("failed to cancel transactions: %w", err)
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, changes, userID, now); err != nil {
		return fmt.Errorf("failed to update account balances: %w", err)
	}
	return nil
}
