package accounting

import (
	"fmt"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceChanges folds a set of movements into the per-account balance deltas they imply.
// Cancelled movements contribute nothing.
func BalanceChanges(transactions []domain.Transaction) map[string]decimal.Decimal {
	changes := make(map[string]decimal.Decimal)
	for _, txn := range transactions {
		if txn.Status == domain.TransactionCancelled {
			continue
		}
		changes[txn.AccountID] = changes[txn.AccountID].Add(txn.SignedAmount())
	}
	return changes
}

// ExpectedBalance recomputes an account's balance from its opening balance and its history.
func ExpectedBalance(account domain.Account, transactions []domain.Transaction) (decimal.Decimal, error) {
	balance := account.InitialBalance
	for _, txn := range transactions {
		if txn.AccountID != account.AccountID {
			return decimal.Zero, fmt.Errorf("transaction %s belongs to account %s, not %s", txn.TransactionID, txn.AccountID, account.AccountID)
		}
		if txn.Status != domain.TransactionActive {
			continue
		}
		balance = balance.Add(txn.SignedAmount())
	}
	return balance, nil
}

// SumPaid totals the paid amounts of a set of installments.
func SumPaid(installments []domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.PaidAmount)
	}
	return total
}

// SumAmounts totals the scheduled amounts of a set of installments.
func SumAmounts(installments []domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}
