package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a money movement against a single account.
type TransactionKind string

const (
	Income   TransactionKind = "INCOME"
	Expense  TransactionKind = "EXPENSE"
	Transfer TransactionKind = "TRANSFER"
)

// TransactionStatus is ACTIVE until the movement is cancelled. Rows are never deleted.
type TransactionStatus string

const (
	TransactionActive    TransactionStatus = "ACTIVE"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Transaction is one movement against one account.
//
// A transfer is stored as a pair: the TRANSFER leg on the source account carries
// DestinationAccountID, the INCOME leg on the destination carries TransferSourceID
// pointing back at the source leg.
type Transaction struct {
	TransactionID        string            `json:"transactionID"`
	TenantID             string            `json:"tenantID"`
	AccountID            string            `json:"accountID"`
	Kind                 TransactionKind   `json:"kind"`
	Amount               decimal.Decimal   `json:"amount"` // always positive
	Description          string            `json:"description"`
	Reference            *string           `json:"reference,omitempty"`
	BookingID            *string           `json:"bookingID,omitempty"`
	DestinationAccountID *string           `json:"destinationAccountID,omitempty"`
	TransferSourceID     *string           `json:"transferSourceID,omitempty"`
	Status               TransactionStatus `json:"status"`
	Date                 time.Time         `json:"date"`
	AuditFields
}

// SignedAmount is the effect of the transaction on its account's balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// IsTransferLeg reports whether the transaction is either side of a transfer pair.
func (t Transaction) IsTransferLeg() bool {
	return t.Kind == Transfer || t.TransferSourceID != nil
}

// Validate checks the structural rules every persisted transaction must satisfy.
func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if err := CheckMoney("amount", t.Amount); err != nil {
		return err
	}
	switch t.Kind {
	case Income, Expense:
		if t.DestinationAccountID != nil {
			return fmt.Errorf("destination account is only allowed on transfers")
		}
	case Transfer:
		if t.DestinationAccountID == nil || *t.DestinationAccountID == "" {
			return fmt.Errorf("destination account is required for transfers")
		}
		if *t.DestinationAccountID == t.AccountID {
			return fmt.Errorf("transfer source and destination must differ")
		}
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Kind)
	}
	if t.TransferSourceID != nil && t.Kind != Income {
		return fmt.Errorf("transfer origin marker is only allowed on income legs")
	}
	return nil
}
