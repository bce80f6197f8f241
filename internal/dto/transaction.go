package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of agency-local business dates.
const DateLayout = "2006-01-02"

// RecordMovementRequest defines a standalone income, expense or transfer.
type RecordMovementRequest struct {
	AccountID            string          `json:"accountID" binding:"required"`
	Kind                 string          `json:"kind" binding:"required,oneof=INCOME EXPENSE TRANSFER"`
	Amount               decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Description          string          `json:"description" binding:"max=500"`
	Reference            *string         `json:"reference,omitempty"`
	Date                 *string         `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	DestinationAccountID *string         `json:"destinationAccountID,omitempty"`
}

// TransactionResponse defines the data returned for a ledger movement.
type TransactionResponse struct {
	TransactionID        string          `json:"transactionID"`
	AccountID            string          `json:"accountID"`
	Kind                 string          `json:"kind"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Reference            *string         `json:"reference,omitempty"`
	BookingID            *string         `json:"bookingID,omitempty"`
	DestinationAccountID *string         `json:"destinationAccountID,omitempty"`
	TransferSourceID     *string         `json:"transferSourceID,omitempty"`
	Status               string          `json:"status"`
	Date                 string          `json:"date"`
	CreatedAt            time.Time       `json:"createdAt"`
	CreatedBy            string          `json:"createdBy"`
}

// ListTransactionsParams defines the query parameters for listing an account's movements.
type ListTransactionsParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of movements.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        txn.TransactionID,
		AccountID:            txn.AccountID,
		Kind:                 string(txn.Kind),
		Amount:               txn.Amount,
		Description:          txn.Description,
		Reference:            txn.Reference,
		BookingID:            txn.BookingID,
		DestinationAccountID: txn.DestinationAccountID,
		TransferSourceID:     txn.TransferSourceID,
		Status:               string(txn.Status),
		Date:                 txn.Date.Format(DateLayout),
		CreatedAt:            txn.CreatedAt,
		CreatedBy:            txn.CreatedBy,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ParseBusinessDate parses an optional wire date in loc. A nil or empty value yields today.
func ParseBusinessDate(value *string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == nil || *value == "" {
		return domain.DateOnly(now, loc), nil
	}
	d, err := time.ParseInLocation(DateLayout, *value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", *value)
	}
	return d, nil
}
