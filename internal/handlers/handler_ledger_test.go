package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestRecordMovement_Transfer() {
	dest := "acc-2"
	txn := &domain.Transaction{
		TransactionID:        "txn-1",
		TenantID:             testTenantID,
		AccountID:            "acc-1",
		Kind:                 domain.Transfer,
		Amount:               decimal.RequireFromString("250.50"),
		DestinationAccountID: &dest,
		Status:               domain.TransactionActive,
		Date:                 time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	suite.mockLedgerService.On("RecordStandaloneMovement",
		mock.Anything,
		testTenantID,
		mock.MatchedBy(func(req dto.RecordMovementRequest) bool {
			return req.Kind == "TRANSFER" &&
				req.AccountID == "acc-1" &&
				req.DestinationAccountID != nil && *req.DestinationAccountID == dest &&
				req.Amount.Equal(decimal.RequireFromString("250.50")) &&
				req.Date != nil && *req.Date == "2026-03-10"
		}),
		testUserID,
	).Return(txn, nil).Once()

	body := `{"accountID":"acc-1","kind":"TRANSFER","amount":"250.50","destinationAccountID":"acc-2","date":"2026-03-10"}`
	w := suite.do(http.MethodPost, "/api/v1/transactions", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("txn-1", resp.TransactionID)
	suite.Equal("TRANSFER", resp.Kind)
	suite.Equal("2026-03-10", resp.Date)
	suite.Require().NotNil(resp.DestinationAccountID)
	suite.Equal(dest, *resp.DestinationAccountID)
}

func (suite *HandlerTestSuite) TestRecordMovement_BindingErrors() {
	bodies := map[string]string{
		"unknown kind":   `{"accountID":"acc-1","kind":"GIFT","amount":10}`,
		"zero amount":    `{"accountID":"acc-1","kind":"INCOME","amount":0}`,
		"negative":       `{"accountID":"acc-1","kind":"EXPENSE","amount":-3}`,
		"missing amount": `{"accountID":"acc-1","kind":"INCOME"}`,
		"bad date":       `{"accountID":"acc-1","kind":"INCOME","amount":10,"date":"10/03/2026"}`,
		"no account":     `{"kind":"INCOME","amount":10}`,
	}
	for name, body := range bodies {
		w := suite.do(http.MethodPost, "/api/v1/transactions", body)
		suite.Equal(http.StatusBadRequest, w.Code, name)
	}
	suite.mockLedgerService.AssertNotCalled(suite.T(), "RecordStandaloneMovement")
}

func (suite *HandlerTestSuite) TestRecordMovement_ErrorMapping() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient funds", fmt.Errorf("%w: balance 10 is below 50", apperrors.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{"inactive account", fmt.Errorf("%w: account acc-1 is inactive", apperrors.ErrInvalidState), http.StatusConflict},
		{"service validation", fmt.Errorf("%w: transfer to the same account", apperrors.ErrValidation), http.StatusBadRequest},
		{"missing account", apperrors.NewNotFoundError("account", "acc-1"), http.StatusNotFound},
		{"infrastructure", errors.New("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockLedgerService.On("RecordStandaloneMovement", mock.Anything, testTenantID, mock.Anything, testUserID).
				Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/transactions", `{"accountID":"acc-1","kind":"EXPENSE","amount":50}`)

			suite.Equal(tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				suite.Contains(w.Body.String(), "Failed to record movement")
				suite.NotContains(w.Body.String(), "pool exhausted")
			}
		})
	}
}

func (suite *HandlerTestSuite) TestGetTransaction() {
	suite.mockLedgerService.On("GetTransactionByID", mock.Anything, testTenantID, "txn-1").Return(&domain.Transaction{
		TransactionID: "txn-1",
		AccountID:     "acc-1",
		Kind:          domain.Income,
		Amount:        decimal.NewFromInt(75),
		Status:        domain.TransactionCancelled,
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil).Once()
	suite.mockLedgerService.On("GetTransactionByID", mock.Anything, testTenantID, "txn-foreign").
		Return(nil, apperrors.NewNotFoundError("transaction", "txn-foreign")).Once()

	w := suite.do(http.MethodGet, "/api/v1/transactions/txn-1", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"CANCELLED"`)

	w = suite.do(http.MethodGet, "/api/v1/transactions/txn-foreign", "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestCancelTransaction() {
	suite.mockLedgerService.On("CancelTransaction", mock.Anything, testTenantID, "txn-1", testUserID).Return(nil).Once()
	suite.mockLedgerService.On("CancelTransaction", mock.Anything, testTenantID, "txn-1", testUserID).
		Return(fmt.Errorf("%w: transaction txn-1 is already cancelled", apperrors.ErrInvalidState)).Once()

	w := suite.do(http.MethodPost, "/api/v1/transactions/txn-1/cancel", "")
	suite.Equal(http.StatusNoContent, w.Code)
	suite.Empty(w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/transactions/txn-1/cancel", "")
	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "already cancelled")
}
