package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestCreateAccount_Success() {
	accountID := uuid.NewString()
	created := &domain.Account{
		AccountID:      accountID,
		TenantID:       testTenantID,
		Name:           "Main bank",
		InitialBalance: decimal.NewFromInt(1000),
		Balance:        decimal.NewFromInt(1000),
		IsActive:       true,
	}

	suite.mockAccountService.On("CreateAccount",
		mock.Anything,
		testTenantID,
		mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
			return req.Name == "Main bank" && req.InitialBalance.Equal(decimal.NewFromInt(1000))
		}),
		testUserID,
	).Return(created, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", `{"name":"Main bank","initialBalance":1000}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(accountID, resp.AccountID)
	suite.True(resp.Balance.Equal(decimal.NewFromInt(1000)))
	suite.True(resp.IsActive)
}

func (suite *HandlerTestSuite) TestCreateAccount_BindingErrors() {
	bodies := map[string]string{
		"missing name":     `{"initialBalance":100}`,
		"negative balance": `{"name":"Petty cash","initialBalance":-5}`,
		"malformed json":   `{"name":`,
	}
	for name, body := range bodies {
		w := suite.do(http.MethodPost, "/api/v1/accounts", body)
		suite.Equal(http.StatusBadRequest, w.Code, name)
	}
	suite.mockAccountService.AssertNotCalled(suite.T(), "CreateAccount")
}

func (suite *HandlerTestSuite) TestGetAccount_NotFound() {
	suite.mockAccountService.On("GetAccountByID", mock.Anything, testTenantID, "acc-missing").
		Return(nil, apperrors.NewNotFoundError("account", "acc-missing")).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-missing", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Contains(w.Body.String(), "acc-missing")
}

func (suite *HandlerTestSuite) TestListAccounts_DefaultsAndLimits() {
	accounts := []domain.Account{
		{AccountID: "acc-1", Name: "Bank", Balance: decimal.NewFromInt(10), IsActive: true},
		{AccountID: "acc-2", Name: "Cash", Balance: decimal.NewFromInt(20), IsActive: true},
	}
	suite.mockAccountService.On("ListAccounts", mock.Anything, testTenantID, 20, 0).Return(accounts, nil).Once()
	suite.mockAccountService.On("ListAccounts", mock.Anything, testTenantID, 5, 10).Return([]domain.Account{}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts", "")
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Accounts, 2)
	suite.Equal("acc-2", resp.Accounts[1].AccountID)

	w = suite.do(http.MethodGet, "/api/v1/accounts?limit=5&offset=10", "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/accounts?limit=500", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListTransactionsByAccount_Success() {
	accountID := uuid.NewString()
	limit := 10
	token := "eyJjdXJzb3IiOiJ4In0"
	next := "next-page"

	expected := &dto.ListTransactionsResponse{
		Transactions: []dto.TransactionResponse{
			{TransactionID: uuid.NewString(), AccountID: accountID, Kind: string(domain.Income), Amount: decimal.NewFromInt(100), Status: string(domain.TransactionActive), Date: "2026-03-10", CreatedAt: time.Now()},
			{TransactionID: uuid.NewString(), AccountID: accountID, Kind: string(domain.Expense), Amount: decimal.NewFromInt(50), Status: string(domain.TransactionCancelled), Date: "2026-03-09", CreatedAt: time.Now()},
		},
		NextToken: &next,
	}

	suite.mockLedgerService.On("ListTransactionsByAccount",
		mock.Anything,
		testTenantID,
		accountID,
		mock.MatchedBy(func(p dto.ListTransactionsParams) bool {
			return p.Limit == limit && p.NextToken != nil && *p.NextToken == token
		}),
	).Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/accounts/%s/transactions?limit=%d&nextToken=%s", accountID, limit, token)
	w := suite.do(http.MethodGet, url, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListTransactionsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Transactions, 2)
	suite.Equal(expected.Transactions[0].TransactionID, resp.Transactions[0].TransactionID)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(next, *resp.NextToken)
	suite.mockAccountService.AssertNotCalled(suite.T(), "ListAccounts")
}

func (suite *HandlerTestSuite) TestListTransactionsByAccount_BadToken() {
	suite.mockLedgerService.On("ListTransactionsByAccount", mock.Anything, testTenantID, "acc-1", mock.Anything).
		Return(nil, fmt.Errorf("%w: invalid pagination token", apperrors.ErrValidation)).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/transactions?nextToken=bogus", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "invalid pagination token")
}

func (suite *HandlerTestSuite) TestReconcileAccount_ReportsDrift() {
	suite.mockAccountService.On("ReconcileAccount", mock.Anything, testTenantID, "acc-1").Return(&dto.AccountReconciliationResponse{
		AccountID:        "acc-1",
		StoredBalance:    decimal.NewFromInt(260),
		ExpectedBalance:  decimal.NewFromInt(250),
		Difference:       decimal.NewFromInt(10),
		InBalance:        false,
		TransactionCount: 3,
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/reconciliation", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountReconciliationResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.InBalance)
	suite.True(resp.Difference.Equal(decimal.NewFromInt(10)))
	suite.Equal(3, resp.TransactionCount)
}

func (suite *HandlerTestSuite) TestReconcileAccount_InternalErrorIsHidden() {
	suite.mockAccountService.On("ReconcileAccount", mock.Anything, testTenantID, "acc-1").
		Return(nil, apperrors.NewAppError(500, "connection reset", nil)).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/reconciliation", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Contains(w.Body.String(), "Failed to reconcile account")
	suite.NotContains(w.Body.String(), "connection reset")
}
