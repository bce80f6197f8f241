package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestRecordSupplierPayment_Success() {
	payment := &domain.SupplierPayment{
		SupplierPaymentID: "sp-1",
		BookingID:         "bk-1",
		SupplierID:        "sup-1",
		AccountID:         "acc-1",
		TransactionID:     "txn-exp",
		Amount:            decimal.NewFromInt(400),
		Status:            domain.SupplierPaymentActive,
		Date:              date(2026, 3, 10),
	}
	suite.mockSupplierService.On("RecordSupplierPayment",
		mock.Anything,
		testTenantID,
		mock.MatchedBy(func(req dto.RecordSupplierPaymentRequest) bool {
			return req.BookingID == "bk-1" && req.SupplierID == "sup-1" && req.Amount.Equal(decimal.NewFromInt(400))
		}),
		testUserID,
	).Return(payment, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/supplier-payments", `{"bookingID":"bk-1","supplierID":"sup-1","accountID":"acc-1","amount":400}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.SupplierPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("sp-1", resp.SupplierPaymentID)
	suite.Equal("txn-exp", resp.TransactionID)
	suite.Equal("2026-03-10", resp.Date)
}

func (suite *HandlerTestSuite) TestRecordSupplierPayment_ExceedsDebt() {
	suite.mockSupplierService.On("RecordSupplierPayment", mock.Anything, testTenantID, mock.Anything, testUserID).
		Return(nil, fmt.Errorf("%w: payment 1000 exceeds remaining supplier debt 500", apperrors.ErrInsufficientFunds)).Once()

	w := suite.do(http.MethodPost, "/api/v1/supplier-payments", `{"bookingID":"bk-1","supplierID":"sup-1","accountID":"acc-1","amount":1000}`)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), "remaining supplier debt")
}

func (suite *HandlerTestSuite) TestRecordSupplierPayment_MissingSupplier() {
	w := suite.do(http.MethodPost, "/api/v1/supplier-payments", `{"bookingID":"bk-1","accountID":"acc-1","amount":10}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSupplierService.AssertNotCalled(suite.T(), "RecordSupplierPayment")
}

func (suite *HandlerTestSuite) TestGetAndCancelSupplierPayment() {
	suite.mockSupplierService.On("GetSupplierPayment", mock.Anything, testTenantID, "sp-1").Return(&domain.SupplierPayment{
		SupplierPaymentID: "sp-1",
		Amount:            decimal.NewFromInt(400),
		Status:            domain.SupplierPaymentCancelled,
		Date:              date(2026, 3, 10),
	}, nil).Once()
	suite.mockSupplierService.On("CancelSupplierPayment", mock.Anything, testTenantID, "sp-1", testUserID).Return(nil).Once()
	suite.mockSupplierService.On("CancelSupplierPayment", mock.Anything, testTenantID, "sp-1", testUserID).
		Return(fmt.Errorf("%w: supplier payment sp-1 is already cancelled", apperrors.ErrInvalidState)).Once()

	w := suite.do(http.MethodPost, "/api/v1/supplier-payments/sp-1/cancel", "")
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/supplier-payments/sp-1/cancel", "")
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/supplier-payments/sp-1", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"CANCELLED"`)
}

func (suite *HandlerTestSuite) TestGetSupplierExposure_Scope() {
	report := &domain.ExposureReport{
		AsOf: date(2026, 3, 10),
		Suppliers: []domain.SupplierExposure{{
			SupplierID: "sup-1",
			NetCost:    decimal.NewFromInt(900),
			TotalPaid:  decimal.NewFromInt(400),
			Remaining:  decimal.NewFromInt(500),
			Bookings: []domain.BookingExposure{{
				BookingID:    "bk-1",
				SupplierID:   "sup-1",
				NetCost:      decimal.NewFromInt(900),
				TotalPaid:    decimal.NewFromInt(400),
				Remaining:    decimal.NewFromInt(500),
				TrafficLight: domain.RiskYellow,
			}},
		}},
		TotalNetCost:   decimal.NewFromInt(900),
		TotalPaid:      decimal.NewFromInt(400),
		TotalRemaining: decimal.NewFromInt(500),
	}

	suite.mockSupplierService.On("GetSupplierExposure", mock.Anything, testTenantID,
		mock.MatchedBy(func(id *string) bool { return id != nil && *id == "sup-1" }),
	).Return(report, nil).Once()
	suite.mockSupplierService.On("GetSupplierExposure", mock.Anything, testTenantID, (*string)(nil)).
		Return(&domain.ExposureReport{AsOf: date(2026, 3, 10)}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/suppliers/exposure?supplierID=sup-1", "")
	suite.Equal(http.StatusOK, w.Code)
	var resp domain.ExposureReport
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Suppliers, 1)
	suite.Equal(domain.RiskYellow, resp.Suppliers[0].Bookings[0].TrafficLight)
	suite.True(resp.TotalRemaining.Equal(decimal.NewFromInt(500)))

	w = suite.do(http.MethodGet, "/api/v1/suppliers/exposure", "")
	suite.Equal(http.StatusOK, w.Code)
}
