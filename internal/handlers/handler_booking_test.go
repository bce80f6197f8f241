package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/travel_agency_ledger/internal/apperrors"
	"github.com/SscSPs/travel_agency_ledger/internal/core/domain"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func creditBookingFixture() *dto.BookingWithInstallments {
	return &dto.BookingWithInstallments{
		Booking: domain.Booking{
			BookingID:        "bk-1",
			TenantID:         testTenantID,
			Description:      "Cancun 5 nights",
			TotalPrice:       decimal.NewFromInt(1200),
			NetCost:          decimal.NewFromInt(900),
			PaymentType:      domain.PaymentCredit,
			DownPayment:      decimal.NewFromInt(300),
			InstallmentCount: 3,
			Frequency:        domain.FrequencyMonthly,
			FirstPaymentDate: date(2026, 3, 10),
			Status:           domain.BookingActive,
		},
		Installments: []domain.Installment{
			{InstallmentID: "in-1", SequenceNumber: 1, DueDate: date(2026, 3, 10), Amount: decimal.NewFromInt(300), PaidAmount: decimal.Zero, Status: domain.InstallmentPending},
			{InstallmentID: "in-2", SequenceNumber: 2, DueDate: date(2026, 4, 10), Amount: decimal.NewFromInt(300), PaidAmount: decimal.Zero, Status: domain.InstallmentPending},
			{InstallmentID: "in-3", SequenceNumber: 3, DueDate: date(2026, 5, 10), Amount: decimal.NewFromInt(300), PaidAmount: decimal.Zero, Status: domain.InstallmentPending},
		},
	}
}

func (suite *HandlerTestSuite) TestCreateBooking_Credit() {
	suite.mockBookingService.On("CreateBooking",
		mock.Anything,
		testTenantID,
		mock.MatchedBy(func(req dto.BookingTermsRequest) bool {
			return req.PaymentType == "CREDIT" &&
				req.InstallmentCount == 3 &&
				req.TotalPrice.Equal(decimal.NewFromInt(1200)) &&
				req.FirstPaymentDate != nil && *req.FirstPaymentDate == "2026-03-10"
		}),
		testUserID,
	).Return(creditBookingFixture(), nil).Once()

	body := `{"description":"Cancun 5 nights","totalPrice":1200,"netCost":900,"paymentType":"CREDIT","downPayment":300,
		"installmentCount":3,"frequency":"MONTHLY","firstPaymentDate":"2026-03-10"}`
	w := suite.do(http.MethodPost, "/api/v1/bookings", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.BookingResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("bk-1", resp.BookingID)
	suite.Equal("ACTIVE", resp.Status)
	suite.Require().Len(resp.Installments, 3)
	suite.Equal("2026-04-10", resp.Installments[1].DueDate)
	suite.True(resp.Installments[2].Amount.Equal(decimal.NewFromInt(300)))
	suite.Require().NotNil(resp.FirstPaymentDate)
	suite.Equal("2026-03-10", *resp.FirstPaymentDate)
}

func (suite *HandlerTestSuite) TestCreateBooking_BindingErrors() {
	bodies := map[string]string{
		"zero price":        `{"totalPrice":0,"paymentType":"CASH"}`,
		"unknown type":      `{"totalPrice":100,"paymentType":"BARTER"}`,
		"unknown frequency": `{"totalPrice":100,"paymentType":"CREDIT","installmentCount":2,"frequency":"WEEKLY"}`,
		"negative down":     `{"totalPrice":100,"paymentType":"CREDIT","downPayment":-1}`,
		"bad first date":    `{"totalPrice":100,"paymentType":"CREDIT","installmentCount":2,"firstPaymentDate":"2026-13-01"}`,
	}
	for name, body := range bodies {
		w := suite.do(http.MethodPost, "/api/v1/bookings", body)
		suite.Equal(http.StatusBadRequest, w.Code, name)
	}
	suite.mockBookingService.AssertNotCalled(suite.T(), "CreateBooking")
}

func (suite *HandlerTestSuite) TestGetBooking_NotFound() {
	suite.mockBookingService.On("GetBooking", mock.Anything, testTenantID, "bk-x").
		Return(nil, apperrors.NewNotFoundError("booking", "bk-x")).Once()

	w := suite.do(http.MethodGet, "/api/v1/bookings/bk-x", "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateBookingTerms_CancelledBooking() {
	suite.mockBookingService.On("UpdateBookingTerms", mock.Anything, testTenantID, "bk-1", mock.Anything, testUserID).
		Return(nil, fmt.Errorf("%w: booking bk-1 is cancelled", apperrors.ErrInvalidState)).Once()

	w := suite.do(http.MethodPut, "/api/v1/bookings/bk-1", `{"totalPrice":1500,"paymentType":"CASH"}`)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestRegenerateSchedule() {
	suite.mockBookingService.On("RegenerateSchedule", mock.Anything, testTenantID, "bk-1", testUserID).
		Return(creditBookingFixture(), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/bookings/bk-1/schedule/regenerate", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"installmentID":"in-3"`)
}

func (suite *HandlerTestSuite) TestApplyPayment_Overpayment() {
	paidDate := date(2026, 3, 10)
	fixture := creditBookingFixture()
	settled := fixture.Installments
	for i := range settled {
		settled[i].PaidAmount = settled[i].Amount
		settled[i].Status = domain.InstallmentPaid
		settled[i].PaidDate = &paidDate
	}
	bookingID := "bk-1"
	result := &dto.ApplyPaymentResult{
		BookingStatus:       domain.BookingCompleted,
		UpdatedInstallments: settled,
		Transaction: domain.Transaction{
			TransactionID: "txn-pay",
			AccountID:     "acc-1",
			Kind:          domain.Income,
			Amount:        decimal.NewFromInt(1000),
			BookingID:     &bookingID,
			Status:        domain.TransactionActive,
			Date:          paidDate,
		},
		AppliedAmount:   decimal.NewFromInt(900),
		UnappliedAmount: decimal.NewFromInt(100),
	}

	suite.mockPaymentService.On("ApplyPayment",
		mock.Anything,
		testTenantID,
		bookingID,
		mock.MatchedBy(func(req dto.ApplyPaymentRequest) bool {
			return req.StartingInstallmentID == "in-1" &&
				req.AccountID == "acc-1" &&
				req.Amount.Equal(decimal.NewFromInt(1000)) &&
				req.Notes != nil && *req.Notes == "paid in full"
		}),
		testUserID,
	).Return(result, nil).Once()

	body := `{"startingInstallmentID":"in-1","amount":"1000","accountID":"acc-1","notes":"paid in full"}`
	w := suite.do(http.MethodPost, "/api/v1/bookings/bk-1/payments", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ApplyPaymentResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("COMPLETED", resp.BookingStatus)
	suite.Len(resp.UpdatedInstallments, 3)
	suite.True(resp.UnappliedAmount.Equal(decimal.NewFromInt(100)))
	suite.True(resp.Transaction.Amount.Equal(decimal.NewFromInt(1000)))
	suite.Require().NotNil(resp.UpdatedInstallments[0].PaidDate)
	suite.Equal("2026-03-10", *resp.UpdatedInstallments[0].PaidDate)
}

func (suite *HandlerTestSuite) TestApplyPayment_Errors() {
	suite.mockPaymentService.On("ApplyPayment", mock.Anything, testTenantID, "bk-cancelled", mock.Anything, testUserID).
		Return(nil, fmt.Errorf("%w: booking bk-cancelled is cancelled", apperrors.ErrInvalidState)).Once()
	suite.mockPaymentService.On("ApplyPayment", mock.Anything, testTenantID, "bk-1", mock.Anything, testUserID).
		Return(nil, apperrors.NewNotFoundError("installment", "in-9")).Once()

	body := `{"startingInstallmentID":"in-9","amount":100,"accountID":"acc-1"}`

	w := suite.do(http.MethodPost, "/api/v1/bookings/bk-cancelled/payments", body)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/bookings/bk-1/payments", body)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/bookings/bk-1/payments", `{"amount":100,"accountID":"acc-1"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}
