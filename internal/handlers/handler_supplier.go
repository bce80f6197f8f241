package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type supplierHandler struct {
	supplierService portssvc.SupplierSvcFacade
}

// RegisterSupplierRoutes registers supplier payment and exposure routes.
func RegisterSupplierRoutes(rg *gin.RouterGroup, supplierService portssvc.SupplierSvcFacade) {
	h := &supplierHandler{supplierService: supplierService}

	payments := rg.Group("/supplier-payments")
	{
		payments.POST("", h.recordSupplierPayment)
		payments.GET("/:paymentID", h.getSupplierPayment)
		payments.POST("/:paymentID/cancel", h.cancelSupplierPayment)
	}
	rg.GET("/suppliers/exposure", h.getSupplierExposure)
}

// recordSupplierPayment godoc
// @Summary Pay a supplier
// @Description Records a payment against a booking's net cost, backed by an EXPENSE on the paying account
// @Tags suppliers
// @Accept  json
// @Produce  json
// @Param   payment body dto.RecordSupplierPaymentRequest true "Supplier payment"
// @Success 201 {object} dto.SupplierPaymentResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Booking or account not found"
// @Failure 409 {object} map[string]string "Booking is cancelled"
// @Failure 422 {object} map[string]string "Exceeds remaining debt or account balance"
// @Failure 500 {object} map[string]string "Failed to record supplier payment"
// @Security BearerAuth
// @Router /supplier-payments [post]
func (h *supplierHandler) recordSupplierPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordSupplierPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordSupplierPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	payment, err := h.supplierService.RecordSupplierPayment(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("booking_id", req.BookingID)), err, "Failed to record supplier payment")
		return
	}

	c.JSON(http.StatusCreated, dto.ToSupplierPaymentResponse(payment))
}

// getSupplierPayment godoc
// @Summary Get a supplier payment
// @Tags suppliers
// @Produce  json
// @Param   paymentID path string true "Supplier payment ID"
// @Success 200 {object} dto.SupplierPaymentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Supplier payment not found"
// @Failure 500 {object} map[string]string "Failed to retrieve supplier payment"
// @Security BearerAuth
// @Router /supplier-payments/{paymentID} [get]
func (h *supplierHandler) getSupplierPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	payment, err := h.supplierService.GetSupplierPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve supplier payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToSupplierPaymentResponse(payment))
}

// cancelSupplierPayment godoc
// @Summary Cancel a supplier payment
// @Description Cancels the payment and its backing expense, restoring the account balance
// @Tags suppliers
// @Produce  json
// @Param   paymentID path string true "Supplier payment ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Supplier payment not found"
// @Failure 409 {object} map[string]string "Already cancelled"
// @Failure 500 {object} map[string]string "Failed to cancel supplier payment"
// @Security BearerAuth
// @Router /supplier-payments/{paymentID}/cancel [post]
func (h *supplierHandler) cancelSupplierPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	if err := h.supplierService.CancelSupplierPayment(c.Request.Context(), tenantID, paymentID, userID); err != nil {
		respondWithError(c, logger.With(slog.String("supplier_payment_id", paymentID)), err, "Failed to cancel supplier payment")
		return
	}

	c.Status(http.StatusNoContent)
}

// getSupplierExposure godoc
// @Summary Supplier debt exposure
// @Description Outstanding supplier debt per booking and per supplier with a risk traffic light
// @Tags suppliers
// @Produce  json
// @Param   supplierID query string false "Restrict to one supplier"
// @Success 200 {object} domain.ExposureReport
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute supplier exposure"
// @Security BearerAuth
// @Router /suppliers/exposure [get]
func (h *supplierHandler) getSupplierExposure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var supplierID *string
	if s := c.Query("supplierID"); s != "" {
		supplierID = &s
	}

	report, err := h.supplierService.GetSupplierExposure(c.Request.Context(), tenantID, supplierID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute supplier exposure")
		return
	}

	c.JSON(http.StatusOK, report)
}
