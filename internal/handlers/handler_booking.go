package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type bookingHandler struct {
	bookingService portssvc.BookingSvcFacade
	paymentService portssvc.PaymentSvcFacade
}

// RegisterBookingRoutes registers booking, schedule and customer payment routes.
func RegisterBookingRoutes(rg *gin.RouterGroup, bookingService portssvc.BookingSvcFacade, paymentService portssvc.PaymentSvcFacade) {
	h := &bookingHandler{bookingService: bookingService, paymentService: paymentService}

	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.createBooking)
		bookings.GET("/:bookingID", h.getBooking)
		bookings.PUT("/:bookingID", h.updateBookingTerms)
		bookings.POST("/:bookingID/schedule/regenerate", h.regenerateSchedule)
		bookings.POST("/:bookingID/payments", h.applyPayment)
	}
}

// createBooking godoc
// @Summary Create a booking
// @Description Creates a booking and, for CREDIT bookings, its installment plan
// @Tags bookings
// @Accept  json
// @Produce  json
// @Param   booking body dto.BookingTermsRequest true "Booking terms"
// @Success 201 {object} dto.BookingResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create booking"
// @Security BearerAuth
// @Router /bookings [post]
func (h *bookingHandler) createBooking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BookingTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBooking", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

// getBooking godoc
// @Summary Get a booking with its installment plan
// @Tags bookings
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Success 200 {object} dto.BookingResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Booking not found"
// @Failure 500 {object} map[string]string "Failed to retrieve booking"
// @Security BearerAuth
// @Router /bookings/{bookingID} [get]
func (h *bookingHandler) getBooking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("bookingID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), tenantID, bookingID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("booking_id", bookingID)), err, "Failed to retrieve booking")
		return
	}

	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// updateBookingTerms godoc
// @Summary Replace a booking's terms
// @Description Replaces every term; the installment plan is regenerated when a priced term changed, keeping money already collected
// @Tags bookings
// @Accept  json
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Param   booking body dto.BookingTermsRequest true "Booking terms"
// @Success 200 {object} dto.BookingResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Booking not found"
// @Failure 409 {object} map[string]string "Booking is cancelled"
// @Failure 500 {object} map[string]string "Failed to update booking"
// @Security BearerAuth
// @Router /bookings/{bookingID} [put]
func (h *bookingHandler) updateBookingTerms(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("bookingID")
	var req dto.BookingTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateBookingTerms", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	booking, err := h.bookingService.UpdateBookingTerms(c.Request.Context(), tenantID, bookingID, req, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("booking_id", bookingID)), err, "Failed to update booking")
		return
	}

	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// regenerateSchedule godoc
// @Summary Regenerate a booking's installment plan
// @Tags bookings
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Success 200 {object} dto.BookingResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Booking not found"
// @Failure 409 {object} map[string]string "Booking is cancelled"
// @Failure 500 {object} map[string]string "Failed to regenerate schedule"
// @Security BearerAuth
// @Router /bookings/{bookingID}/schedule/regenerate [post]
func (h *bookingHandler) regenerateSchedule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("bookingID")

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	booking, err := h.bookingService.RegenerateSchedule(c.Request.Context(), tenantID, bookingID, userID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("booking_id", bookingID)), err, "Failed to regenerate schedule")
		return
	}

	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// applyPayment godoc
// @Summary Apply a customer payment
// @Description Distributes the payment from the given installment forward and records one INCOME for the full amount
// @Tags bookings
// @Accept  json
// @Produce  json
// @Param   bookingID path string true "Booking ID"
// @Param   payment body dto.ApplyPaymentRequest true "Payment"
// @Success 201 {object} dto.ApplyPaymentResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Booking, installment or account not found"
// @Failure 409 {object} map[string]string "Booking is cancelled or account inactive"
// @Failure 500 {object} map[string]string "Failed to apply payment"
// @Security BearerAuth
// @Router /bookings/{bookingID}/payments [post]
func (h *bookingHandler) applyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bookingID := c.Param("bookingID")
	var req dto.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("booking_id", bookingID))
	result, err := h.paymentService.ApplyPayment(c.Request.Context(), tenantID, bookingID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to apply payment")
		return
	}

	c.JSON(http.StatusCreated, dto.ToApplyPaymentResponse(result))
}
