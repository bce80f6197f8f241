package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/travel_agency_ledger/internal/core/ports/services"
	"github.com/SscSPs/travel_agency_ledger/internal/dto"
	"github.com/SscSPs/travel_agency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler exposes standalone movements and cancellation.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// RegisterTransactionRoutes registers routes for ledger movements.
func RegisterTransactionRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.recordMovement)
		txns.GET("/:transactionID", h.getTransaction)
		txns.POST("/:transactionID/cancel", h.cancelTransaction)
	}
}

// recordMovement godoc
// @Summary Record a standalone movement
// @Description Records an INCOME, EXPENSE or TRANSFER not tied to a booking. For transfers the source leg is returned.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   movement body dto.RecordMovementRequest true "Movement"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 409 {object} map[string]string "Invalid transfer or inactive account"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Failure 500 {object} map[string]string "Failed to record movement"
// @Security BearerAuth
// @Router /transactions [post]
func (h *ledgerHandler) recordMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordMovement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	txn, err := h.ledgerService.RecordStandaloneMovement(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record movement")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a movement by ID
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	txn, err := h.ledgerService.GetTransactionByID(c.Request.Context(), tenantID, transactionID)
	if err != nil {
		respondWithError(c, logger.With(slog.String("transaction_id", transactionID)), err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// cancelTransaction godoc
// @Summary Cancel a movement
// @Description Reverses an ACTIVE movement and its effects: installments for booking payments, both legs for transfers, the supplier payment for supplier expenses
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already cancelled"
// @Failure 500 {object} map[string]string "Failed to cancel transaction"
// @Security BearerAuth
// @Router /transactions/{transactionID}/cancel [post]
func (h *ledgerHandler) cancelTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID))
	logger.Info("Received request to cancel transaction")

	if err := h.ledgerService.CancelTransaction(c.Request.Context(), tenantID, transactionID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to cancel transaction")
		return
	}

	c.Status(http.StatusNoContent)
}
