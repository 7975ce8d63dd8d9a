package handlers

import (
	"net/http"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type paymentHandler struct {
	commandHandler
	paymentService portssvc.PaymentReaderSvc
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &paymentHandler{
		commandHandler: commandHandler{dispatcher: services.Dispatcher},
		paymentService: services.Payment,
	}

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:paymentID", h.getPayment)
		payments.POST("/:paymentID/process", h.processPayment)
		payments.POST("/:paymentID/cancel", h.cancelPayment)
		payments.POST("/:paymentID/retry", h.retryPayment)
		payments.POST("/:paymentID/fail", h.markFailed)
		payments.POST("/:paymentID/release", h.releasePayment)
		payments.POST("/:paymentID/hold", h.holdPayment)
		payments.POST("/:paymentID/resume", h.resumePayment)
		payments.POST("/:paymentID/refund", h.refundPayment)
	}
}

// createPayment godoc
// @Summary Create a payment
// @Description Creates a payment against an approved request. When a pool is
// @Description given, the amount is reserved from it in the same transaction.
// @Tags payments
// @Accept json
// @Produce json
// @Param payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} domain.Payment
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /payments [post]
// @Security BearerAuth
func (h *paymentHandler) createPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, req.ToCommand(userID), http.StatusCreated)
}

// listPayments godoc
// @Summary List payments
// @Description Lists payments newest first, one page at a time.
// @Tags payments
// @Produce json
// @Param status query string false "Payment status"
// @Param requestID query string false "Request ID"
// @Param poolID query string false "Pool ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /payments [get]
// @Security BearerAuth
func (h *paymentHandler) listPayments(c *gin.Context) {
	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, err)
		return
	}
	filter := portsrepo.PaymentFilter{
		Status:    domain.PaymentStatus(params.Status),
		RequestID: params.RequestID,
		PoolID:    params.PoolID,
		Limit:     params.Limit,
	}
	if params.NextToken != "" {
		filter.NextToken = &params.NextToken
	}

	payments, next, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "Failed to list payments")
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	c.JSON(http.StatusOK, dto.ListPaymentsResponse{Payments: payments, NextToken: next})
}

// getPayment godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 404 {object} dto.ErrorResponse
// @Router /payments/{paymentID} [get]
// @Security BearerAuth
func (h *paymentHandler) getPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		writeError(c, err, "Failed to get payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// processPayment godoc
// @Summary Complete a processing payment
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param body body dto.ProcessPaymentRequest false "Disbursement reference"
// @Success 200 {object} domain.Payment
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/process [post]
// @Security BearerAuth
func (h *paymentHandler) processPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ProcessPaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.ProcessPaymentCommand{PaymentID: c.Param("paymentID"), TransactionID: req.TransactionID, Actor: userID}, http.StatusOK)
}

// cancelPayment godoc
// @Summary Cancel a payment
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param body body dto.ReasonRequest false "Reason"
// @Success 200 {object} domain.Payment
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/cancel [post]
// @Security BearerAuth
func (h *paymentHandler) cancelPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.CancelPaymentCommand{PaymentID: c.Param("paymentID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}

// retryPayment godoc
// @Summary Retry a failed payment
// @Tags payments
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/retry [post]
// @Security BearerAuth
func (h *paymentHandler) retryPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.RetryPaymentCommand{PaymentID: c.Param("paymentID"), Actor: userID}, http.StatusOK)
}

// markFailed godoc
// @Summary Record a disbursement failure
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param body body dto.MarkFailedRequest true "Failure"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/fail [post]
// @Security BearerAuth
func (h *paymentHandler) markFailed(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.MarkFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, domain.MarkPaymentFailedCommand{
		PaymentID: c.Param("paymentID"),
		Code:      req.Code,
		Message:   req.Message,
		Actor:     userID,
	}, http.StatusOK)
}

// releasePayment godoc
// @Summary Release a scheduled payment
// @Tags payments
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 422 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/release [post]
// @Security BearerAuth
func (h *paymentHandler) releasePayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.ReleaseScheduledPaymentCommand{PaymentID: c.Param("paymentID"), Actor: userID}, http.StatusOK)
}

// holdPayment godoc
// @Summary Put a payment on hold
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param body body dto.ReasonRequest true "Reason"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/hold [post]
// @Security BearerAuth
func (h *paymentHandler) holdPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.HoldPaymentCommand{PaymentID: c.Param("paymentID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}

// resumePayment godoc
// @Summary Take a payment off hold
// @Tags payments
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/resume [post]
// @Security BearerAuth
func (h *paymentHandler) resumePayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.ResumePaymentCommand{PaymentID: c.Param("paymentID"), Actor: userID}, http.StatusOK)
}

// refundPayment godoc
// @Summary Refund a completed payment
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Param body body dto.ReasonRequest true "Reason"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /payments/{paymentID}/refund [post]
// @Security BearerAuth
func (h *paymentHandler) refundPayment(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.RefundPaymentCommand{PaymentID: c.Param("paymentID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}
