package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type requestHandler struct {
	commandHandler
	requestService portssvc.RequestSvcFacade
	paymentService portssvc.PaymentSvcFacade
}

// registerRequestRoutes registers the aid request boundary.
func registerRequestRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &requestHandler{
		commandHandler: commandHandler{dispatcher: services.Dispatcher},
		requestService: services.Request,
		paymentService: services.Payment,
	}

	requests := rg.Group("/requests")
	{
		requests.PUT("/:requestID", h.syncRequest)
		requests.GET("/:requestID", h.getRequest)
		requests.GET("/:requestID/payments", h.listRequestPayments)
	}
}

// syncRequest godoc
// @Summary Record an approved aid request
// @Description Creates or updates the ledger view of a request approved upstream.
// @Tags requests
// @Accept json
// @Produce json
// @Param requestID path string true "Request ID"
// @Param request body dto.SyncRequestRequest true "Approval"
// @Success 200 {object} dto.AidRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /requests/{requestID} [put]
// @Security BearerAuth
func (h *requestHandler) syncRequest(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.SyncRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, req.ToCommand(c.Param("requestID"), userID), http.StatusOK)
}

// getRequest godoc
// @Summary Get an aid request
// @Tags requests
// @Produce json
// @Param requestID path string true "Request ID"
// @Success 200 {object} dto.AidRequestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /requests/{requestID} [get]
// @Security BearerAuth
func (h *requestHandler) getRequest(c *gin.Context) {
	request, err := h.requestService.GetRequest(c.Request.Context(), c.Param("requestID"))
	if err != nil {
		writeError(c, err, "Failed to get request")
		return
	}
	c.JSON(http.StatusOK, dto.ToAidRequestResponse(request))
}

// listRequestPayments godoc
// @Summary List a request's payments
// @Tags requests
// @Produce json
// @Param requestID path string true "Request ID"
// @Success 200 {array} domain.Payment
// @Router /requests/{requestID}/payments [get]
// @Security BearerAuth
func (h *requestHandler) listRequestPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPaymentsByRequest(c.Request.Context(), c.Param("requestID"))
	if err != nil {
		writeError(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}
