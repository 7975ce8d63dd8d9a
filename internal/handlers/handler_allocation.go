package handlers

import (
	"net/http"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type allocationHandler struct {
	commandHandler
	allocationService portssvc.AllocationReaderSvc
}

// registerAllocationRoutes registers routes related to allocations.
func registerAllocationRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &allocationHandler{
		commandHandler:    commandHandler{dispatcher: services.Dispatcher},
		allocationService: services.Allocation,
	}

	allocations := rg.Group("/allocations")
	{
		allocations.POST("", h.reserve)
		allocations.GET("/:allocationID", h.getAllocation)
		allocations.POST("/:allocationID/confirm", h.confirm)
		allocations.POST("/:allocationID/settle", h.settle)
		allocations.POST("/:allocationID/cancel", h.cancel)
		allocations.POST("/:allocationID/refund", h.refund)
	}
}

// reserve godoc
// @Summary Reserve pool funds
// @Description Reserves funds from an active pool for an approved request.
// @Tags allocations
// @Accept json
// @Produce json
// @Param allocation body dto.ReserveRequest true "Reservation"
// @Success 201 {object} domain.Allocation
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /allocations [post]
// @Security BearerAuth
func (h *allocationHandler) reserve(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, req.ToCommand(userID), http.StatusCreated)
}

// getAllocation godoc
// @Summary Get an allocation
// @Tags allocations
// @Produce json
// @Param allocationID path string true "Allocation ID"
// @Success 200 {object} domain.Allocation
// @Failure 404 {object} dto.ErrorResponse
// @Router /allocations/{allocationID} [get]
// @Security BearerAuth
func (h *allocationHandler) getAllocation(c *gin.Context) {
	allocation, err := h.allocationService.GetAllocation(c.Request.Context(), c.Param("allocationID"))
	if err != nil {
		writeError(c, err, "Failed to get allocation")
		return
	}
	c.JSON(http.StatusOK, allocation)
}

// confirm godoc
// @Summary Confirm a reserved allocation
// @Tags allocations
// @Produce json
// @Param allocationID path string true "Allocation ID"
// @Success 200 {object} domain.Allocation
// @Failure 409 {object} dto.ErrorResponse
// @Router /allocations/{allocationID}/confirm [post]
// @Security BearerAuth
func (h *allocationHandler) confirm(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.ConfirmCommand{AllocationID: c.Param("allocationID"), Actor: userID}, http.StatusOK)
}

// settle godoc
// @Summary Mark a confirmed allocation paid
// @Tags allocations
// @Produce json
// @Param allocationID path string true "Allocation ID"
// @Success 200 {object} domain.Allocation
// @Failure 409 {object} dto.ErrorResponse
// @Router /allocations/{allocationID}/settle [post]
// @Security BearerAuth
func (h *allocationHandler) settle(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.SettleCommand{AllocationID: c.Param("allocationID"), Actor: userID}, http.StatusOK)
}

// cancel godoc
// @Summary Cancel an allocation
// @Description Releases the reservation of a reserved or confirmed allocation.
// @Tags allocations
// @Accept json
// @Produce json
// @Param allocationID path string true "Allocation ID"
// @Param body body dto.ReasonRequest false "Reason"
// @Success 200 {object} domain.Allocation
// @Failure 409 {object} dto.ErrorResponse
// @Router /allocations/{allocationID}/cancel [post]
// @Security BearerAuth
func (h *allocationHandler) cancel(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.CancelAllocationCommand{AllocationID: c.Param("allocationID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}

// refund godoc
// @Summary Refund a paid allocation
// @Tags allocations
// @Accept json
// @Produce json
// @Param allocationID path string true "Allocation ID"
// @Param body body dto.ReasonRequest false "Reason"
// @Success 200 {object} domain.Allocation
// @Failure 409 {object} dto.ErrorResponse
// @Router /allocations/{allocationID}/refund [post]
// @Security BearerAuth
func (h *allocationHandler) refund(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.RefundAllocationCommand{AllocationID: c.Param("allocationID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}
