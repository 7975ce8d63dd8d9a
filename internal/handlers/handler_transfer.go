package handlers

import (
	"net/http"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type transferHandler struct {
	commandHandler
	transferService portssvc.TransferSvcFacade
}

// registerTransferRoutes registers routes related to pool transfers.
func registerTransferRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &transferHandler{
		commandHandler:  commandHandler{dispatcher: services.Dispatcher},
		transferService: services.Transfer,
	}

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.initiate)
		transfers.GET("/:transferID", h.getTransfer)
		transfers.POST("/:transferID/approve", h.approve)
		transfers.POST("/:transferID/complete", h.complete)
		transfers.POST("/:transferID/reject", h.reject)
	}
}

// initiate godoc
// @Summary Initiate a pool transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body dto.InitiateTransferRequest true "Transfer"
// @Success 201 {object} domain.Transfer
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /transfers [post]
// @Security BearerAuth
func (h *transferHandler) initiate(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.InitiateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, req.ToCommand(userID), http.StatusCreated)
}

// getTransfer godoc
// @Summary Get a transfer
// @Tags transfers
// @Produce json
// @Param transferID path string true "Transfer ID"
// @Success 200 {object} domain.Transfer
// @Failure 404 {object} dto.ErrorResponse
// @Router /transfers/{transferID} [get]
// @Security BearerAuth
func (h *transferHandler) getTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), c.Param("transferID"))
	if err != nil {
		writeError(c, err, "Failed to get transfer")
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// approve godoc
// @Summary Approve a pending transfer
// @Description Earmarks the amount on the source pool.
// @Tags transfers
// @Produce json
// @Param transferID path string true "Transfer ID"
// @Success 200 {object} domain.Transfer
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /transfers/{transferID}/approve [post]
// @Security BearerAuth
func (h *transferHandler) approve(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.ApproveTransferCommand{TransferID: c.Param("transferID"), Actor: userID}, http.StatusOK)
}

// complete godoc
// @Summary Complete an approved transfer
// @Tags transfers
// @Produce json
// @Param transferID path string true "Transfer ID"
// @Success 200 {object} domain.Transfer
// @Failure 409 {object} dto.ErrorResponse
// @Router /transfers/{transferID}/complete [post]
// @Security BearerAuth
func (h *transferHandler) complete(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	h.dispatch(c, domain.CompleteTransferCommand{TransferID: c.Param("transferID"), Actor: userID}, http.StatusOK)
}

// reject godoc
// @Summary Reject a transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Param transferID path string true "Transfer ID"
// @Param body body dto.ReasonRequest false "Reason"
// @Success 200 {object} domain.Transfer
// @Failure 409 {object} dto.ErrorResponse
// @Router /transfers/{transferID}/reject [post]
// @Security BearerAuth
func (h *transferHandler) reject(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.dispatch(c, domain.RejectTransferCommand{TransferID: c.Param("transferID"), Reason: req.Reason, Actor: userID}, http.StatusOK)
}
