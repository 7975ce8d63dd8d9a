package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/aid_budget_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/gin-gonic/gin"
)

type poolHandler struct {
	commandHandler
	poolService       portssvc.PoolSvcFacade
	allocationService portssvc.AllocationSvcFacade
	transferService   portssvc.TransferSvcFacade
	reportingService  portssvc.ReportingSvc
}

func newPoolHandler(services *portssvc.ServiceContainer) *poolHandler {
	return &poolHandler{
		commandHandler:    commandHandler{dispatcher: services.Dispatcher},
		poolService:       services.Pool,
		allocationService: services.Allocation,
		transferService:   services.Transfer,
		reportingService:  services.Reporting,
	}
}

// registerPoolRoutes registers routes related to budget pools.
func registerPoolRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newPoolHandler(services)

	pools := rg.Group("/pools")
	{
		pools.POST("", h.createPool)
		pools.GET("", h.listPools)
		pools.GET("/:poolID", h.getPool)
		pools.POST("/:poolID/top-up", h.topUpPool)
		pools.POST("/:poolID/activate", h.lifecycle("activate", portssvc.PoolSvcFacade.ActivatePool))
		pools.POST("/:poolID/freeze", h.lifecycle("freeze", portssvc.PoolSvcFacade.FreezePool))
		pools.POST("/:poolID/unfreeze", h.lifecycle("unfreeze", portssvc.PoolSvcFacade.UnfreezePool))
		pools.POST("/:poolID/cancel", h.lifecycle("cancel", portssvc.PoolSvcFacade.CancelPool))
		pools.GET("/:poolID/summary", h.getPoolSummary)
		pools.GET("/:poolID/allocations", h.listPoolAllocations)
		pools.GET("/:poolID/transfers", h.listPoolTransfers)
	}
}

// createPool godoc
// @Summary Create a budget pool
// @Description Creates a draft budget pool for a department and fiscal year.
// @Tags pools
// @Accept json
// @Produce json
// @Param pool body dto.CreatePoolRequest true "Pool details"
// @Success 201 {object} dto.PoolResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /pools [post]
// @Security BearerAuth
func (h *poolHandler) createPool(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, req.ToCommand(userID), http.StatusCreated)
}

// listPools godoc
// @Summary List budget pools
// @Tags pools
// @Produce json
// @Param status query string false "Pool status"
// @Param department query string false "Department"
// @Param fiscalYear query int false "Fiscal year"
// @Success 200 {array} dto.PoolResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /pools [get]
// @Security BearerAuth
func (h *poolHandler) listPools(c *gin.Context) {
	filter := portsrepo.PoolFilter{
		Status:     domain.PoolStatus(c.Query("status")),
		Department: c.Query("department"),
	}
	if fy := c.Query("fiscalYear"); fy != "" {
		year, err := strconv.Atoi(fy)
		if err != nil {
			writeError(c, apperrors.NewValidationError("fiscalYear", "must be a number"), "Invalid pool filter")
			return
		}
		filter.FiscalYear = year
	}

	pools, err := h.poolService.ListPools(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "Failed to list pools")
		return
	}
	c.JSON(http.StatusOK, dto.ToListPoolResponse(pools))
}

// getPool godoc
// @Summary Get a budget pool
// @Tags pools
// @Produce json
// @Param poolID path string true "Pool ID"
// @Success 200 {object} dto.PoolResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /pools/{poolID} [get]
// @Security BearerAuth
func (h *poolHandler) getPool(c *gin.Context) {
	pool, err := h.poolService.GetPool(c.Request.Context(), c.Param("poolID"))
	if err != nil {
		writeError(c, err, "Failed to get pool")
		return
	}
	c.JSON(http.StatusOK, dto.ToPoolResponse(pool))
}

// topUpPool godoc
// @Summary Top up a budget pool
// @Tags pools
// @Accept json
// @Produce json
// @Param poolID path string true "Pool ID"
// @Param body body dto.TopUpPoolRequest true "Amount"
// @Success 200 {object} dto.PoolResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /pools/{poolID}/top-up [post]
// @Security BearerAuth
func (h *poolHandler) topUpPool(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.TopUpPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, domain.TopUpPoolCommand{PoolID: c.Param("poolID"), Amount: req.Amount, Actor: userID}, http.StatusOK)
}

type poolTransition func(svc portssvc.PoolSvcFacade, ctx context.Context, poolID, actor string) (*domain.BudgetPool, error)

// lifecycle godoc
// @Summary Change a pool's status
// @Description Activates, freezes, unfreezes or cancels a pool.
// @Tags pools
// @Produce json
// @Param poolID path string true "Pool ID"
// @Param action path string true "activate, freeze, unfreeze or cancel"
// @Success 200 {object} dto.PoolResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /pools/{poolID}/{action} [post]
// @Security BearerAuth
func (h *poolHandler) lifecycle(action string, transition poolTransition) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := actor(c)
		if !ok {
			return
		}
		pool, err := transition(h.poolService, c.Request.Context(), c.Param("poolID"), userID)
		if err != nil {
			writeError(c, err, "Failed to "+action+" pool")
			return
		}
		c.JSON(http.StatusOK, dto.ToPoolResponse(pool))
	}
}

// getPoolSummary godoc
// @Summary Summarise a budget pool
// @Tags pools
// @Produce json
// @Param poolID path string true "Pool ID"
// @Success 200 {object} domain.PoolSummary
// @Failure 404 {object} dto.ErrorResponse
// @Router /pools/{poolID}/summary [get]
// @Security BearerAuth
func (h *poolHandler) getPoolSummary(c *gin.Context) {
	summary, err := h.reportingService.PoolSummary(c.Request.Context(), c.Param("poolID"))
	if err != nil {
		writeError(c, err, "Failed to summarise pool")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// listPoolAllocations godoc
// @Summary List a pool's allocations
// @Tags pools
// @Produce json
// @Param poolID path string true "Pool ID"
// @Success 200 {array} domain.Allocation
// @Router /pools/{poolID}/allocations [get]
// @Security BearerAuth
func (h *poolHandler) listPoolAllocations(c *gin.Context) {
	allocations, err := h.allocationService.ListAllocationsByPool(c.Request.Context(), c.Param("poolID"))
	if err != nil {
		writeError(c, err, "Failed to list allocations")
		return
	}
	c.JSON(http.StatusOK, allocations)
}

// listPoolTransfers godoc
// @Summary List transfers touching a pool
// @Tags pools
// @Produce json
// @Param poolID path string true "Pool ID"
// @Success 200 {array} domain.PoolTransfer
// @Router /pools/{poolID}/transfers [get]
// @Security BearerAuth
func (h *poolHandler) listPoolTransfers(c *gin.Context) {
	transfers, err := h.transferService.ListTransfersByPool(c.Request.Context(), c.Param("poolID"))
	if err != nil {
		writeError(c, err, "Failed to list transfers")
		return
	}
	c.JSON(http.StatusOK, transfers)
}
