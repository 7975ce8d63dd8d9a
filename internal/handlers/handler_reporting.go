package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reportingHandler struct {
	reportingService      portssvc.ReportingSvc
	reconciliationService portssvc.ReconciliationSvc
}

// registerReportingRoutes registers dashboard and reconciliation routes.
func registerReportingRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &reportingHandler{
		reportingService:      services.Reporting,
		reconciliationService: services.Reconciliation,
	}

	rg.GET("/reports/dashboard", h.dashboard)
	rg.POST("/reconciliation/sweep", h.sweep)
}

// dashboard godoc
// @Summary Ledger dashboard
// @Description Totals across all pools and payment counts by status.
// @Tags reports
// @Produce json
// @Success 200 {object} domain.Dashboard
// @Failure 500 {object} dto.ErrorResponse
// @Router /reports/dashboard [get]
// @Security BearerAuth
func (h *reportingHandler) dashboard(c *gin.Context) {
	dashboard, err := h.reportingService.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// sweep godoc
// @Summary Run a reconciliation sweep
// @Description Expires pools, repairs dangling transfers, reports counter drift and relays pending events.
// @Tags reconciliation
// @Produce json
// @Success 200 {object} domain.SweepReport
// @Failure 500 {object} dto.ErrorResponse
// @Router /reconciliation/sweep [post]
// @Security BearerAuth
func (h *reportingHandler) sweep(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	report, err := h.reconciliationService.Sweep(c.Request.Context())
	if err != nil {
		writeError(c, err, "Reconciliation sweep failed")
		return
	}
	logger.Info("Reconciliation sweep triggered",
		slog.Int("expired_pools", len(report.ExpiredPools)),
		slog.Int("drifts", len(report.Drifts)))
	c.JSON(http.StatusOK, report)
}
