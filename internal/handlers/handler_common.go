package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/aid_budget_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/aid_budget_ledger/internal/core/ports/services"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// actor returns the authenticated user, writing 401 when there is none.
func actor(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "Unauthorized"})
	}
	return userID, ok
}

// bindOptionalJSON binds a body when one was sent.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

// commandHandler routes every mutation through the ledger dispatcher.
type commandHandler struct {
	dispatcher portssvc.LedgerDispatcher
}

func (h commandHandler) dispatch(c *gin.Context, cmd domain.Command, status int) {
	name := domain.CommandName(cmd)
	result, err := h.dispatcher.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err, "Ledger command failed: "+name)
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Ledger command applied", slog.String("command", name))
	c.JSON(status, dto.ToResponse(result))
}
