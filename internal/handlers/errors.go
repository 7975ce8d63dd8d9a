package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/aid_budget_ledger/internal/apperrors"
	"github.com/SscSPs/aid_budget_ledger/internal/dto"
	"github.com/SscSPs/aid_budget_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindDuplicate,
		apperrors.KindDuplicateAllocation,
		apperrors.KindInvalidStateTransition,
		apperrors.KindConcurrentModification,
		apperrors.KindDanglingTransfer:
		return http.StatusConflict
	case apperrors.KindInsufficientFunds,
		apperrors.KindExceedsApprovedAmount,
		apperrors.KindInvalidSchedule,
		apperrors.KindRetryLimitExceeded,
		apperrors.KindPoolExpired,
		apperrors.KindPoolNotActive,
		apperrors.KindInvariantViolation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes the {"error": kind, "message": msg} body.
func writeError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind := apperrors.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	} else {
		logger.Warn(msg, slog.String("error", err.Error()), slog.String("kind", string(kind)))
	}
	c.JSON(status, dto.ErrorResponse{Error: string(kind), Message: apperrors.PublicMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   string(apperrors.KindValidation),
		Message: "Invalid request format: " + err.Error(),
	})
}
