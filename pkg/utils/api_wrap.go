package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripmate/pkg/logger"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
	})
}

var serviceErrors = []struct {
	err     error
	code    int
	message string
}{
	{ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{ErrInvalidPage, http.StatusBadRequest, "Page must be greater than 0"},
	{ErrInvalidPageSize, http.StatusBadRequest, "Page size must be between 1 and 100"},
	{ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{ErrTripNotFound, http.StatusNotFound, "Trip not found"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
	{ErrInvalidSignature, http.StatusBadRequest, "Invalid signature"},
	{ErrUpstream, http.StatusBadGateway, "Upstream service unavailable"},
}

// HandleServiceError maps a service error onto the response envelope.
// Anything unrecognised is logged and reported as a 500.
func HandleServiceError(c *gin.Context, err error) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			RespondError(c, se.code, se.message)
			return
		}
	}

	if errors.Is(err, ErrDatabaseError) {
		logger.Log.Error("database error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
	} else {
		logger.Log.Error("unhandled service error", zap.Error(err), zap.String("trace_id", c.GetString("trace_id")))
	}
	RespondError(c, http.StatusInternalServerError, "Internal server error")
}
