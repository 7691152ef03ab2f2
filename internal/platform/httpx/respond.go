package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lumenmart/api/internal/platform/requestctx"
)

// Error represents the canonical JSON error envelope returned by the API.
// Clients receive {"success":false,"error":<message>}; the machine-readable
// code and internal cause are logged, never exposed.
type Error struct {
	Code    string
	Message string
	Status  int
	Cause   error
}

// NewError constructs a new Error with the provided parameters.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WithCause attaches the internal error for logging purposes.
func (e Error) WithCause(err error) Error {
	e.Cause = err
	return e
}

// WriteError writes the uniform failure envelope to the response writer and
// logs the code plus internal cause.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	logger := requestctx.Logger(ctx).With(
		zap.String("error_code", err.Code),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(ctx)),
	)
	if err.Cause != nil {
		logger = logger.With(zap.Error(err.Cause))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("message", err.Message))
	} else {
		logger.Debug("request rejected", zap.String("message", err.Message))
	}

	payload := map[string]any{
		"success": false,
		"error":   err.Message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteSuccess writes the uniform success envelope {"success":true,"data":...}.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	payload := map[string]any{
		"success": true,
	}
	if data != nil {
		payload["data"] = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
