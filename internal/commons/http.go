package commons

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "milsabores/internal/errors"
)

type traceKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

type ErrorResponse struct {
	TraceID   string                       `json:"traceId,omitempty"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, r *http.Request, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	WriteError(w, r, apperrors.NewValidationError(message, details...), logger)
}

// WriteError maps err to a status code and writes the standard error body.
// Unexpected errors are logged and hidden behind a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	traceID := TraceID(r.Context())
	resp := ErrorResponse{
		TraceID:   traceID,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Status, resp.Code, resp.Message, resp.Details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details
	} else if ce, ok := apperrors.IsContractError(err); ok {
		resp.Status, resp.Code = http.StatusUnprocessableEntity, ce.Code()
	} else if _, ok := apperrors.IsNotFoundError(err); ok {
		resp.Status, resp.Code = http.StatusNotFound, "NOT_FOUND"
	} else if _, ok := apperrors.IsConflictError(err); ok {
		resp.Status, resp.Code = http.StatusConflict, "CONFLICT"
	} else if _, ok := apperrors.IsForbiddenError(err); ok {
		resp.Status, resp.Code = http.StatusForbidden, "FORBIDDEN"
	} else if se, ok := apperrors.IsServiceError(err); ok {
		resp.Code, resp.Message = string(se.Kind), se.Message
		switch se.Kind {
		case apperrors.ServiceUnauthorized:
			resp.Status = http.StatusUnauthorized
		case apperrors.ServiceForbidden:
			resp.Status = http.StatusForbidden
		case apperrors.ServiceNotFound:
			resp.Status = http.StatusNotFound
		default:
			resp.Status = http.StatusBadGateway
			logger.Warn("backend call failed", zap.String("traceId", traceID), zap.Error(err))
		}
	} else {
		logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
		resp.Status, resp.Code, resp.Message = http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	}

	WriteJSON(w, resp.Status, resp, logger)
}
