package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
)

const (
	ErrCodeInvalidPayload         = "invalid_payload"
	ErrCodeValidation             = "validation_error"
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeNotFound               = "not_found"
	ErrCodeConflict               = "conflict"
	ErrCodeInvalidTransition      = "invalid_transition"
	ErrCodeAllocationCollision    = "allocation_collision"
	ErrCodeUpstreamTimeout        = "upstream_timeout"
	ErrCodeExternalServiceFailure = "external_service_failure"
	ErrCodeInternal               = "internal_server_error"
)

// ErrorResponse is the body of every non-2xx response. Details carries the
// internal error outside production only.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// AppError is an error with its HTTP rendering attached.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// toAppError maps service errors onto HTTP statuses.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *domain.ValidationError
	var terr *domain.TransitionError
	switch {
	case errors.As(err, &verr):
		return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: verr.Message, Field: verr.Field, Err: err}
	case errors.Is(err, domain.ErrValidation):
		return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: "Validation error", Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AppError{StatusCode: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Resource not found", Err: err}
	case errors.As(err, &terr):
		return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeInvalidTransition,
			Message: fmt.Sprintf("Cannot %s a %s booking", terr.Action, terr.From), Err: err}
	case errors.Is(err, domain.ErrPrimaryDriverMissing):
		return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeConflict, Message: "Booking has no primary driver", Err: err}
	case errors.Is(err, domain.ErrAssociatedTransactionNotFound):
		return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeConflict, Message: "Associated ledger transaction not found", Err: err}
	case errors.Is(err, domain.ErrAllocationCollision):
		return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeAllocationCollision, Message: "Number allocation collided, retry the request", Err: err}
	case errors.Is(err, domain.ErrDocumentGenerationTimedOut), errors.Is(err, context.DeadlineExceeded):
		return &AppError{StatusCode: http.StatusGatewayTimeout, Code: ErrCodeUpstreamTimeout, Message: "The operation timed out", Err: err}
	case errors.Is(err, domain.ErrDocumentGenerationFailed), errors.Is(err, domain.ErrStorageFailure):
		return &AppError{StatusCode: http.StatusBadGateway, Code: ErrCodeExternalServiceFailure, Message: "A document service failed", Err: err}
	}
	return &AppError{StatusCode: http.StatusInternalServerError, Code: ErrCodeInternal, Message: "An unexpected error occurred", Err: err}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// respondError renders err. Internal details are only exposed when the
// handler was built with exposeDetails.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	body := ErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Field:     appErr.Field,
		Retryable: domain.IsRetryable(err),
	}
	if h.exposeDetails && appErr.Err != nil {
		body.Details = appErr.Err.Error()
	}

	log := logger.FromContext(r.Context()).With("method", r.Method, "path", r.URL.Path, "status", appErr.StatusCode, "code", appErr.Code)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Info("Request rejected", "error", err)
	}
	RespondWithJSON(w, appErr.StatusCode, body)
}
