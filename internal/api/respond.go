package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"insiden/internal/bootstrap/logging"
	domainincident "insiden/internal/domain/incident"
	"insiden/internal/errs"
	"insiden/internal/ports"
	incidentusecase "insiden/internal/usecase/incident"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

type errorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error(ctx, "encode response failed", slog.Any("err", errs.Loggable(err)))
	}
}

func writeData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeJSON(ctx, w, status, APIResponse{StatusCode: status, Message: message, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code string, message string) {
	writeJSON(ctx, w, status, APIResponse{
		StatusCode: status,
		Message:    message,
		Data:       errorBody{ErrorCode: code, Message: message},
	})
}

// writeUsecaseError maps lifecycle errors onto the API taxonomy. Typed
// workflow failures keep their specific codes so clients can tell "wrong
// workflow step" from "step reached but precondition unmet".
func writeUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrIncidentNotFound):
		writeError(ctx, w, http.StatusNotFound, "incident_not_found", "Incident not found")
	case errors.Is(err, domainincident.ErrFinalCategoryMissing):
		writeError(ctx, w, http.StatusConflict, "final_category_missing", "Final category required before closing")
	case errors.Is(err, domainincident.ErrInvalidStateTransition):
		writeError(ctx, w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, incidentusecase.ErrNotDraft):
		writeError(ctx, w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, ports.ErrStaleIncident):
		writeError(ctx, w, http.StatusConflict, "conflict", "Incident was modified concurrently, re-fetch and retry")
	case errors.Is(err, domainincident.ErrInsufficientRole):
		writeError(ctx, w, http.StatusForbidden, "insufficient_role", err.Error())
	case errors.Is(err, domainincident.ErrNotReporter):
		writeError(ctx, w, http.StatusForbidden, "forbidden", "Cannot act on others' incidents")
	case errors.Is(err, incidentusecase.ErrAccessDenied):
		writeError(ctx, w, http.StatusForbidden, "forbidden", "Access denied")
	case errors.Is(err, domainincident.ErrUnknownCategory),
		errors.Is(err, domainincident.ErrUnknownStatus),
		errors.Is(err, incidentusecase.ErrDescriptionTooShort):
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
		writeError(ctx, w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
