package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/food-diary/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints:
// a single human-readable message, no structured codes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the first body write — once Encode
// writes, the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// The service layer returns apperror sentinels; this is the one place they
// become status codes. Unknown errors get a generic 500 — raw messages from
// the storage layer are not exposed to clients.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, ErrorResponse{Error: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "An internal error occurred"})
}
