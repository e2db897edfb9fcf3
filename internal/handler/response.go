package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/codefixer/internal/apperror"
)

// JSON API RESPONSES:
// The HTML pages never use these helpers; they render templates and report
// problems with flash messages. Only the /api routes write JSON, and they
// all go through writeJSON/writeError so every error has the same shape.
//
// ERROR MAPPING:
// Services return *apperror.AppError values that wrap one sentinel
// (ErrNotFound, ErrValidation, ...). writeError asks errors.Is which
// sentinel is inside and picks the status code from that. The handler never
// needs to know which repository or service produced the error.

// ErrorResponse is the body of every JSON API error:
//
//	{"error": "not_found", "message": "completion not found with id 7"}
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind
	Message string `json:"message"` // human-readable description
}

// writeJSON sets the content type, writes status, then encodes data.
//
// ORDER MATTERS:
// Header().Set only has an effect before WriteHeader. After WriteHeader the
// headers are on the wire, and the body is all that is left to write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps an apperror kind to a status code:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	ErrUpstream     → 502
//
// Anything else is a 500 with a generic message; internal error text is
// never sent to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
