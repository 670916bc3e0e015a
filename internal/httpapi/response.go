package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/logger"
)

// Response is the JSON envelope of every API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondOK sends a successful envelope
func RespondOK(w http.ResponseWriter, status int, message string, data interface{}) {
	RespondJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// RespondMessage sends a failed envelope with a fixed message
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Response{Success: false, Error: message})
}

// RespondError maps err to a status code and sends it. Server-side failures
// are logged and answered with a generic message so driver and transport
// details stay out of responses.
func RespondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx).Err(err).Int("status", status).Msg("Request failed")
		RespondMessage(w, status, serverErrorMessage(status))
		return
	}
	RespondMessage(w, status, err.Error())
}

func serverErrorMessage(status int) string {
	if status == http.StatusServiceUnavailable {
		return "Service temporarily unavailable"
	}
	return "Internal Server Error"
}

// StatusFor returns the HTTP status for an error of the domain taxonomy
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNegativeStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("invalid request body: %v", err)
	}
	return nil
}
