package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentvest/backend/internal/apperr"
)

type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(w, status, APIError{Error: msg, Code: code, Details: details})
}

// Error renders err as a JSON error body with the status its kind maps to.
func Error(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	WriteError(w, statusFor(ae.Kind), ae.Code, ae.Msg, ae.Details)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.StateConflict, apperr.InsufficientFunds:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	default:
		// upstream and unknown failures both surface as 500
		return http.StatusInternalServerError
	}
}
