package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/bitswitch-core/internal/auth"
	"github.com/nerrad567/bitswitch-core/internal/device"
	"github.com/nerrad567/bitswitch-core/internal/lnurl"
	"github.com/nerrad567/bitswitch-core/internal/payment"
	"github.com/nerrad567/bitswitch-core/internal/wallet"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeUnauthorized    = "unauthorised"
	ErrCodeForbidden       = "forbidden"
	ErrCodeConflict        = "conflict"
	ErrCodeInternal        = "internal_error"
	ErrCodeValidation      = "validation_error"
	ErrCodeDisabled        = "disabled"
	ErrCodeAlreadyConsumed = "already_consumed"
	ErrCodePolicyViolation = "policy_violation"
	ErrCodeUpstream        = "upstream_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain sentinel errors to HTTP responses on the
// admin API surface.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrNotFound), errors.Is(err, device.ErrPinNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, device.ErrDisabled):
		writeError(w, http.StatusForbidden, ErrCodeDisabled, err.Error())
	case errors.Is(err, device.ErrExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, device.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
	case errors.Is(err, payment.ErrAlreadyConsumed):
		writeError(w, http.StatusConflict, ErrCodeAlreadyConsumed, err.Error())
	case errors.Is(err, lnurl.ErrPolicyViolation):
		writeError(w, http.StatusBadRequest, ErrCodePolicyViolation, err.Error())
	case errors.Is(err, lnurl.ErrRateUnavailable), errors.Is(err, wallet.ErrUnavailable):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}

// lnurlError is the wire shape LNURL wallets expect on failure. Always
// HTTP 200; the status field carries the outcome.
type lnurlError struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// writeLNURLError writes a failure in LNURL wire format on the public
// payment endpoints.
func writeLNURLError(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusOK, lnurlError{Status: "ERROR", Reason: reason})
}
