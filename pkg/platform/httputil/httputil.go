// Package httputil centralizes JSON response writing so every handler shares
// one error envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "pronounapi/pkg/domain-errors"
)

// ErrorResponse is the wire error envelope. The numeric code is part of the
// public contract and stays stable across routes.
type ErrorResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// Wire error numbers, one per domain error code.
const (
	wireValidation    = 1
	wireUpstream      = 2
	wireUnauthorized  = 3
	wireRateLimited   = 4
	wireInternal      = 5
	wireQuotaExceeded = 6
	wireNotFound      = 7
	wireForbidden     = 8
	wireConflict      = 9
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:         http.StatusUnprocessableEntity,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeNotFound:           http.StatusUnprocessableEntity,
	dErrors.CodeRateLimited:        http.StatusTooManyRequests,
	dErrors.CodeQuotaExceeded:      http.StatusUnprocessableEntity,
	dErrors.CodeUpstream:           http.StatusInternalServerError,
	dErrors.CodeInvariantViolation: http.StatusInternalServerError,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

var wireByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:         wireValidation,
	dErrors.CodeUnauthorized:       wireUnauthorized,
	dErrors.CodeForbidden:          wireForbidden,
	dErrors.CodeConflict:           wireConflict,
	dErrors.CodeNotFound:           wireNotFound,
	dErrors.CodeRateLimited:        wireRateLimited,
	dErrors.CodeQuotaExceeded:      wireQuotaExceeded,
	dErrors.CodeUpstream:           wireUpstream,
	dErrors.CodeInvariantViolation: wireInternal,
	dErrors.CodeInternal:           wireInternal,
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the service's error envelope.
// Unclassified errors are treated as internal and never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteErrorStatus(w, statusByCode[code], err)
}

// WriteErrorStatus writes the error envelope with an explicit HTTP status.
// Routes that deviate from the default code-to-status mapping (the pronoun
// delete route answers referential conflicts with 403) use this variant.
func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		message = "Unknown internal server error"
	}
	WriteJSON(w, status, ErrorResponse{Error: wireByCode[code], Message: message})
}
