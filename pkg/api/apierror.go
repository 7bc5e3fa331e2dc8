// Package api exposes the steward over HTTP. Error responses follow
// RFC 7807 (Problem Details for HTTP APIs).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
	"github.com/Cairn-Labs/listing-steward/pkg/store"
)

// ProblemDetail implements RFC 7807. All API error responses use this
// format.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 Problem Detail JSON response.
func WriteError(w http.ResponseWriter, status int, title, detail string) {
	problem := &ProblemDetail{
		Type:   fmt.Sprintf("https://steward.cairnlabs.dev/errors/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "Bad Request", detail)
}

// WriteUnauthorized writes a 401 error response.
func WriteUnauthorized(w http.ResponseWriter, detail string) {
	if detail == "" {
		detail = "Authentication required"
	}
	WriteError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, "Not Found", detail)
}

// WriteMethodNotAllowed writes a 405 error response.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "The HTTP method is not supported for this endpoint")
}

// WriteTooManyRequests writes a 429 error response with Retry-After.
func WriteTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	WriteError(w, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded. Retry after the specified interval.")
}

// WriteInternal writes a 500 error response. The err parameter is logged
// but never exposed to the client.
func WriteInternal(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
}

// WriteDomainError maps a steward error to its HTTP representation.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr   *contracts.ValidationError
		unauthorizedErr *contracts.UnauthorizedError
		policyErr       *contracts.PolicyDeniedError
		engineErr       *contracts.EngineError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusUnprocessableEntity, "Validation Failed", validationErr.Error())
	case errors.As(err, &policyErr):
		WriteError(w, http.StatusUnprocessableEntity, "Policy Denied", policyErr.Error())
	case errors.Is(err, contracts.ErrInvalidSubject):
		WriteBadRequest(w, err.Error())
	case errors.As(err, &unauthorizedErr):
		WriteError(w, http.StatusForbidden, "Forbidden", unauthorizedErr.Error())
	case errors.Is(err, contracts.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, contracts.ErrDelayNotElapsed):
		WriteError(w, http.StatusTooEarly, "Delay Not Elapsed", err.Error())
	case errors.Is(err, contracts.ErrAlreadyTerminal), errors.Is(err, store.ErrConflict):
		WriteError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, contracts.ErrSubjectNotActive):
		WriteError(w, http.StatusConflict, "Subject Not Active", err.Error())
	case errors.As(err, &engineErr):
		WriteError(w, http.StatusBadGateway, "Engine Unavailable", engineErr.Error())
	default:
		WriteInternal(w, err)
	}
}
