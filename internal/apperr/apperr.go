// Package apperr defines the error kinds shared by services and handlers and
// maps them onto HTTP responses.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAccessDenied        = errors.New("access denied")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Reason  string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Details, "; ")
}

// Invalid returns a *ValidationError with a formatted reason.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the missing entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Conflict wraps ErrConflict with a description.
func Conflict(what string) error {
	return fmt.Errorf("%s: %w", what, ErrConflict)
}

type body struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// Status returns the HTTP status and machine code for err.
func Status(err error) (int, string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrInsufficientCredits):
		return http.StatusBadRequest, "insufficient_credits"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden, "access_denied"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Write renders err as a JSON error response. Internal failures are logged
// and replaced with a generic message.
func Write(w http.ResponseWriter, log *slog.Logger, err error) {
	status, code := Status(err)
	b := body{Error: err.Error(), Code: code}
	var ve *ValidationError
	if errors.As(err, &ve) {
		b.Error = ve.Reason
		b.Details = ve.Details
		if len(b.Details) == 0 {
			b.Details = []string{ve.Reason}
		}
	}
	if status == http.StatusInternalServerError {
		if log == nil {
			log = slog.Default()
		}
		log.Error("internal error", "error", err)
		b.Error = "internal server error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(b)
}
