package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/skillshare/backend/internal/apperr"
)

// MaxBodyBytes caps request bodies read for validation.
const MaxBodyBytes = 1 << 20

// BodyValidator checks a raw JSON body against a named schema.
type BodyValidator interface {
	Validate(schema string, body []byte) error
}

// ValidateJSON reads the body, validates it against schema and restores
// r.Body so the handler can decode it again.
func ValidateJSON(v BodyValidator, schema string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
			r.Body.Close()
			if err != nil {
				apperr.Write(w, nil, apperr.Invalid("failed to read body"))
				return
			}
			if len(bodyBytes) > MaxBodyBytes {
				apperr.Write(w, nil, apperr.Invalid("request body too large"))
				return
			}
			if err := v.Validate(schema, bodyBytes); err != nil {
				apperr.Write(w, nil, err)
				return
			}
			// Restore body for the handler.
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			next.ServeHTTP(w, r)
		})
	}
}
