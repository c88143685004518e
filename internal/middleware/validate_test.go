package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillshare/backend/internal/apperr"
)

type stubBodyValidator struct {
	seenSchema string
}

func (s *stubBodyValidator) Validate(schema string, body []byte) error {
	s.seenSchema = schema
	if strings.Contains(string(body), "bad") {
		return &apperr.ValidationError{Reason: "invalid input", Details: []string{"/field: bad"}}
	}
	return nil
}

func TestValidateJSON_RestoresBody(t *testing.T) {
	v := &stubBodyValidator{}
	var got string
	h := ValidateJSON(v, "signup")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != `{"ok":true}` {
		t.Errorf("handler saw body %q", got)
	}
	if v.seenSchema != "signup" {
		t.Errorf("schema = %q", v.seenSchema)
	}
}

func TestValidateJSON_Rejects(t *testing.T) {
	called := false
	h := ValidateJSON(&stubBodyValidator{}, "signup")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"bad"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if called {
		t.Error("handler must not run on invalid body")
	}
	if !strings.Contains(rec.Body.String(), "/field: bad") {
		t.Errorf("details missing from %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	big := strings.Repeat("a", MaxBodyBytes+10)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: status = %d", rec.Code)
	}
}
