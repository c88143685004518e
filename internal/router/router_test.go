package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/auth"
	"github.com/skillshare/backend/internal/chat"
	"github.com/skillshare/backend/internal/handlers"
	"github.com/skillshare/backend/internal/services"
	"github.com/skillshare/backend/internal/testutil"
)

type stubTokens struct {
	valid map[string]uuid.UUID
}

func (s stubTokens) ValidateToken(_ context.Context, token string) (uuid.UUID, error) {
	if id, ok := s.valid[token]; ok {
		return id, nil
	}
	return uuid.Nil, errors.Join(apperr.ErrUnauthorized, errors.New("bad token"))
}

func newTestRouter(t *testing.T) (http.Handler, uuid.UUID) {
	t.Helper()
	validator, err := services.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	user := uuid.New()
	skills := testutil.NewSkills()
	h := Handlers{
		Auth:     auth.NewHandler(nil, nil),
		Skills:   &handlers.SkillHandler{Search: services.NewSkillFinder(skills)},
		Bookings: &handlers.BookingHandler{},
		Accounts: &handlers.AccountHandler{},
		Projects: &handlers.ProjectHandler{},
		Chat:     chat.NewHandler(nil, chat.NewHub(), nil),
	}
	r := New(h, Options{
		Tokens:         stubTokens{valid: map[string]uuid.UUID{"good": user}},
		Validator:      validator,
		AllowedOrigins: []string{"http://localhost:3000"},
		MetricsEnabled: true,
	})
	return r, user
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("metrics: %d", rec.Code)
	}
}

func TestProtectedRoutesRequireUser(t *testing.T) {
	r, _ := newTestRouter(t)
	id := uuid.NewString()
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/chat/rooms"},
		{http.MethodGet, "/api/chat/stream"},
		{http.MethodDelete, "/api/skills/" + id},
		{http.MethodPost, "/api/projects/" + id + "/join"},
	}
	for _, rt := range routes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", rt.method, rt.path, rec.Code)
		}
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/skills/nearby?lat=40.7&lng=-74", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rec.Code)
	}
}

func TestSchemaValidationRunsBeforeHandler(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/skills", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "validation_error") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestPublicSearchRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/skills/nearby?lat=40.7128&lng=-74.006", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("nearby: %d %s", rec.Code, rec.Body)
	}
}
