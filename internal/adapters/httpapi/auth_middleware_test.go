package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roteiro-app/travel-planner-api/internal/platform/auth/tokens"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestAuthRouter(t *testing.T) (http.Handler, *tokens.Manager) {
	t.Helper()

	m, err := tokens.NewManager(tokens.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "test-iss",
		TTL:    5 * time.Minute,
		Clock:  fixedClock{t: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.With(NewAuthMiddleware(m)).Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusInternalServerError, "subject missing from context")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"userId": string(id)})
	})
	return r, m
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Error == "" {
		t.Fatalf("expected error message")
	}
	if er.RequestID == "" {
		t.Fatalf("expected requestId to be set")
	}
}

func TestAuthMiddleware_MalformedHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidToken_SetsUserID(t *testing.T) {
	t.Parallel()

	h, m := newTestAuthRouter(t)
	tok, _, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["userId"] != "user-123" {
		t.Fatalf("userId: got %q", got["userId"])
	}
}

func TestDevAuthMiddleware_HeaderOverridesDefault(t *testing.T) {
	t.Parallel()

	var seen string
	h := NewDevAuthMiddleware("fallback")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		seen = string(id)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "fallback" {
		t.Fatalf("subject: got %q want fallback", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-Subject", "alice")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "alice" {
		t.Fatalf("subject: got %q want alice", seen)
	}
}

func TestDevAuthMiddleware_NoSubject_401(t *testing.T) {
	t.Parallel()

	h := NewDevAuthMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
}
