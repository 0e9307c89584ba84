package httpapi

import (
	"net/http"
	"strings"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

// TokenVerifier checks a bearer token and returns its subject (the user id).
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// NewAuthMiddleware enforces Authorization: Bearer <JWT>.
//
// On success, it stores the user id (JWT `sub`) in request context.
func NewAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "malformed Authorization header")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}

			sub, err := v.Verify(raw)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(sub))))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit user id via X-Debug-Subject and stores it in request context.
// If the header is absent, it falls back to defaultSubject (if provided).
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, "missing subject (set X-Debug-Subject)")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), domain.UserID(sub))))
		})
	}
}
