package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"votegate/internal/security"
)

const bearerPrefix = "bearer "

// RequireAuth returns a middleware that validates the Bearer (access) token
// from the Authorization header and sets the caller's identity in the request
// context. Requests without a valid token get a uniform 401.
func RequireAuth(tokens *security.TokenProvider) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				unauthorized(w)
				return
			}
			identity, err := tokens.ValidateAccess(token)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := WithIdentity(r.Context(), identity.UserID, identity.Email, identity.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"missing or invalid authorization"}`))
}
