package middleware

import (
	"net"
	"net/http"
	"strings"
)

// CaptureClientIP stores the client IP in the request context so the audit
// logger can attribute events without a handler passing it around.
func CaptureClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withClientIP(r.Context(), requestIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIP resolves the client IP from X-Forwarded-For, X-Real-IP, or the
// connection's remote address, in that order.
func requestIP(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); s != "" {
		if i := strings.Index(s, ","); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-Real-IP")); s != "" {
		return s
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
