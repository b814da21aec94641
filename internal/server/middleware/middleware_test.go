package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"votegate/internal/security"
)

func testProvider(t *testing.T) *security.TokenProvider {
	t.Helper()
	p, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return p
}

func TestRequireAuth_ValidToken(t *testing.T) {
	provider := testProvider(t)
	access, _, err := provider.IssueAccess("user-1", "u@example.com", "voter")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	var gotUser, gotEmail, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
		gotEmail, _ = GetEmail(r.Context())
		gotRole, _ = GetRole(r.Context())
	})
	h := RequireAuth(provider)(next)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser != "user-1" || gotEmail != "u@example.com" || gotRole != "voter" {
		t.Fatalf("identity = (%q, %q, %q)", gotUser, gotEmail, gotRole)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	provider := testProvider(t)
	expiredProvider, err := security.NewTestTokenProviderTTL(-time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProviderTTL: %v", err)
	}
	expired, _, err := expiredProvider.IssueAccess("user-1", "u@example.com", "voter")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			h := RequireAuth(provider)(next)

			req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Fatal("handler must not run without a valid token")
			}
		})
	}
}

func TestCaptureClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.1:5555", nil, "10.0.0.1"},
		{"x-forwarded-for", "10.0.0.1:5555", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, "203.0.113.9"},
		{"x-real-ip", "10.0.0.1:5555", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r.Context())
			})
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			CaptureClientIP(next).ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIP_Unset(t *testing.T) {
	if got := ClientIP(context.Background()); got != "unknown" {
		t.Fatalf("ClientIP on bare context = %q, want unknown", got)
	}
}
