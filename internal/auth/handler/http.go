// Package handler exposes the auth service over HTTP. The refresh token
// travels only in a hardened cookie; the access token travels in JSON bodies
// and Authorization headers.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"votegate/internal/auth/service"
	"votegate/internal/server/middleware"
)

// RefreshCookie is the name of the refresh token cookie.
const RefreshCookie = "refresh_token"

// AuthHandler serves the auth endpoints.
type AuthHandler struct {
	svc          *service.AuthService
	cookieSecure bool
	refreshTTL   time.Duration
}

// NewAuthHandler returns an AuthHandler. cookieSecure must be true in
// production; refreshTTL bounds the cookie's Max-Age.
func NewAuthHandler(svc *service.AuthService, cookieSecure bool, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure, refreshTTL: refreshTTL}
}

// Register mounts the auth routes on r. requireAuth protects the
// session-listing endpoint.
func (h *AuthHandler) Register(r *mux.Router, requireAuth mux.MiddlewareFunc) {
	r.HandleFunc("/register", h.RegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.Handle("/sessions", requireAuth(http.HandlerFunc(h.Sessions))).Methods(http.MethodGet)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type sessionResponse struct {
	LineageID string    `json:"lineage_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterUser handles POST /register.
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": res.UserID})
}

// Login handles POST /login. On success the refresh token is set as a cookie
// and the access token returned in the body. All credential failures produce
// the same 400 body with no hint which part was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		h.internalError(w, "login", err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(res.AccessExpiresAt).Seconds()),
	})
}

// Refresh handles POST /refresh. The refresh token is read from the
// cookie only; request bodies are ignored. Every token failure maps to the
// same 401 with the cookie cleared, so a caller cannot probe which records
// exist. The internal distinction is kept in logs and the audit trail.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		h.clearRefreshCookie(w)
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	res, err := h.svc.Refresh(r.Context(), c.Value)
	if err != nil {
		if isTokenError(err) {
			log.Printf("auth: refresh rejected: %v", err)
			h.clearRefreshCookie(w)
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.internalError(w, "refresh", err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(res.AccessExpiresAt).Seconds()),
	})
}

// Logout handles POST /logout. Revokes the presented token's whole lineage
// and clears the cookie. A missing cookie is a 401.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err := h.svc.Logout(r.Context(), c.Value); err != nil {
		if isTokenError(err) {
			log.Printf("auth: logout rejected: %v", err)
			h.clearRefreshCookie(w)
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.internalError(w, "logout", err)
		return
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Sessions handles GET /sessions for the authenticated caller.
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	lineages, err := h.svc.Sessions(r.Context(), userID)
	if err != nil {
		h.internalError(w, "sessions", err)
		return
	}
	out := make([]sessionResponse, 0, len(lineages))
	for _, l := range lineages {
		out = append(out, sessionResponse{
			LineageID: l.LineageID,
			IssuedAt:  l.IssuedAt,
			ExpiresAt: l.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/", // /refresh and /logout sit at the root
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.refreshTTL.Seconds()),
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
}

func (h *AuthHandler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("auth: %s failed: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// isTokenError reports whether err is one of the refresh token rejections
// that must surface as a uniform 401.
func isTokenError(err error) bool {
	return errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrUnknownToken) ||
		errors.Is(err, service.ErrTokenRevoked) ||
		errors.Is(err, service.ErrTokenReuse)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("auth: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
