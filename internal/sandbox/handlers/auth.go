// ABOUTME: Auth handlers issuing access tokens and rotating refresh cookies
// ABOUTME: Login, refresh, logout, current identity and password change

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/sandbox/services"
)

// Login checks credentials, sets the refresh cookie and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	acct, err := h.store.Authenticate(req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		slog.Warn("Authentication failed", "reason", "invalid credentials")
		h.metrics.LoginResult("invalid")
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	case errors.Is(err, services.ErrInactive):
		slog.Warn("Authentication failed", "reason", "inactive account")
		h.metrics.LoginResult("inactive")
		writeError(w, "Account is deactivated", http.StatusUnauthorized)
		return
	case err != nil:
		writeServiceError(w, err)
		return
	}

	refresh, err := h.sessions.Create(acct.ID)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		writeError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	if !h.respondAuth(w, &acct, refresh) {
		return
	}
	h.metrics.LoginResult("success")
	slog.Info("User signed in", "user_id", acct.ID, "role", acct.Role)
}

// Refresh exchanges the refresh cookie for a new access token. The cookie
// is rotated; the old value stops working.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(models.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, "Refresh token missing", http.StatusUnauthorized)
		return
	}

	userID, next, err := h.sessions.Rotate(cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		if errors.Is(err, services.ErrSessionNotFound) {
			writeError(w, "Refresh token invalid or expired", http.StatusUnauthorized)
			return
		}
		slog.Error("Failed to rotate session", "error", err)
		writeError(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}

	acct, err := h.store.Account(userID)
	if err != nil || !acct.IsActive {
		h.sessions.Delete(next)
		h.clearRefreshCookie(w)
		writeError(w, "Account is no longer active", http.StatusUnauthorized)
		return
	}
	h.respondAuth(w, &acct, next)
}

// Logout ends the refresh session named by the cookie, if any, and clears it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(models.RefreshCookieName); err == nil && cookie.Value != "" {
		h.sessions.Delete(cookie.Value)
	}
	h.clearRefreshCookie(w)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the caller's identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acct, err := h.store.Account(caller(r).UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, acct.Identity())
}

// ChangePassword replaces the caller's password and clears the must-change flag.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	acct, err := h.store.ChangePassword(caller(r).UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, acct.Identity())
}

// respondAuth issues an access token for acct and writes the auth response
// with refresh set as the cookie.
func (h *Handler) respondAuth(w http.ResponseWriter, acct *models.Account, refresh string) bool {
	token, err := h.tokens.Issue(acct)
	if err != nil {
		h.sessions.Delete(refresh)
		slog.Error("Failed to sign access token", "error", err)
		writeError(w, "Failed to issue token", http.StatusInternalServerError)
		return false
	}
	h.setRefreshCookie(w, refresh)
	h.writeJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		User:        acct.Identity(),
	})
	return true
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.RefreshCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.cookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/auth",
		MaxAge:   int(h.sessions.TTL().Seconds()),
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.RefreshCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   h.cookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/auth",
		MaxAge:   -1,
	})
}

func (h *Handler) cookieSecure() bool {
	return h.cfg != nil && h.cfg.CookieSecure
}
