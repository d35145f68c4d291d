// ABOUTME: Bearer token authentication middleware for the sandbox API
// ABOUTME: Verifies access tokens and loads the caller's current account

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/sandbox/services"
	"github.com/markalston/clinic-console/internal/session"
)

// TokenVerifier checks an access token.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// AccountLookup loads an account by id.
type AccountLookup interface {
	Account(id string) (models.Account, error)
}

// AuthConfig holds authentication middleware settings
type AuthConfig struct {
	Tokens   TokenVerifier
	Accounts AccountLookup
}

// UserClaims identifies the authenticated caller.
type UserClaims struct {
	UserID string
	Email  string
	Role   session.Role
}

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const userClaimsKey contextKey = "userClaims"

// Auth returns middleware that requires a valid Bearer access token.
// The caller's role and active flag come from the stored account, so a role
// change or deactivation applies before the token expires.
func Auth(cfg AuthConfig) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				slog.Debug("Auth rejected: no auth provided", "path", sanitizePath(r.URL.Path))
				reject(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				slog.Debug("Auth rejected: invalid format", "path", sanitizePath(r.URL.Path))
				reject(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}

			claims, err := cfg.Tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				slog.Debug("Auth rejected: invalid token", "path", sanitizePath(r.URL.Path), "error", err)
				msg := "Invalid token"
				if errors.Is(err, services.ErrTokenExpired) {
					msg = "Token expired"
				}
				reject(w, msg, http.StatusUnauthorized)
				return
			}

			acct, err := cfg.Accounts.Account(claims.Subject)
			if err != nil || !acct.IsActive {
				slog.Debug("Auth rejected: account unavailable", "path", sanitizePath(r.URL.Path), "user_id", claims.Subject)
				reject(w, "Account is not available", http.StatusUnauthorized)
				return
			}

			user := &UserClaims{UserID: acct.ID, Email: acct.Email, Role: acct.Role}
			slog.Debug("Auth: valid bearer token", "path", sanitizePath(r.URL.Path), "user", user.Email)
			next(w, r.WithContext(WithUserClaims(r.Context(), user)))
		}
	}
}

// WithUserClaims stores claims in ctx.
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// GetUserClaims extracts user claims from request context.
// Returns nil if no claims are present.
func GetUserClaims(r *http.Request) *UserClaims {
	claims, ok := r.Context().Value(userClaimsKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}
