// ABOUTME: Authentication endpoints of the clinic backend
// ABOUTME: Login, refresh, logout, current identity and password change

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/validation"
)

// Login calls POST /auth/login. On success the session store holds the new
// token and identity; on failure the store is left untouched.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	var auth AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds, public: true}, &auth); err != nil {
		return nil, err
	}
	if err := checkAuth(&auth); err != nil {
		return nil, err
	}

	c.store.Login(auth.AccessToken, auth.User)
	return &auth, nil
}

// Refresh calls POST /auth/refresh using the refresh cookie in the jar.
// It does not touch the session store; callers decide what to do with the result.
func (c *Client) Refresh(ctx context.Context) (*AuthResponse, error) {
	var auth AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/refresh", public: true}, &auth); err != nil {
		return nil, err
	}
	if err := checkAuth(&auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Logout calls POST /auth/logout best-effort and always clears the local session.
func (c *Client) Logout(ctx context.Context) {
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout", noRefresh: true}, nil)
	if err != nil {
		slog.Debug("Backend logout failed, clearing local session anyway", "error", err)
	}
	c.store.Logout()
}

// Me calls GET /auth/me and returns the identity the backend sees.
func (c *Client) Me(ctx context.Context) (*session.Identity, error) {
	var id session.Identity
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// ChangePassword calls POST /auth/change-password. On success the stored
// identity no longer requires a password change.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	if err := validation.Struct(change); err != nil {
		return err
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/change-password", body: change}, nil); err != nil {
		return err
	}

	if id := c.store.Identity(); id != nil {
		id.MustChangePassword = false
		c.store.UpdateIdentity(*id)
	}
	return nil
}

// ErrMalformedAuth is returned when login or refresh succeeds without a usable token.
var ErrMalformedAuth = errors.New("backend returned no usable session")

func checkAuth(auth *AuthResponse) error {
	if auth.AccessToken == "" {
		return fmt.Errorf("%w: missing access token", ErrMalformedAuth)
	}
	if !auth.User.Valid() {
		return fmt.Errorf("%w: invalid user", ErrMalformedAuth)
	}
	return nil
}
