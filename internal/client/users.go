// ABOUTME: Staff user management endpoints (admin only on the backend)
// ABOUTME: List, create, update, role and status changes, delete

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/validation"
)

// ListUsers calls GET /users. q searches name and email; role filters when set.
func (c *Client) ListUsers(ctx context.Context, q string, role session.Role) ([]User, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}
	if role != "" {
		query.Set("role", string(role))
	}

	var page Page[User]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users", query: query}, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateUser calls POST /users.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	if err := validation.Struct(u); err != nil {
		return nil, err
	}
	var created User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/users", body: u}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser calls PATCH /users/:id.
func (c *Client) UpdateUser(ctx context.Context, id string, u UserUpdate) (*User, error) {
	if err := validation.Struct(u); err != nil {
		return nil, err
	}
	var updated User
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(id), body: u}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ChangeUserRole calls PATCH /users/:id/role.
func (c *Client) ChangeUserRole(ctx context.Context, id string, role session.Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", validation.ErrInvalid, role)
	}
	body := map[string]session.Role{"role": role}
	var updated User
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(id) + "/role", body: body}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetUserStatus calls PATCH /users/:id/status to activate or deactivate an account.
func (c *Client) SetUserStatus(ctx context.Context, id string, active bool) (*User, error) {
	body := map[string]bool{"isActive": active}
	var updated User
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(id) + "/status", body: body}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser calls DELETE /users/:id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/users/" + url.PathEscape(id)}, nil)
}
