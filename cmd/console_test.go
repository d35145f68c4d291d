// ABOUTME: Tests for the shared command plumbing
// ABOUTME: Error-to-exit-code mapping, output formats and role checks

package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/tuitest"
	"github.com/markalston/clinic-console/internal/validation"
)

func TestFailExitCodes(t *testing.T) {
	useSettings(t, "http://unused")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.Struct(client.Credentials{}), exitFailed},
		{"unauthorized", &client.APIError{Status: http.StatusUnauthorized, Message: "expired"}, exitNoSession},
		{"forbidden", &client.APIError{Status: http.StatusForbidden, Message: "no"}, exitForbidden},
		{"conflict", &client.APIError{Status: http.StatusConflict, Message: "taken"}, exitFailed},
		{"transport", errors.New("connection refused"), exitNoSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want, fail(&buf, tt.err))
			assert.Contains(t, buf.String(), "Error: ")
		})
	}
}

func TestRenderFormats(t *testing.T) {
	useSettings(t, "http://unused")
	v := map[string]int{"patients": 3}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, v, func() string { return "three patients" }))
	assert.Equal(t, "three patients\n", buf.String())

	settings.Output = "json"
	buf.Reset()
	require.NoError(t, render(&buf, v, nil))
	assert.JSONEq(t, `{"patients": 3}`, buf.String())

	settings.Output = "yaml"
	buf.Reset()
	require.NoError(t, render(&buf, v, nil))
	var got map[string]int
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, v, got)
}

func TestAuthorizeWithoutSession(t *testing.T) {
	useBackend(t)
	c, err := openConsole()
	require.NoError(t, err)

	var buf bytes.Buffer
	snap, code := c.authorize(context.Background(), &buf, session.AllRoles...)
	assert.Equal(t, exitNoSession, code)
	assert.True(t, snap.Booted)
	assert.Contains(t, buf.String(), "clinic login")
}

func TestAuthorizeChecksRole(t *testing.T) {
	useBackend(t)
	signIn(t, tuitest.AdminEmail, tuitest.AdminPassword)
	c, err := openConsole()
	require.NoError(t, err)

	var buf bytes.Buffer
	_, code := c.authorize(context.Background(), &buf, session.RoleDoctor)
	assert.Equal(t, exitForbidden, code)
	assert.Contains(t, buf.String(), "admin")

	snap, code := c.authorize(context.Background(), &buf, session.RoleAdmin)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, tuitest.AdminEmail, snap.Identity.Email)
}

func TestProtectedReportsBadStateDir(t *testing.T) {
	useSettings(t, "http://unused")
	settings.StateDir = "/dev/null/clinic"

	var buf bytes.Buffer
	code := protected(context.Background(), &buf, session.AllRoles, func(*console) int { return exitOK })
	assert.Equal(t, exitFailed, code)
}
