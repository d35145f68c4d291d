// ABOUTME: Shared helpers for command tests
// ABOUTME: Points the CLI at a seeded sandbox with a private state directory

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markalston/clinic-console/internal/config"
	"github.com/markalston/clinic-console/internal/tui/tuitest"
)

// useBackend starts a sandbox and points settings at it.
func useBackend(t *testing.T) *tuitest.Backend {
	t.Helper()
	b := tuitest.NewBackend(t)
	useSettings(t, b.URL)
	return b
}

func useSettings(t *testing.T, url string) {
	t.Helper()
	settings = &config.Config{
		APIURL:         url,
		Timeout:        5 * time.Second,
		RefreshTimeout: 5 * time.Second,
		Lang:           "en",
		Output:         "text",
		StateDir:       t.TempDir(),
		LogLevel:       "error",
		LogFormat:      "text",
	}
	t.Cleanup(func() { settings = nil })
}

func withOutput(t *testing.T, format string) {
	t.Helper()
	prev := settings.Output
	settings.Output = format
	t.Cleanup(func() { settings.Output = prev })
}

// signIn runs `clinic login` and fails the test unless it succeeds.
func signIn(t *testing.T, email, password string) {
	t.Helper()
	var buf bytes.Buffer
	code := runLogin(context.Background(), strings.NewReader(password+"\n"), &buf, email)
	require.Equal(t, exitOK, code, buf.String())
}

// changePassword completes the forced password change for demo staff.
func changePassword(t *testing.T, current, next string) {
	t.Helper()
	var buf bytes.Buffer
	in := strings.NewReader(current + "\n" + next + "\n" + next + "\n")
	code := runPasswd(context.Background(), in, &buf)
	require.Equal(t, exitOK, code, buf.String())
}
