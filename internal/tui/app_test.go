// ABOUTME: Integration tests for the root TUI model
// ABOUTME: Covers bootstrap, route resolution, history, logout and the frame

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/clinic-console/internal/bootstrap"
	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/credstore"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/home"
	"github.com/markalston/clinic-console/internal/tui/login"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/passwd"
	"github.com/markalston/clinic-console/internal/tui/patients"
	"github.com/markalston/clinic-console/internal/tui/tuitest"
	"github.com/markalston/clinic-console/internal/tui/users"
)

// started boots an app for c at start.
func started(t *testing.T, c *client.Client, start string) *App {
	t.Helper()
	app := New(c, bootstrap.New(c.Store(), c, time.Second), nil, start)
	msg, ok := tuitest.Find[bootedMsg](tuitest.Messages(app.Init()))
	require.True(t, ok)
	app.Update(msg)
	return app
}

func TestRendersNothingUntilBooted(t *testing.T) {
	b := tuitest.NewBackend(t)
	c := client.New(b.URL, session.NewStore())
	app := New(c, bootstrap.New(c.Store(), c, time.Second), nil, routes.PathAdminUsers)

	assert.Empty(t, app.View())
	app.Update(tuitest.Key("g"))
	assert.Empty(t, app.View())

	msg, ok := tuitest.Find[bootedMsg](tuitest.Messages(app.Init()))
	require.True(t, ok)
	assert.Equal(t, bootstrap.Anonymous, msg.outcome)

	app.Update(msg)
	assert.Equal(t, routes.PathLogin, app.path)
	assert.IsType(t, &login.Model{}, app.screen)
	assert.NotEmpty(t, app.View())
}

func TestAuthorizedPathOpensScreen(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), routes.PathAdminUsers)

	assert.Equal(t, routes.PathAdminUsers, app.path)
	assert.IsType(t, &users.Model{}, app.screen)
}

func TestRootGoesToLanding(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), "")

	assert.Equal(t, routes.PathAdmin, app.path)
	assert.IsType(t, &home.Model{}, app.screen)
}

func TestForbiddenPath(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), routes.PathDoctorAppointments)

	assert.Equal(t, routes.PathForbidden, app.path)
	assert.Contains(t, app.View(), "Access denied")

	_, cmd := app.Update(tuitest.Key("esc"))
	msg, ok := tuitest.Find[nav.BackMsg](tuitest.Messages(cmd))
	require.True(t, ok)
	app.Update(msg)
	assert.Equal(t, routes.PathAdmin, app.path)
}

func TestPasswordChangeIsForced(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Reception(t), routes.PathReceptionAppointment)

	assert.Equal(t, routes.PathChangePassword, app.path)
	assert.IsType(t, &passwd.Model{}, app.screen)
}

func TestNavigateAndBack(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), "")

	app.Update(nav.NavigateMsg{Path: routes.PathPatients})
	assert.Equal(t, routes.PathPatients, app.path)
	assert.IsType(t, &patients.List{}, app.screen)
	assert.Equal(t, []string{routes.PathAdmin}, app.history)

	app.Update(nav.BackMsg{})
	assert.Equal(t, routes.PathAdmin, app.path)
	assert.Empty(t, app.history)
}

func TestSameResolvedPathKeepsScreen(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), routes.PathAdminUsers)
	before := app.screen

	app.Update(sessionMsg{})
	app.Update(nav.NavigateMsg{Path: routes.PathAdminUsers})

	assert.Same(t, before, app.screen)
	assert.Empty(t, app.history)
}

func TestHomeKey(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), routes.PathPatients)

	app.Update(tuitest.Key("g"))
	assert.Equal(t, routes.PathAdmin, app.path)
}

func TestSessionEndRedirectsToLogin(t *testing.T) {
	b := tuitest.NewBackend(t)
	c := b.Admin(t)
	app := started(t, c, routes.PathAdminUsers)

	c.Store().Logout()
	app.Update(sessionMsg{})

	assert.Equal(t, routes.PathLogin, app.path)
	assert.Equal(t, routes.PathRoot, app.requested)
	assert.Empty(t, app.history)
}

func TestLogoutKey(t *testing.T) {
	b := tuitest.NewBackend(t)
	c := b.Admin(t)
	app := started(t, c, "")

	_, cmd := app.Update(tuitest.Key("ctrl+l"))
	msg, ok := tuitest.Find[loggedOutMsg](tuitest.Messages(cmd))
	require.True(t, ok)
	assert.Empty(t, c.Store().Token())

	app.Update(msg)
	assert.Equal(t, routes.PathLogin, app.path)
}

func TestLogoutForgetsSavedSessionWhenBackendIsDown(t *testing.T) {
	b := tuitest.NewBackend(t)
	dir := t.TempDir()
	jar, err := credstore.Open(dir)
	require.NoError(t, err)

	online := client.New(b.URL, session.NewStore(), client.WithCookieJar(jar))
	_, err = online.Login(context.Background(), client.Credentials{Email: tuitest.AdminEmail, Password: tuitest.AdminPassword})
	require.NoError(t, err)
	require.NotZero(t, jar.Len())

	offline := client.New("http://127.0.0.1:1", online.Store(), client.WithCookieJar(jar))
	app := New(offline, bootstrap.New(offline.Store(), offline, time.Second), jar, "")
	msg, ok := tuitest.Find[bootedMsg](tuitest.Messages(app.Init()))
	require.True(t, ok)
	assert.Equal(t, bootstrap.KeptSession, msg.outcome)
	app.Update(msg)

	_, cmd := app.Update(tuitest.Key("ctrl+l"))
	_, ok = tuitest.Find[loggedOutMsg](tuitest.Messages(cmd))
	require.True(t, ok)

	assert.Empty(t, offline.Store().Token())
	assert.Zero(t, jar.Len())
	reopened, err := credstore.Open(dir)
	require.NoError(t, err)
	assert.Zero(t, reopened.Len(), "next launch must not find the refresh cookie")
}

func TestQuitKey(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), "")

	_, cmd := app.Update(tuitest.Key("ctrl+c"))
	_, ok := tuitest.Find[tea.QuitMsg](tuitest.Messages(cmd))
	assert.True(t, ok)
}

func TestFrame(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Admin(t), "")
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	lines := strings.Split(app.View(), "\n")
	header, footer := lines[0], lines[len(lines)-1]
	assert.Equal(t, 120, lipgloss.Width(header))
	assert.Contains(t, header, tuitest.AdminEmail)
	assert.Contains(t, footer, routes.PathAdmin)
	assert.Contains(t, footer, "ctrl+l")
}

func TestNarrowFrameKeepsMinimumWidth(t *testing.T) {
	b := tuitest.NewBackend(t)
	app := started(t, b.Client(), "")
	app.Update(tea.WindowSizeMsg{Width: 40, Height: 20})

	header := strings.Split(app.View(), "\n")[0]
	assert.Equal(t, minTerminalWidth, lipgloss.Width(header))
}
