// ABOUTME: Test helpers for the console screens
// ABOUTME: Starts a seeded sandbox backend and signs clients in against it

package tuitest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/sandbox"
	"github.com/markalston/clinic-console/internal/sandbox/config"
	"github.com/markalston/clinic-console/internal/sandbox/services"
	"github.com/markalston/clinic-console/internal/session"
)

// Seeded accounts.
const (
	AdminEmail     = "admin@clinic.local"
	AdminPassword  = "admin12345"
	DoctorEmail    = "doctor@clinic.local"
	ReceptionEmail = "reception@clinic.local"
	DemoPassword   = services.DemoPassword
)

// Backend is a running sandbox with demo data.
type Backend struct {
	URL    string
	Server *sandbox.Server
}

// NewBackend starts a sandbox for the duration of the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	srv, err := sandbox.New(&config.Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
		SeedDemo:      true,
	}, sandbox.WithStoreOptions(services.WithBcryptCost(bcrypt.MinCost)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &Backend{URL: ts.URL, Server: srv}
}

// Client returns a client with an empty, booted session.
func (b *Backend) Client() *client.Client {
	store := session.NewStore()
	store.SetBooted(true)
	return client.New(b.URL, store)
}

// SignIn returns a booted client signed in as email.
func (b *Backend) SignIn(t *testing.T, email, password string) *client.Client {
	t.Helper()
	c := b.Client()
	_, err := c.Login(context.Background(), client.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return c
}

// Admin signs in as the seeded administrator.
func (b *Backend) Admin(t *testing.T) *client.Client {
	return b.SignIn(t, AdminEmail, AdminPassword)
}

// Doctor signs in as the seeded doctor.
func (b *Backend) Doctor(t *testing.T) *client.Client {
	return b.SignIn(t, DoctorEmail, DemoPassword)
}

// Reception signs in as the seeded receptionist.
func (b *Backend) Reception(t *testing.T) *client.Client {
	return b.SignIn(t, ReceptionEmail, DemoPassword)
}

// Key builds a key message for a single rune or a named key such as "enter".
func Key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Messages runs cmd and any batched commands, returning the leaf messages.
// Only pass commands that do not tick.
func Messages(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, Messages(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// Find returns the first message of type T in msgs.
func Find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Settle feeds the results of cmd back into m until no commands remain,
// for at most a few rounds.
func Settle(m tea.Model, cmd tea.Cmd) {
	for i := 0; cmd != nil && i < 5; i++ {
		var next []tea.Cmd
		for _, msg := range Messages(cmd) {
			var c tea.Cmd
			m, c = m.Update(msg)
			next = append(next, c)
		}
		cmd = tea.Batch(next...)
	}
}
