// ABOUTME: Change-password screen as a bubbletea model
// ABOUTME: Required before anything else when the account carries a temporary password

package passwd

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/tui/forms"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
)

// MinLength is the shortest password the backend accepts.
const MinLength = 8

const requestTimeout = 30 * time.Second

type resultMsg struct {
	err error
}

// Model is the change-password screen.
type Model struct {
	client  *client.Client
	form    *huh.Form
	current string
	next    string
	confirm string
	forced  bool
	busy    bool
	err     string
}

// New creates the screen. forced hides the way back.
func New(c *client.Client) *Model {
	m := &Model{client: c}
	if id := c.Store().Identity(); id != nil {
		m.forced = id.MustChangePassword
	}
	m.form = m.createForm()
	return m
}

func (m *Model) createForm() *huh.Form {
	desc := i18n.T("passwd.intro")
	if m.forced {
		desc = i18n.T("passwd.forced")
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(i18n.T("passwd.current")).
				EchoMode(huh.EchoModePassword).
				Value(&m.current).
				Validate(forms.Required),
			huh.NewInput().
				Title(i18n.T("passwd.new")).
				EchoMode(huh.EchoModePassword).
				Value(&m.next).
				Validate(forms.MinLength(MinLength)),
			huh.NewInput().
				Title(i18n.T("passwd.confirm")).
				EchoMode(huh.EchoModePassword).
				Value(&m.confirm).
				Validate(forms.Required),
		).Title(i18n.T("passwd.title")).
			Description(desc),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *Model) reset(errText string) tea.Cmd {
	m.err = errText
	m.current, m.next, m.confirm = "", "", ""
	m.form = m.createForm()
	return m.form.Init()
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.busy = false
		if msg.err != nil {
			return m, m.reset(client.Message(msg.err))
		}
		return m, nav.Go(routes.PathRoot)

	case tea.KeyMsg:
		if msg.String() == "esc" && !m.forced && !m.busy {
			return m, nav.Back()
		}
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if m.next != m.confirm {
			return m, m.reset(i18n.T("passwd.mismatch"))
		}
		m.busy = true
		return m, m.submit(client.PasswordChange{CurrentPassword: m.current, NewPassword: m.next})
	}
	return m, cmd
}

func (m *Model) submit(change client.PasswordChange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return resultMsg{err: m.client.ChangePassword(ctx, change)}
	}
}

// Typing implements nav.Typing
func (m *Model) Typing() bool {
	return !m.busy
}

// Keys implements nav.Screen
func (m *Model) Keys() []key.Binding {
	if m.forced {
		return []key.Binding{keys.Select()}
	}
	return []key.Binding{keys.Select(), keys.Back()}
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder
	if m.busy {
		sb.WriteString(i18n.T("passwd.saving"))
	} else {
		sb.WriteString(m.form.View())
	}
	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(m.err))
	}
	return styles.Panel.Render(sb.String())
}
