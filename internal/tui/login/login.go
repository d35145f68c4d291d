// ABOUTME: Sign-in screen as a bubbletea model
// ABOUTME: A huh form for email and password; success lands on the role home

package login

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
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

const requestTimeout = 30 * time.Second

// resultMsg carries the outcome of a login request.
type resultMsg struct {
	err error
}

// Model is the sign-in screen.
type Model struct {
	client   *client.Client
	form     *huh.Form
	spinner  spinner.Model
	email    string
	password string
	busy     bool
	err      string
}

// New creates the sign-in screen.
func New(c *client.Client) *Model {
	m := &Model{
		client:  c,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.form = m.createForm()
	return m
}

func (m *Model) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(i18n.T("login.email")).
				Placeholder("name@clinic.local").
				Value(&m.email).
				Validate(forms.Email),
			huh.NewInput().
				Title(i18n.T("login.password")).
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(forms.Required),
		).Title(i18n.T("login.title")).
			Description(i18n.T("login.intro")),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
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
			m.err = client.Message(msg.err)
			m.password = ""
			m.form = m.createForm()
			return m, m.form.Init()
		}
		m.err = ""
		return m, nav.Go(routes.PathRoot)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.submit(client.Credentials{
			Email:    strings.TrimSpace(m.email),
			Password: m.password,
		}))
	}
	return m, cmd
}

func (m *Model) submit(creds client.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := m.client.Login(ctx, creds)
		return resultMsg{err: err}
	}
}

// Typing implements nav.Typing
func (m *Model) Typing() bool {
	return !m.busy
}

// Keys implements nav.Screen
func (m *Model) Keys() []key.Binding {
	return []key.Binding{keys.Select(), keys.Quit()}
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder
	if m.busy {
		sb.WriteString(m.spinner.View() + " " + i18n.T("login.signing_in"))
		return styles.Panel.Render(sb.String())
	}
	sb.WriteString(m.form.View())
	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(m.err))
	}
	return styles.Panel.Render(sb.String())
}
