// ABOUTME: Root bubbletea model for the console TUI
// ABOUTME: Boots the session, resolves every navigation through the route table and frames the active screen

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/clinic-console/internal/authz"
	"github.com/markalston/clinic-console/internal/bootstrap"
	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/appointments"
	"github.com/markalston/clinic-console/internal/tui/home"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/login"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/passwd"
	"github.com/markalston/clinic-console/internal/tui/patients"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/users"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

// Layout constants
const (
	minTerminalWidth = 80 // Narrowest frame drawn
	frameLines       = 2  // Header and footer
	logoutTimeout    = 10 * time.Second
)

// bootedMsg is sent once the bootstrap gate has finished.
type bootedMsg struct {
	outcome bootstrap.Outcome
}

// sessionMsg is sent whenever the session store changes.
type sessionMsg struct{}

// loggedOutMsg is sent when a logout request has completed.
type loggedOutMsg struct{}

// Credentials is the saved refresh cookie, forgotten on logout.
type Credentials interface {
	Clear() error
}

// App is the root model for the TUI
type App struct {
	client *client.Client
	store  *session.Store
	gate   *bootstrap.Gate
	creds  Credentials

	booted    bool
	requested string
	path      string
	history   []string
	screen    nav.Screen

	width  int
	height int
}

// New creates the root model. start is the first path requested. creds may
// be nil when nothing is persisted.
func New(c *client.Client, gate *bootstrap.Gate, creds Credentials, start string) *App {
	if start == "" {
		start = routes.PathRoot
	}
	return &App{
		client:    c,
		store:     c.Store(),
		gate:      gate,
		creds:     creds,
		requested: start,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	gate := a.gate
	return func() tea.Msg {
		return bootedMsg{outcome: gate.Run(context.Background())}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case bootedMsg:
		slog.Debug("Session bootstrap finished", "outcome", msg.outcome)
		a.booted = true
		return a, a.navigate(a.requested, false)

	case sessionMsg:
		if !a.booted {
			return a, nil
		}
		if !a.store.Snapshot().Authenticated() {
			a.requested = routes.PathRoot
			a.history = nil
		}
		return a, a.navigate(a.requested, false)

	case nav.NavigateMsg:
		return a, a.navigate(msg.Path, true)

	case nav.BackMsg:
		prev := routes.PathRoot
		if n := len(a.history); n > 0 {
			prev = a.history[n-1]
			a.history = a.history[:n-1]
		}
		return a, a.navigate(prev, false)

	case loggedOutMsg:
		a.requested = routes.PathRoot
		a.history = nil
		return a, a.navigate(routes.PathRoot, false)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.forward(a.screenSize())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit()):
			return a, tea.Quit
		case key.Matches(msg, keys.Logout()) && a.store.Snapshot().Authenticated():
			return a, a.logout()
		case key.Matches(msg, keys.Home()) && !a.typing() && a.store.Snapshot().Authenticated():
			return a, a.navigate(routes.PathRoot, true)
		}
	}

	return a, a.forward(msg)
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	if a.screen == nil {
		return nil
	}
	model, cmd := a.screen.Update(msg)
	if s, ok := model.(nav.Screen); ok {
		a.screen = s
	}
	return cmd
}

func (a *App) typing() bool {
	t, ok := a.screen.(nav.Typing)
	return ok && t.Typing()
}

func (a *App) screenSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width, Height: max(0, a.height-frameLines)}
}

// navigate resolves p against the current session and swaps the screen when
// the resolved path differs from the one on display.
func (a *App) navigate(p string, push bool) tea.Cmd {
	a.requested = p
	res := routes.Resolve(p, a.store.Snapshot())
	if res.Decision == authz.Pending {
		return nil
	}
	if res.Redirected(p) {
		slog.Debug("Navigation redirected", "requested", p, "path", res.Path, "decision", res.Decision)
	}
	if a.screen != nil && res.Path == a.path {
		return nil
	}

	if push && a.path != "" {
		a.history = append(a.history, a.path)
	}
	a.path = res.Path
	a.screen = a.build(res)

	cmds := []tea.Cmd{a.screen.Init()}
	if a.width > 0 {
		cmds = append(cmds, a.forward(a.screenSize()))
	}
	return tea.Batch(cmds...)
}

func (a *App) build(res routes.Resolution) nav.Screen {
	switch res.Route.Pattern {
	case routes.PathLogin:
		return login.New(a.client)
	case routes.PathChangePassword:
		return passwd.New(a.client)
	case routes.PathAdmin, routes.PathDoctor, routes.PathReception:
		return home.New(a.client)
	case routes.PathAdminUsers:
		return users.New(a.client)
	case routes.PathDoctorAppointments, routes.PathReceptionAppointment:
		return appointments.New(a.client)
	case routes.PathPatients:
		return patients.NewList(a.client)
	case routes.PathPatient:
		return patients.NewProfile(a.client, res.Params["id"])
	case routes.PathNewRecord:
		return patients.NewRecordForm(a.client, res.Params["id"])
	default:
		return newForbidden()
	}
}

// logout ends the session on the backend and locally. The local session and
// the saved cookie are cleared even when the backend cannot be reached.
func (a *App) logout() tea.Cmd {
	c, creds := a.client, a.creds
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		c.Logout(ctx)
		if creds != nil {
			if err := creds.Clear(); err != nil {
				slog.Warn("Could not forget saved session", "error", err)
			}
		}
		return loggedOutMsg{}
	}
}

// View implements tea.Model
func (a *App) View() string {
	if !a.booted || a.screen == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(a.screen.View())
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())
	return sb.String()
}

func (a *App) frameWidth() int {
	return max(a.width, minTerminalWidth)
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	left := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render(i18n.T("app.title")))

	right := ""
	if snap := a.store.Snapshot(); snap.Authenticated() {
		right = " " + contextStyle.Render(snap.Identity.Email) + " " + widgets.RoleBadge(snap.Identity.Role) + " "
	}

	fill := max(0, width-4-lipgloss.Width(left)-lipgloss.Width(right)) // -4 for ╭─ and ─╮
	return borderStyle.Render("╭─") + left + borderStyle.Render(strings.Repeat("─", fill)) + right + borderStyle.Render("─╮")
}

// renderFooter creates the footer with the active screen's shortcuts and path
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	pathStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	for _, b := range a.bindings() {
		h := b.Help()
		shortcuts = append(shortcuts, keyStyle.Render(h.Key)+" "+labelStyle.Render(h.Desc))
	}
	left := " " + strings.Join(shortcuts, "  ") + " "
	right := " " + pathStyle.Render(a.path) + " "

	// Drop the path before the shortcuts when space runs out.
	if lipgloss.Width(left)+lipgloss.Width(right)+4 > width {
		right = ""
	}
	fill := max(0, width-4-lipgloss.Width(left)-lipgloss.Width(right)) // -4 for ╰─ and ─╯
	return borderStyle.Render("╰─") + left + borderStyle.Render(strings.Repeat("─", fill)) + right + borderStyle.Render("─╯")
}

func (a *App) bindings() []key.Binding {
	var out []key.Binding
	if a.screen != nil {
		out = append(out, a.screen.Keys()...)
	}
	if a.store.Snapshot().Authenticated() {
		out = append(out, keys.Logout())
	}
	return append(out, keys.Quit())
}

// Run starts the TUI and blocks until it exits.
func Run(c *client.Client, gate *bootstrap.Gate, creds Credentials, start string) error {
	app := New(c, gate, creds, start)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Store callbacks run on the mutating goroutine, which may be inside
	// p.Run's update loop, so sends must not block it.
	cancel := c.Store().Subscribe(func(session.Snapshot) {
		go p.Send(sessionMsg{})
	})
	defer cancel()

	_, err := p.Run()
	return err
}
