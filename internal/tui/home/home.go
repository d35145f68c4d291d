// ABOUTME: Role home screen with summary counts and the destination menu
// ABOUTME: Counts are fetched in parallel and render independently of each other

package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/menu"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

const loadTimeout = 15 * time.Second

// Count is one summary figure. Value is -1 when it could not be loaded.
type Count struct {
	Icon  icons.Icon
	Title string
	Label string
	Value int
}

type countsMsg struct {
	counts []Count
	err    error
}

type counter struct {
	icon  icons.Icon
	title string
	label string
	fetch func(ctx context.Context, c *client.Client) (int, error)
}

func countUsers(role session.Role) func(context.Context, *client.Client) (int, error) {
	return func(ctx context.Context, c *client.Client) (int, error) {
		users, err := c.ListUsers(ctx, "", role)
		return len(users), err
	}
}

func countPatients(ctx context.Context, c *client.Client) (int, error) {
	patients, err := c.ListPatients(ctx, "")
	return len(patients), err
}

func countAppointments(status string) func(context.Context, *client.Client) (int, error) {
	return func(ctx context.Context, c *client.Client) (int, error) {
		page, err := c.ListAppointments(ctx, client.AppointmentQuery{Limit: 1, Status: status})
		if err != nil {
			return 0, err
		}
		return page.Total, nil
	}
}

// countersFor lists the figures shown to a role.
func countersFor(role session.Role) []counter {
	switch role {
	case session.RoleAdmin:
		return []counter{
			{icons.Users, "home.staff", "home.accounts", countUsers("")},
			{icons.Patient, "home.patients", "home.registered", countPatients},
			{icons.Appointment, "home.appointments", "home.all_time", countAppointments("")},
		}
	case session.RoleDoctor:
		return []counter{
			{icons.Appointment, "home.my_appointments", "home.scheduled", countAppointments(client.StatusScheduled)},
			{icons.Appointment, "home.completed", "home.all_time", countAppointments(client.StatusCompleted)},
			{icons.Patient, "home.patients", "home.registered", countPatients},
		}
	case session.RoleReception:
		return []counter{
			{icons.Appointment, "home.appointments", "home.scheduled", countAppointments(client.StatusScheduled)},
			{icons.Patient, "home.patients", "home.registered", countPatients},
			{icons.Doctor, "home.doctors", "home.available", countUsers(session.RoleDoctor)},
		}
	}
	return nil
}

// Model is the role home screen.
type Model struct {
	client  *client.Client
	role    session.Role
	email   string
	menu    *menu.Menu
	counts  []Count
	loading bool
	err     string
	width   int
}

// New creates the home screen for the signed-in identity.
func New(c *client.Client) *Model {
	snap := c.Store().Snapshot()
	m := &Model{client: c, menu: menu.New(snap), loading: true}
	if snap.Identity != nil {
		m.role = snap.Identity.Role
		m.email = snap.Identity.Email
	}
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.menu.Init(), m.load())
}

func (m *Model) load() tea.Cmd {
	counters := countersFor(m.role)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		counts := make([]Count, len(counters))
		// One failing figure must not cancel the others.
		var g errgroup.Group
		for i, ct := range counters {
			counts[i] = Count{Icon: ct.icon, Title: i18n.T(ct.title), Label: i18n.T(ct.label), Value: -1}
			g.Go(func() error {
				n, err := ct.fetch(ctx, m.client)
				if err != nil {
					return err
				}
				counts[i].Value = n
				return nil
			})
		}
		err := g.Wait()
		return countsMsg{counts: counts, err: err}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case countsMsg:
		m.loading = false
		m.counts = msg.counts
		m.err = ""
		if msg.err != nil {
			m.err = client.Message(msg.err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, keys.Refresh()) {
			m.loading = true
			return m, m.load()
		}
	}

	model, cmd := m.menu.Update(msg)
	m.menu = model.(*menu.Menu)
	return m, cmd
}

// Counts returns the loaded figures.
func (m *Model) Counts() []Count {
	return m.counts
}

// Keys implements nav.Screen
func (m *Model) Keys() []key.Binding {
	return []key.Binding{keys.Up(), keys.Down(), keys.Select(), keys.Refresh()}
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(i18n.T("home.welcome", map[string]any{"Email": m.email})))
	sb.WriteString(" ")
	sb.WriteString(widgets.RoleBadge(m.role))
	sb.WriteString("\n\n")

	switch {
	case m.loading && m.counts == nil:
		sb.WriteString(styles.Subtitle.Render(i18n.T("common.loading")))
	default:
		cfg := widgets.DefaultMetricBlockConfig()
		blocks := make([]string, 0, len(m.counts))
		for _, c := range m.counts {
			blocks = append(blocks, widgets.CountBlock(c.Icon, c.Title, c.Value, c.Label, cfg))
		}
		if m.width > 0 && m.width < len(blocks)*cfg.Width {
			sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, blocks...))
		} else {
			sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
		}
	}
	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(fmt.Sprintf("%s: %s", i18n.T("home.partial"), m.err), widgets.StatusWarning))
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.menu.View())
	return sb.String()
}
