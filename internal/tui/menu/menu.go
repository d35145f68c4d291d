// ABOUTME: Destination menu shown on the role home screens
// ABOUTME: Offers only the screens the signed-in role may open

package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/clinic-console/internal/authz"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
)

// Destination is one menu entry.
type Destination struct {
	Label string
	Path  string
	Icon  icons.Icon
}

type candidate struct {
	label string
	path  string
	icon  icons.Icon
}

var candidates = []candidate{
	{"menu.users", routes.PathAdminUsers, icons.Users},
	{"menu.appointments", routes.PathDoctorAppointments, icons.Appointment},
	{"menu.appointments", routes.PathReceptionAppointment, icons.Appointment},
	{"menu.patients", routes.PathPatients, icons.Patient},
	{"menu.change_password", routes.PathChangePassword, icons.Lock},
}

// For returns the destinations snap may open, in menu order.
func For(snap session.Snapshot) []Destination {
	var out []Destination
	for _, c := range candidates {
		route, _, ok := routes.Match(c.path)
		if !ok || !authz.Allows(route.Roles, snap) {
			continue
		}
		out = append(out, Destination{Label: i18n.T(c.label), Path: c.path, Icon: c.icon})
	}
	return out
}

// Menu is a single-select list of destinations.
type Menu struct {
	options  []Destination
	selected string
	form     *huh.Form
}

// New creates the menu for snap.
func New(snap session.Snapshot) *Menu {
	m := &Menu{options: For(snap)}
	if len(m.options) > 0 {
		m.selected = m.options[0].Path
	}
	m.form = m.createForm()
	return m
}

func (m *Menu) createForm() *huh.Form {
	opts := make([]huh.Option[string], 0, len(m.options))
	for _, d := range m.options {
		opts = append(opts, huh.NewOption(d.Icon.String()+" "+d.Label, d.Path))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(i18n.T("menu.title")).
				Options(opts...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Options returns the destinations on offer.
func (m *Menu) Options() []Destination {
	return m.options
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.options) == 0 {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		target := m.selected
		m.form = m.createForm()
		return m, tea.Batch(m.form.Init(), nav.Go(target))
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	if len(m.options) == 0 {
		return ""
	}
	return m.form.View()
}
