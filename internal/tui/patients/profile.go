// ABOUTME: Patient profile screen with contact details and medical records
// ABOUTME: Patient and records load in parallel; doctors can add a record from here

package patients

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

type profileMsg struct {
	patient *client.Patient
	records []client.Record
	err     error
}

// Profile shows one patient.
type Profile struct {
	client  *client.Client
	role    session.Role
	id      string
	patient *client.Patient
	records []client.Record
	table   table.Model
	loading bool
	err     string
}

// NewProfile creates the profile screen for patient id.
func NewProfile(c *client.Client, id string) *Profile {
	return &Profile{
		client:  c,
		role:    roleOf(c),
		id:      id,
		loading: true,
		table: table.New(
			table.WithColumns([]table.Column{
				{Title: i18n.T("records.col_date"), Width: 12},
				{Title: i18n.T("records.col_type"), Width: 12},
				{Title: i18n.T("records.col_description"), Width: 32},
				{Title: i18n.T("records.col_prescription"), Width: 24},
			}),
			table.WithHeight(8),
			table.WithStyles(styles.Table()),
		),
	}
}

// Init implements tea.Model
func (p *Profile) Init() tea.Cmd {
	return p.load()
}

func (p *Profile) load() tea.Cmd {
	id := p.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var msg profileMsg
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			patient, err := p.client.GetPatient(ctx, id)
			msg.patient = patient
			return err
		})
		g.Go(func() error {
			records, err := p.client.ListRecords(ctx, id)
			msg.records = records
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// RecordTypeName translates a record type for display.
func RecordTypeName(t string) string {
	switch t {
	case client.RecordDiagnosis, client.RecordTreatment, client.RecordNote:
		return i18n.T("records." + t)
	}
	return t
}

func (p *Profile) setRows() {
	rows := make([]table.Row, 0, len(p.records))
	for _, r := range p.records {
		date := ""
		if !r.CreatedAt.IsZero() {
			date = r.CreatedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			date,
			RecordTypeName(r.Type),
			widgets.Truncate(r.Description, 32),
			widgets.Truncate(r.Prescription, 24),
		})
	}
	p.table.SetRows(rows)
}

// Update implements tea.Model
func (p *Profile) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileMsg:
		p.loading = false
		if msg.err != nil {
			p.err = client.Message(msg.err)
			return p, nil
		}
		p.err = ""
		p.patient = msg.patient
		p.records = msg.records
		p.setRows()
		return p, nil

	case tea.WindowSizeMsg:
		p.table.SetHeight(max(3, msg.Height-16))
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back()):
			return p, nav.Back()
		case key.Matches(msg, keys.Refresh()):
			p.loading = true
			return p, p.load()
		case key.Matches(msg, keys.Record()) && p.role == session.RoleDoctor:
			return p, nav.Go(routes.Build(routes.PathNewRecord, "id", p.id))
		}
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return p, cmd
	}
	return p, nil
}

// Keys implements nav.Screen
func (p *Profile) Keys() []key.Binding {
	if p.role == session.RoleDoctor {
		return []key.Binding{keys.Record(), keys.Refresh(), keys.Back()}
	}
	return []key.Binding{keys.Refresh(), keys.Back()}
}

func field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return styles.Label.Render(label) + styles.ValueStyle.Render(value)
}

// View implements tea.Model
func (p *Profile) View() string {
	var sb strings.Builder

	if p.patient == nil {
		sb.WriteString(styles.Title.Render(icons.Patient.String() + " " + i18n.T("patients.profile")))
		sb.WriteString("\n")
		if p.err != "" {
			sb.WriteString(widgets.StatusText(p.err, widgets.StatusCritical))
		} else {
			sb.WriteString(i18n.T("common.loading"))
		}
		return styles.Panel.Render(sb.String())
	}

	pt := p.patient
	sb.WriteString(styles.Title.Render(icons.Patient.String() + " " + pt.FullName()))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left,
		field(i18n.T("patients.gender"), GenderName(pt.Gender)),
		field(i18n.T("patients.phone"), pt.Phone),
		field(i18n.T("patients.email"), pt.Email),
		field(i18n.T("patients.notes"), pt.Notes),
	))
	sb.WriteString("\n\n")

	sb.WriteString(styles.Title.Render(icons.Record.String() + " " + i18n.T("records.title")))
	sb.WriteString("\n")
	if len(p.records) == 0 {
		sb.WriteString(styles.Subtitle.Render(i18n.T("records.empty")))
	} else {
		sb.WriteString(p.table.View())
	}
	if p.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(p.err, widgets.StatusCritical))
	}
	return styles.Panel.Render(sb.String())
}
