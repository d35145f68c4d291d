// ABOUTME: Appointment schedule screen for doctors and the front desk
// ABOUTME: Paged list with status filter, status changes, booking and cancellation

package appointments

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/routes"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/forms"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

const (
	requestTimeout = 30 * time.Second
	timeLayout     = "2006-01-02 15:04"
)

type mode int

const (
	modeList mode = iota
	modeStatus
	modeDelete
	modeCreate
)

type pageMsg struct {
	page *client.Page[client.Appointment]
	err  error
}

type actionMsg struct {
	notice string
	err    error
}

// choicesMsg carries the patients and doctors offered when booking.
type choicesMsg struct {
	patients []client.Patient
	doctors  []client.User
	err      error
}

// booking holds the create form's values.
type booking struct {
	PatientID string
	DoctorID  string
	Start     string
	Minutes   int
	Reason    string
}

// Model is the appointment schedule screen.
type Model struct {
	client *client.Client
	role   session.Role
	table  table.Model
	form   *huh.Form
	mode   mode

	page    *client.Page[client.Appointment]
	offset  int
	status  string
	loading bool
	notice  string
	err     string

	newStatus string
	confirmed bool
	draft     booking
	patients  []client.Patient
	doctors   []client.User
	now       func() time.Time
}

// New creates the schedule screen for the signed-in role.
func New(c *client.Client) *Model {
	m := &Model{client: c, loading: true, now: time.Now}
	if id := c.Store().Identity(); id != nil {
		m.role = id.Role
	}
	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: i18n.T("appointments.col_time"), Width: 17},
			{Title: i18n.T("appointments.col_patient"), Width: 22},
			{Title: i18n.T("appointments.col_doctor"), Width: 22},
			{Title: i18n.T("appointments.col_status"), Width: 12},
			{Title: i18n.T("appointments.col_reason"), Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(client.DefaultPageSize),
		table.WithStyles(styles.Table()),
	)
	return m
}

// canBook reports whether role may create and delete appointments.
func canBook(role session.Role) bool {
	return role == session.RoleAdmin || role == session.RoleReception
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) query() client.AppointmentQuery {
	return client.AppointmentQuery{
		Offset: m.offset,
		Limit:  client.DefaultPageSize,
		Sort:   client.SortStartAsc,
		Status: m.status,
	}
}

func (m *Model) load() tea.Cmd {
	q := m.query()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := m.client.ListAppointments(ctx, q)
		return pageMsg{page: page, err: err}
	}
}

func (m *Model) act(notice string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: notice}
	}
}

func (m *Model) loadChoices() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var msg choicesMsg
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			patients, err := m.client.ListPatients(ctx, "")
			msg.patients = patients
			return err
		})
		g.Go(func() error {
			doctors, err := m.client.ListUsers(ctx, "", session.RoleDoctor)
			msg.doctors = doctors
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func personName(p *client.PersonRef, fallback string) string {
	if p == nil {
		return fallback
	}
	return client.Patient{FirstName: p.FirstName, LastName: p.LastName}.FullName()
}

func (m *Model) items() []client.Appointment {
	if m.page == nil {
		return nil
	}
	return m.page.Items
}

func (m *Model) selected() (client.Appointment, bool) {
	items := m.items()
	i := m.table.Cursor()
	if i < 0 || i >= len(items) {
		return client.Appointment{}, false
	}
	return items[i], true
}

func (m *Model) setRows() {
	items := m.items()
	rows := make([]table.Row, 0, len(items))
	for _, a := range items {
		rows = append(rows, table.Row{
			a.StartAt.Local().Format(timeLayout),
			personName(a.Patient, a.PatientID),
			personName(a.Doctor, a.DoctorID),
			widgets.AppointmentStatusName(a.Status),
			widgets.Truncate(a.Reason, 20),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pageMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
			return m, nil
		}
		m.err = ""
		m.page = msg.page
		m.setRows()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = client.Message(msg.err)
			m.notice = ""
			return m, nil
		}
		m.err = ""
		m.notice = msg.notice
		m.loading = true
		return m, m.load()

	case choicesMsg:
		if msg.err != nil {
			m.err = client.Message(msg.err)
			return m, nil
		}
		if len(msg.patients) == 0 || len(msg.doctors) == 0 {
			m.err = i18n.T("appointments.cannot_book")
			return m, nil
		}
		m.patients, m.doctors = msg.patients, msg.doctors
		m.draft = booking{
			PatientID: msg.patients[0].ID,
			DoctorID:  msg.doctors[0].ID,
			Start:     m.now().Add(time.Hour).Truncate(time.Hour).Format(forms.DateTimeLayout),
			Minutes:   30,
		}
		return m, m.openForm(modeCreate, m.createForm())

	case tea.WindowSizeMsg:
		m.table.SetHeight(min(client.DefaultPageSize, max(3, msg.Height-9)))
		return m, nil
	}

	if m.mode != modeList {
		return m.updateForm(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back()):
		return m, nav.Back()
	case key.Matches(msg, keys.Refresh()):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, keys.Filter()):
		m.status = nextStatus(m.status)
		m.offset = 0
		m.loading = true
		return m, m.load()
	case key.Matches(msg, keys.NextPage()):
		if m.page != nil && m.page.HasNext() {
			m.offset += client.DefaultPageSize
			m.loading = true
			return m, m.load()
		}
		return m, nil
	case key.Matches(msg, keys.PrevPage()):
		if m.offset > 0 {
			m.offset = max(0, m.offset-client.DefaultPageSize)
			m.loading = true
			return m, m.load()
		}
		return m, nil
	case key.Matches(msg, keys.New()) && canBook(m.role):
		m.notice, m.err = "", ""
		return m, m.loadChoices()
	}

	a, ok := m.selected()
	if ok {
		switch {
		case key.Matches(msg, keys.Select()):
			return m, nav.Go(routes.Build(routes.PathPatient, "id", a.PatientID))
		case key.Matches(msg, keys.Status()):
			m.newStatus = a.Status
			return m, m.openForm(modeStatus, m.statusForm())
		case key.Matches(msg, keys.Delete()) && canBook(m.role):
			m.confirmed = false
			return m, m.openForm(modeDelete, m.deleteForm(a))
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// nextStatus cycles the filter: all, then each status in workflow order.
func nextStatus(current string) string {
	if current == "" {
		return client.AppointmentStatuses[0]
	}
	for i, s := range client.AppointmentStatuses {
		if s == current && i+1 < len(client.AppointmentStatuses) {
			return client.AppointmentStatuses[i+1]
		}
	}
	return ""
}

func (m *Model) openForm(md mode, f *huh.Form) tea.Cmd {
	m.mode = md
	m.form = f
	return m.form.Init()
}

func (m *Model) closeForm() {
	m.mode = modeList
	m.form = nil
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		md := m.mode
		m.closeForm()
		return m, m.submit(md)
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) submit(md mode) tea.Cmd {
	a, _ := m.selected()
	switch md {
	case modeStatus:
		if a.ID == "" || m.newStatus == a.Status {
			return nil
		}
		status := m.newStatus
		notice := i18n.T("appointments.status_changed", map[string]any{"Status": widgets.AppointmentStatusName(status)})
		return m.act(notice, func(ctx context.Context) error {
			_, err := m.client.UpdateAppointmentStatus(ctx, a.ID, status)
			return err
		})
	case modeDelete:
		if a.ID == "" || !m.confirmed {
			return nil
		}
		return m.act(i18n.T("appointments.deleted"), func(ctx context.Context) error {
			return m.client.DeleteAppointment(ctx, a.ID)
		})
	case modeCreate:
		start, err := forms.ParseDateTime(m.draft.Start)
		if err != nil {
			m.err = err.Error()
			return nil
		}
		req := client.NewAppointment{
			PatientID: m.draft.PatientID,
			DoctorID:  m.draft.DoctorID,
			StartAt:   start,
			EndAt:     start.Add(time.Duration(m.draft.Minutes) * time.Minute),
			Reason:    strings.TrimSpace(m.draft.Reason),
		}
		notice := i18n.T("appointments.booked", map[string]any{"Time": start.Format(timeLayout)})
		return m.act(notice, func(ctx context.Context) error {
			_, err := m.client.CreateAppointment(ctx, req)
			return err
		})
	}
	return nil
}

func (m *Model) statusForm() *huh.Form {
	opts := make([]huh.Option[string], 0, len(client.AppointmentStatuses))
	for _, s := range client.AppointmentStatuses {
		opts = append(opts, huh.NewOption(widgets.AppointmentStatusName(s), s))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(i18n.T("appointments.choose_status")).
				Options(opts...).
				Value(&m.newStatus),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *Model) deleteForm(a client.Appointment) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(i18n.T("appointments.confirm_delete", map[string]any{
					"Patient": personName(a.Patient, a.PatientID),
					"Time":    a.StartAt.Local().Format(timeLayout),
				})).
				Affirmative(i18n.T("common.yes")).
				Negative(i18n.T("common.no")).
				Value(&m.confirmed),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *Model) createForm() *huh.Form {
	patients := make([]huh.Option[string], 0, len(m.patients))
	for _, p := range m.patients {
		patients = append(patients, huh.NewOption(p.FullName(), p.ID))
	}
	doctors := make([]huh.Option[string], 0, len(m.doctors))
	for _, d := range m.doctors {
		doctors = append(doctors, huh.NewOption(d.FullName(), d.ID))
	}
	durations := []huh.Option[int]{
		huh.NewOption("15 min", 15),
		huh.NewOption("30 min", 30),
		huh.NewOption("45 min", 45),
		huh.NewOption("60 min", 60),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(i18n.T("appointments.patient")).Options(patients...).Value(&m.draft.PatientID),
			huh.NewSelect[string]().Title(i18n.T("appointments.doctor")).Options(doctors...).Value(&m.draft.DoctorID),
		).Title(i18n.T("appointments.new_title")),
		huh.NewGroup(
			huh.NewInput().
				Title(i18n.T("appointments.start")).
				Description(forms.DateTimeLayout).
				Value(&m.draft.Start).
				Validate(forms.DateTime),
			huh.NewSelect[int]().Title(i18n.T("appointments.duration")).Options(durations...).Value(&m.draft.Minutes),
			huh.NewInput().Title(i18n.T("appointments.reason")).Value(&m.draft.Reason),
		).Title(i18n.T("appointments.new_title")),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Typing implements nav.Typing
func (m *Model) Typing() bool {
	return m.mode != modeList
}

// Keys implements nav.Screen
func (m *Model) Keys() []key.Binding {
	if m.mode != modeList {
		return []key.Binding{keys.Select(), keys.Back()}
	}
	bindings := []key.Binding{keys.Select(), keys.Status(), keys.Filter(), keys.PrevPage(), keys.NextPage()}
	if canBook(m.role) {
		bindings = append(bindings, keys.New(), keys.Delete())
	}
	return append(bindings, keys.Back())
}

func (m *Model) pageInfo() string {
	if m.page == nil || m.page.Total == 0 {
		return ""
	}
	pages := (m.page.Total + client.DefaultPageSize - 1) / client.DefaultPageSize
	current := m.offset/client.DefaultPageSize + 1
	return i18n.T("appointments.page", map[string]any{"Page": current, "Pages": pages, "Total": m.page.Total})
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Appointment.String() + " " + i18n.T("appointments.title")))
	sb.WriteString("\n")

	if m.mode != modeList {
		sb.WriteString(m.form.View())
		return styles.ActivePanel.Render(sb.String())
	}

	filter := i18n.T("appointments.all_statuses")
	if m.status != "" {
		filter = widgets.AppointmentBadge(m.status)
	}
	sb.WriteString(styles.Subtitle.Render(i18n.T("appointments.filter")+": ") + filter)
	sb.WriteString("\n")

	switch {
	case m.loading && m.page == nil:
		sb.WriteString(i18n.T("common.loading"))
	case len(m.items()) == 0:
		sb.WriteString(styles.Subtitle.Render(i18n.T("appointments.empty")))
	default:
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render(m.pageInfo()))
	}

	if m.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(m.notice, widgets.StatusOK))
	}
	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(m.err, widgets.StatusCritical))
	}
	return styles.Panel.Render(sb.String())
}
