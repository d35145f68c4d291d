// ABOUTME: Patient list screen with search, registration and removal
// ABOUTME: Front desk staff manage patients; doctors browse and open profiles

package patients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

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

const requestTimeout = 30 * time.Second

type mode int

const (
	modeList mode = iota
	modeSearch
	modeCreate
	modeDelete
)

type listMsg struct {
	patients []client.Patient
	err      error
}

type actionMsg struct {
	notice string
	err    error
}

// canManage reports whether role may register and remove patients.
func canManage(role session.Role) bool {
	return role == session.RoleAdmin || role == session.RoleReception
}

func roleOf(c *client.Client) session.Role {
	if id := c.Store().Identity(); id != nil {
		return id.Role
	}
	return ""
}

// List is the patient list screen.
type List struct {
	client *client.Client
	role   session.Role
	table  table.Model
	search textinput.Model
	form   *huh.Form
	mode   mode

	patients []client.Patient
	query    string
	loading  bool
	notice   string
	err      string

	draft     client.NewPatient
	confirmed bool
	copyID    func(string) error
}

// NewList creates the patient list screen.
func NewList(c *client.Client) *List {
	search := textinput.New()
	search.Placeholder = i18n.T("patients.search_placeholder")
	search.Prompt = "/ "
	search.CharLimit = 64

	return &List{
		client:  c,
		role:    roleOf(c),
		search:  search,
		loading: true,
		copyID:  clipboard.WriteAll,
		table: table.New(
			table.WithColumns([]table.Column{
				{Title: i18n.T("patients.col_name"), Width: 26},
				{Title: i18n.T("patients.col_gender"), Width: 10},
				{Title: i18n.T("patients.col_phone"), Width: 16},
				{Title: i18n.T("patients.col_email"), Width: 26},
			}),
			table.WithFocused(true),
			table.WithHeight(10),
			table.WithStyles(styles.Table()),
		),
	}
}

// Init implements tea.Model
func (l *List) Init() tea.Cmd {
	return l.load()
}

func (l *List) load() tea.Cmd {
	q := l.query
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		patients, err := l.client.ListPatients(ctx, q)
		return listMsg{patients: patients, err: err}
	}
}

func (l *List) act(notice string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: notice}
	}
}

func (l *List) selected() (client.Patient, bool) {
	i := l.table.Cursor()
	if i < 0 || i >= len(l.patients) {
		return client.Patient{}, false
	}
	return l.patients[i], true
}

// GenderName translates a patient gender for display.
func GenderName(g string) string {
	switch g {
	case client.GenderMale, client.GenderFemale, client.GenderChild:
		return i18n.T("gender." + g)
	}
	return g
}

func (l *List) setRows() {
	rows := make([]table.Row, 0, len(l.patients))
	for _, p := range l.patients {
		rows = append(rows, table.Row{p.FullName(), GenderName(p.Gender), p.Phone, p.Email})
	}
	l.table.SetRows(rows)
	if l.table.Cursor() >= len(rows) {
		l.table.SetCursor(max(0, len(rows)-1))
	}
}

// Update implements tea.Model
func (l *List) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listMsg:
		l.loading = false
		if msg.err != nil {
			l.err = client.Message(msg.err)
			return l, nil
		}
		l.err = ""
		l.patients = msg.patients
		l.setRows()
		return l, nil

	case actionMsg:
		if msg.err != nil {
			l.err = client.Message(msg.err)
			l.notice = ""
			return l, nil
		}
		l.err = ""
		l.notice = msg.notice
		l.loading = true
		return l, l.load()

	case tea.WindowSizeMsg:
		l.table.SetHeight(max(5, msg.Height-8))
		return l, nil
	}

	switch l.mode {
	case modeSearch:
		return l.updateSearch(msg)
	case modeCreate, modeDelete:
		return l.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return l.handleKey(msg)
	}
	return l, nil
}

func (l *List) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back()):
		return l, nav.Back()
	case key.Matches(msg, keys.Search()):
		l.mode = modeSearch
		l.search.SetValue(l.query)
		return l, l.search.Focus()
	case key.Matches(msg, keys.Refresh()):
		l.loading = true
		return l, l.load()
	case key.Matches(msg, keys.New()) && canManage(l.role):
		l.draft = client.NewPatient{}
		return l, l.openForm(modeCreate, l.createForm())
	}

	p, ok := l.selected()
	if ok {
		switch {
		case key.Matches(msg, keys.Select()):
			return l, nav.Go(routes.Build(routes.PathPatient, "id", p.ID))
		case key.Matches(msg, keys.Delete()) && canManage(l.role):
			l.confirmed = false
			return l, l.openForm(modeDelete, l.deleteForm(p))
		case key.Matches(msg, keys.Copy()):
			if err := l.copyID(p.ID); err != nil {
				l.err = i18n.T("common.copy_failed")
				return l, nil
			}
			l.notice = i18n.T("common.copied", map[string]any{"ID": p.ID})
			return l, nil
		}
	}

	var cmd tea.Cmd
	l.table, cmd = l.table.Update(msg)
	return l, cmd
}

func (l *List) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			l.mode = modeList
			l.search.Blur()
			l.query = strings.TrimSpace(l.search.Value())
			l.loading = true
			return l, l.load()
		case tea.KeyEsc:
			l.mode = modeList
			l.search.Blur()
			return l, nil
		}
	}
	var cmd tea.Cmd
	l.search, cmd = l.search.Update(msg)
	return l, cmd
}

func (l *List) openForm(md mode, f *huh.Form) tea.Cmd {
	l.mode = md
	l.form = f
	l.notice, l.err = "", ""
	return l.form.Init()
}

func (l *List) closeForm() {
	l.mode = modeList
	l.form = nil
}

func (l *List) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		l.closeForm()
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	switch l.form.State {
	case huh.StateCompleted:
		md := l.mode
		l.closeForm()
		return l, l.submit(md)
	case huh.StateAborted:
		l.closeForm()
		return l, nil
	}
	return l, cmd
}

func (l *List) submit(md mode) tea.Cmd {
	switch md {
	case modeCreate:
		draft := l.draft
		draft.Email = strings.TrimSpace(draft.Email)
		draft.FirstName = strings.TrimSpace(draft.FirstName)
		draft.LastName = strings.TrimSpace(draft.LastName)
		draft.Phone = strings.TrimSpace(draft.Phone)
		name := client.Patient{FirstName: draft.FirstName, LastName: draft.LastName}.FullName()
		return l.act(i18n.T("patients.created", map[string]any{"Name": name}), func(ctx context.Context) error {
			_, err := l.client.CreatePatient(ctx, draft)
			return err
		})
	case modeDelete:
		p, ok := l.selected()
		if !ok || !l.confirmed {
			return nil
		}
		return l.act(i18n.T("patients.deleted", map[string]any{"Name": p.FullName()}), func(ctx context.Context) error {
			return l.client.DeletePatient(ctx, p.ID)
		})
	}
	return nil
}

func genderOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption(i18n.T("gender.unspecified"), ""),
		huh.NewOption(GenderName(client.GenderMale), client.GenderMale),
		huh.NewOption(GenderName(client.GenderFemale), client.GenderFemale),
		huh.NewOption(GenderName(client.GenderChild), client.GenderChild),
	}
}

func (l *List) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(i18n.T("patients.first_name")).Value(&l.draft.FirstName).Validate(forms.Required),
			huh.NewInput().Title(i18n.T("patients.last_name")).Value(&l.draft.LastName).Validate(forms.Required),
			huh.NewSelect[string]().Title(i18n.T("patients.gender")).Options(genderOptions()...).Value(&l.draft.Gender),
			huh.NewInput().Title(i18n.T("patients.phone")).Placeholder("+998901234567").CharLimit(32).Value(&l.draft.Phone),
			huh.NewInput().Title(i18n.T("patients.email")).Value(&l.draft.Email).Validate(forms.OptionalEmail),
			huh.NewText().Title(i18n.T("patients.notes")).Value(&l.draft.Notes),
		).Title(i18n.T("patients.new_title")),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (l *List) deleteForm(p client.Patient) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(i18n.T("patients.confirm_delete", map[string]any{"Name": p.FullName()})).
				Affirmative(i18n.T("common.yes")).
				Negative(i18n.T("common.no")).
				Value(&l.confirmed),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Typing implements nav.Typing
func (l *List) Typing() bool {
	return l.mode != modeList
}

// Keys implements nav.Screen
func (l *List) Keys() []key.Binding {
	if l.mode != modeList {
		return []key.Binding{keys.Select(), keys.Back()}
	}
	if canManage(l.role) {
		return []key.Binding{keys.Select(), keys.Search(), keys.New(), keys.Delete(), keys.Copy(), keys.Back()}
	}
	return []key.Binding{keys.Select(), keys.Search(), keys.Copy(), keys.Back()}
}

// View implements tea.Model
func (l *List) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Patient.String() + " " + i18n.T("patients.title")))
	sb.WriteString("\n")

	if l.mode == modeCreate || l.mode == modeDelete {
		sb.WriteString(l.form.View())
		return styles.ActivePanel.Render(sb.String())
	}

	if l.mode == modeSearch {
		sb.WriteString(l.search.View())
		sb.WriteString("\n")
	} else if l.query != "" {
		sb.WriteString(styles.Subtitle.Render(i18n.T("common.filtered", map[string]any{"Query": l.query})))
		sb.WriteString("\n")
	}

	switch {
	case l.loading && l.patients == nil:
		sb.WriteString(i18n.T("common.loading"))
	case len(l.patients) == 0:
		sb.WriteString(styles.Subtitle.Render(i18n.T("patients.empty")))
	default:
		sb.WriteString(l.table.View())
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d %s", len(l.patients), i18n.T("patients.count"))))
	}

	if l.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(l.notice, widgets.StatusOK))
	}
	if l.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(l.err, widgets.StatusCritical))
	}
	return styles.Panel.Render(sb.String())
}
