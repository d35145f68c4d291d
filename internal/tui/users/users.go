// ABOUTME: Staff account management screen for administrators
// ABOUTME: Search, create, change role, toggle active and delete accounts

package users

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
	modeRole
	modeDelete
	modeCreate
)

type loadedMsg struct {
	users []client.User
	err   error
}

type actionMsg struct {
	notice string
	err    error
}

// Model is the staff accounts screen.
type Model struct {
	client *client.Client
	table  table.Model
	search textinput.Model
	form   *huh.Form
	mode   mode

	users   []client.User
	query   string
	loading bool
	notice  string
	err     string

	// form values
	role      session.Role
	confirmed bool
	draft     client.NewUser

	copyID func(string) error
}

// New creates the staff accounts screen.
func New(c *client.Client) *Model {
	search := textinput.New()
	search.Placeholder = i18n.T("users.search_placeholder")
	search.Prompt = "/ "
	search.CharLimit = 64

	m := &Model{
		client:  c,
		search:  search,
		loading: true,
		copyID:  clipboard.WriteAll,
	}
	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(styles.Table()),
	)
	return m
}

func (m *Model) columns() []table.Column {
	return []table.Column{
		{Title: i18n.T("users.col_name"), Width: 24},
		{Title: i18n.T("users.col_email"), Width: 28},
		{Title: i18n.T("users.col_role"), Width: 12},
		{Title: i18n.T("users.col_status"), Width: 10},
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := m.client.ListUsers(ctx, q, "")
		return loadedMsg{users: users, err: err}
	}
}

// act runs fn and reports notice on success.
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

func (m *Model) selected() (client.User, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.users) {
		return client.User{}, false
	}
	return m.users[i], true
}

func (m *Model) setRows() {
	rows := make([]table.Row, 0, len(m.users))
	for _, u := range m.users {
		status := i18n.T("users.active")
		if !u.IsActive {
			status = i18n.T("users.inactive")
		}
		rows = append(rows, table.Row{u.FullName(), u.Email, widgets.RoleName(u.Role), status})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.Message(msg.err)
			return m, nil
		}
		m.err = ""
		m.users = msg.users
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

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(5, msg.Height-8))
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.updateSearch(msg)
	case modeRole, modeDelete, modeCreate:
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
	case key.Matches(msg, keys.Search()):
		m.mode = modeSearch
		m.search.SetValue(m.query)
		return m, m.search.Focus()
	case key.Matches(msg, keys.Refresh()):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, keys.New()):
		m.draft = client.NewUser{Role: session.RoleDoctor}
		return m, m.openForm(modeCreate, m.createForm())
	}

	u, ok := m.selected()
	if !ok {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Toggle()):
		notice := i18n.T("users.deactivated", map[string]any{"Name": u.FullName()})
		if !u.IsActive {
			notice = i18n.T("users.activated", map[string]any{"Name": u.FullName()})
		}
		return m, m.act(notice, func(ctx context.Context) error {
			_, err := m.client.SetUserStatus(ctx, u.ID, !u.IsActive)
			return err
		})
	case key.Matches(msg, keys.Role()):
		m.role = u.Role
		return m, m.openForm(modeRole, m.roleForm(u))
	case key.Matches(msg, keys.Delete()):
		m.confirmed = false
		return m, m.openForm(modeDelete, m.deleteForm(u))
	case key.Matches(msg, keys.Copy()):
		if err := m.copyID(u.ID); err != nil {
			m.err = i18n.T("common.copy_failed")
			return m, nil
		}
		m.notice = i18n.T("common.copied", map[string]any{"ID": u.ID})
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.mode = modeList
			m.search.Blur()
			m.query = strings.TrimSpace(m.search.Value())
			m.loading = true
			return m, m.load()
		case tea.KeyEsc:
			m.mode = modeList
			m.search.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) openForm(md mode, f *huh.Form) tea.Cmd {
	m.mode = md
	m.form = f
	m.notice, m.err = "", ""
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
	u, _ := m.selected()
	switch md {
	case modeRole:
		if m.role == u.Role {
			return nil
		}
		role := m.role
		notice := i18n.T("users.role_changed", map[string]any{"Name": u.FullName(), "Role": widgets.RoleName(role)})
		return m.act(notice, func(ctx context.Context) error {
			_, err := m.client.ChangeUserRole(ctx, u.ID, role)
			return err
		})
	case modeDelete:
		if !m.confirmed {
			return nil
		}
		notice := i18n.T("users.deleted", map[string]any{"Name": u.FullName()})
		return m.act(notice, func(ctx context.Context) error {
			return m.client.DeleteUser(ctx, u.ID)
		})
	case modeCreate:
		draft := m.draft
		draft.Email = strings.TrimSpace(draft.Email)
		draft.FirstName = strings.TrimSpace(draft.FirstName)
		draft.LastName = strings.TrimSpace(draft.LastName)
		notice := i18n.T("users.created", map[string]any{"Email": draft.Email})
		return m.act(notice, func(ctx context.Context) error {
			_, err := m.client.CreateUser(ctx, draft)
			return err
		})
	}
	return nil
}

func roleOptions() []huh.Option[session.Role] {
	opts := make([]huh.Option[session.Role], 0, len(session.AllRoles))
	for _, r := range session.AllRoles {
		opts = append(opts, huh.NewOption(widgets.RoleName(r), r))
	}
	return opts
}

func (m *Model) roleForm(u client.User) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[session.Role]().
				Title(i18n.T("users.choose_role", map[string]any{"Name": u.FullName()})).
				Options(roleOptions()...).
				Value(&m.role),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *Model) deleteForm(u client.User) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(i18n.T("users.confirm_delete", map[string]any{"Name": u.FullName()})).
				Affirmative(i18n.T("common.yes")).
				Negative(i18n.T("common.no")).
				Value(&m.confirmed),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

func (m *Model) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(i18n.T("users.email")).Value(&m.draft.Email).Validate(forms.Email),
			huh.NewInput().Title(i18n.T("users.first_name")).Value(&m.draft.FirstName).Validate(forms.Required),
			huh.NewInput().Title(i18n.T("users.last_name")).Value(&m.draft.LastName).Validate(forms.Required),
			huh.NewSelect[session.Role]().Title(i18n.T("users.role")).Options(roleOptions()...).Value(&m.draft.Role),
			huh.NewInput().
				Title(i18n.T("users.temporary_password")).
				Description(i18n.T("users.temporary_password_hint")).
				EchoMode(huh.EchoModePassword).
				Value(&m.draft.TemporaryPassword).
				Validate(forms.MinLength(8)),
		).Title(i18n.T("users.new_title")),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Typing implements nav.Typing
func (m *Model) Typing() bool {
	return m.mode != modeList
}

// Keys implements nav.Screen
func (m *Model) Keys() []key.Binding {
	switch m.mode {
	case modeSearch, modeRole, modeDelete, modeCreate:
		return []key.Binding{keys.Select(), keys.Back()}
	}
	return []key.Binding{
		keys.Search(), keys.New(), keys.Toggle(), keys.Role(), keys.Delete(), keys.Copy(), keys.Back(),
	}
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Users.String() + " " + i18n.T("users.title")))
	sb.WriteString("\n")

	if m.mode == modeRole || m.mode == modeDelete || m.mode == modeCreate {
		sb.WriteString(m.form.View())
		return styles.ActivePanel.Render(sb.String())
	}

	if m.mode == modeSearch {
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
	} else if m.query != "" {
		sb.WriteString(styles.Subtitle.Render(i18n.T("common.filtered", map[string]any{"Query": m.query})))
		sb.WriteString("\n")
	}

	switch {
	case m.loading && m.users == nil:
		sb.WriteString(i18n.T("common.loading"))
	case len(m.users) == 0:
		sb.WriteString(styles.Subtitle.Render(i18n.T("users.empty")))
	default:
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d %s", len(m.users), i18n.T("users.count"))))
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
