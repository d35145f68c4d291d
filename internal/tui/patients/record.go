// ABOUTME: New medical record form for doctors
// ABOUTME: Saves a diagnosis, treatment or note and returns to the patient

package patients

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

type savedMsg struct {
	err error
}

// RecordForm adds a record to one patient.
type RecordForm struct {
	client    *client.Client
	patientID string
	form      *huh.Form
	draft     client.NewRecord
	busy      bool
	err       string
}

// NewRecordForm creates the form for patient id.
func NewRecordForm(c *client.Client, id string) *RecordForm {
	r := &RecordForm{client: c, patientID: id, draft: client.NewRecord{Type: client.RecordDiagnosis}}
	r.form = r.createForm()
	return r
}

func (r *RecordForm) createForm() *huh.Form {
	types := []huh.Option[string]{
		huh.NewOption(RecordTypeName(client.RecordDiagnosis), client.RecordDiagnosis),
		huh.NewOption(RecordTypeName(client.RecordTreatment), client.RecordTreatment),
		huh.NewOption(RecordTypeName(client.RecordNote), client.RecordNote),
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(i18n.T("records.type")).Options(types...).Value(&r.draft.Type),
			huh.NewText().Title(i18n.T("records.details")).Value(&r.draft.Description),
			huh.NewText().Title(i18n.T("records.prescription")).Value(&r.draft.Prescription),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (r *RecordForm) Init() tea.Cmd {
	return r.form.Init()
}

// Update implements tea.Model
func (r *RecordForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		r.busy = false
		if msg.err != nil {
			r.err = client.Message(msg.err)
			r.form = r.createForm()
			return r, r.form.Init()
		}
		return r, nav.Back()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && !r.busy {
			return r, nav.Back()
		}
	}

	if r.busy {
		return r, nil
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}
	if r.form.State == huh.StateCompleted {
		r.busy = true
		return r, r.save()
	}
	return r, cmd
}

func (r *RecordForm) save() tea.Cmd {
	draft := r.draft
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Prescription = strings.TrimSpace(draft.Prescription)
	id := r.patientID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := r.client.CreateRecord(ctx, id, draft)
		return savedMsg{err: err}
	}
}

// Typing implements nav.Typing
func (r *RecordForm) Typing() bool {
	return !r.busy
}

// Keys implements nav.Screen
func (r *RecordForm) Keys() []key.Binding {
	return []key.Binding{keys.Select(), keys.Back()}
}

// View implements tea.Model
func (r *RecordForm) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Record.String() + " " + i18n.T("records.new_title")))
	sb.WriteString("\n")
	if r.busy {
		sb.WriteString(i18n.T("common.saving"))
	} else {
		sb.WriteString(r.form.View())
	}
	if r.err != "" {
		sb.WriteString("\n")
		sb.WriteString(widgets.StatusText(r.err, widgets.StatusCritical))
	}
	return styles.ActivePanel.Render(sb.String())
}
