// ABOUTME: Screen shown when the signed-in role may not open the requested path
// ABOUTME: Offers a way back; the root model handles the home key

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/tui/icons"
	"github.com/markalston/clinic-console/internal/tui/keys"
	"github.com/markalston/clinic-console/internal/tui/nav"
	"github.com/markalston/clinic-console/internal/tui/styles"
	"github.com/markalston/clinic-console/internal/tui/widgets"
)

type forbidden struct{}

func newForbidden() *forbidden { return &forbidden{} }

func (f *forbidden) Init() tea.Cmd { return nil }

func (f *forbidden) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back()) {
		return f, nav.Back()
	}
	return f, nil
}

func (f *forbidden) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Lock.String() + " " + i18n.T("forbidden.title")))
	sb.WriteString("\n")
	sb.WriteString(widgets.StatusText(i18n.T("forbidden.message"), widgets.StatusWarning))
	return styles.Panel.Render(sb.String())
}

func (f *forbidden) Keys() []key.Binding {
	return []key.Binding{keys.Home(), keys.Back()}
}
