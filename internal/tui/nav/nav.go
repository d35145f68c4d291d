// ABOUTME: Navigation messages exchanged between screens and the root model
// ABOUTME: Screens ask to move; the root model resolves every move through the route table

package nav

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// NavigateMsg asks the root model to show Path.
type NavigateMsg struct {
	Path string
}

// BackMsg asks the root model to return to the previous screen.
type BackMsg struct{}

// Go returns a command that navigates to path.
func Go(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Back returns a command that navigates to the previous screen.
func Back() tea.Cmd {
	return func() tea.Msg { return BackMsg{} }
}

// Screen is one routed view.
type Screen interface {
	tea.Model
	// Keys lists the bindings shown in the footer.
	Keys() []key.Binding
}

// Typing is implemented by screens that can have a focused text field.
// While it reports true the root model leaves printable keys alone.
type Typing interface {
	Typing() bool
}
