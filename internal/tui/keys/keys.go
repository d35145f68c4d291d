// ABOUTME: Key bindings shared by the console screens
// ABOUTME: Help text is translated so the footer follows the selected language

package keys

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/markalston/clinic-console/internal/i18n"
)

func binding(help string, ks ...string) key.Binding {
	return key.NewBinding(key.WithKeys(ks...), key.WithHelp(ks[0], i18n.T(help)))
}

// Global bindings handled by the root model.
func Quit() key.Binding { return binding("keys.quit", "ctrl+c") }
func Logout() key.Binding { return binding("keys.logout", "ctrl+l") }

// Screen bindings.
func Up() key.Binding { return binding("keys.up", "up", "k") }
func Down() key.Binding { return binding("keys.down", "down", "j") }
func Select() key.Binding { return binding("keys.select", "enter") }
func Back() key.Binding { return binding("keys.back", "esc") }
func Search() key.Binding { return binding("keys.search", "/") }
func New() key.Binding { return binding("keys.new", "n") }
func Delete() key.Binding { return binding("keys.delete", "d") }
func Refresh() key.Binding { return binding("keys.refresh", "r") }
func Copy() key.Binding { return binding("keys.copy", "y") }
func Toggle() key.Binding { return binding("keys.toggle", "a") }
func Role() key.Binding { return binding("keys.role", "o") }
func Status() key.Binding { return binding("keys.status", "s") }
func Filter() key.Binding { return binding("keys.filter", "f") }
func NextPage() key.Binding {
	return key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", i18n.T("keys.next_page")))
}
func PrevPage() key.Binding {
	return key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", i18n.T("keys.prev_page")))
}
func Record() key.Binding { return binding("keys.record", "c") }
func Home() key.Binding { return binding("keys.home", "g") }
