// ABOUTME: Renders command results as text tables, JSON or YAML
// ABOUTME: The format comes from --output, CLINIC_OUTPUT or the config file

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/markalston/clinic-console/internal/tui/styles"
)

const cliTimeLayout = "2006-01-02 15:04"

// render writes v as JSON or YAML, or calls text for the human format.
func render(w io.Writer, v any, text func() string) error {
	switch settings.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, text())
		return err
	}
}

// newTable returns a bordered table with styled headers.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(cliTimeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
