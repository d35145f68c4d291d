// ABOUTME: Compact metric block widget for the role home screens
// ABOUTME: Draws an icon, a title in the border, a value and a subtitle

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/clinic-console/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: lipgloss.Color("#6B7280"),
		TitleColor:  lipgloss.Color("#0EA5E9"),
		ValueColor:  lipgloss.Color("#F9FAFB"),
	}
}

// MetricBlock renders a compact metric display block
func MetricBlock(icon icons.Icon, title, value, subtitle string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = DefaultMetricBlockConfig().Width
	}

	// border plus one space on each side
	innerWidth := config.Width - 4

	titleStr := Truncate(fmt.Sprintf("%s %s", icon.String(), title), innerWidth-1)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	borderStyle := lipgloss.NewStyle().Foreground(config.BorderColor)

	top := borderStyle.Render("┌─ ") +
		titleStyle.Render(titleStr) +
		borderStyle.Render(" "+strings.Repeat("─", max(0, config.Width-5-lipgloss.Width(titleStr)))+"┐")

	line := func(s string, style lipgloss.Style) string {
		s = Truncate(s, innerWidth)
		pad := strings.Repeat(" ", max(0, innerWidth-lipgloss.Width(s)))
		return borderStyle.Render("│ ") + style.Render(s) + pad + borderStyle.Render(" │")
	}

	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	bottom := borderStyle.Render("└" + strings.Repeat("─", config.Width-2) + "┘")

	return strings.Join([]string{
		top,
		line(value, valueStyle),
		line(subtitle, subtitleStyle),
		bottom,
	}, "\n")
}

// CountBlock renders a simple count metric. A negative count is shown as
// unavailable.
func CountBlock(icon icons.Icon, title string, count int, label string, config MetricBlockConfig) string {
	value := "--"
	if count >= 0 {
		value = fmt.Sprintf("%d", count)
	}
	return MetricBlock(icon, title, value, label, config)
}

// Truncate shortens s to maxLen display cells with an ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:min(len(runes), maxLen)])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
