// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Colored badges for roles, account state and appointment status

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

func colors(level StatusLevel) (bg, fg lipgloss.Color) {
	switch level {
	case StatusOK:
		return BadgeOKBg, BadgeOKFg
	case StatusWarning:
		return BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		return BadgeCritBg, BadgeCritFg
	case StatusInfo:
		return BadgeInfoBg, BadgeInfoFg
	default:
		return BadgeNeutralBg, BadgeNeutralFg
	}
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	bg, fg := colors(level)
	style := lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true)

	return style.Render(text)
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	bg, _ := colors(level)
	style := lipgloss.NewStyle().Foreground(bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	default:
		return style.Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	bg, _ := colors(level)
	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(bg).Render(text))
}

// RoleLevel maps a staff role onto a badge color.
func RoleLevel(role session.Role) StatusLevel {
	switch role {
	case session.RoleAdmin:
		return StatusCritical
	case session.RoleDoctor:
		return StatusInfo
	case session.RoleReception:
		return StatusOK
	default:
		return StatusNeutral
	}
}

// RoleBadge renders the translated role name.
func RoleBadge(role session.Role) string {
	return Badge(RoleName(role), RoleLevel(role))
}

// RoleName translates a role for display.
func RoleName(role session.Role) string {
	if !role.Valid() {
		return string(role)
	}
	return i18n.T("role." + string(role))
}

// ActiveBadge renders an account's active flag.
func ActiveBadge(active bool) string {
	if active {
		return Badge(i18n.T("users.active"), StatusOK)
	}
	return Badge(i18n.T("users.inactive"), StatusNeutral)
}

// AppointmentLevel maps an appointment status onto a badge color.
func AppointmentLevel(status string) StatusLevel {
	switch status {
	case client.StatusScheduled:
		return StatusInfo
	case client.StatusConfirmed, client.StatusCompleted:
		return StatusOK
	case client.StatusCancelled:
		return StatusCritical
	case client.StatusNoShow:
		return StatusWarning
	default:
		return StatusNeutral
	}
}

// AppointmentStatusName translates an appointment status for display.
func AppointmentStatusName(status string) string {
	switch status {
	case client.StatusScheduled, client.StatusConfirmed, client.StatusCompleted, client.StatusCancelled:
		return i18n.T("status." + status)
	case client.StatusNoShow:
		return i18n.T("status.no_show")
	default:
		return status
	}
}

// AppointmentBadge renders an appointment status.
func AppointmentBadge(status string) string {
	return Badge(AppointmentStatusName(status), AppointmentLevel(status))
}
