// ABOUTME: Role authorization gate evaluated on every navigation.
// ABOUTME: Decides whether a session snapshot may render a role-restricted screen.

package authz

import (
	"slices"

	"github.com/markalston/clinic-console/internal/session"
)

// Decision is the outcome of evaluating a protected screen.
type Decision int

const (
	// Pending means bootstrap has not finished; render nothing yet.
	Pending Decision = iota
	// RedirectLogin means nobody is signed in.
	RedirectLogin
	// Forbidden means the signed-in role is not permitted.
	Forbidden
	// Authorized means the protected content may render.
	Authorized
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect-login"
	case Forbidden:
		return "forbidden"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Evaluate decides whether snap may render a screen restricted to permitted.
// An empty permitted set forbids every role.
func Evaluate(permitted []session.Role, snap session.Snapshot) Decision {
	if !snap.Booted {
		return Pending
	}
	if snap.Identity == nil {
		return RedirectLogin
	}
	if !slices.Contains(permitted, snap.Identity.Role) {
		return Forbidden
	}
	return Authorized
}

// Allows is a convenience for callers that only need a yes/no answer.
func Allows(permitted []session.Role, snap session.Snapshot) bool {
	return Evaluate(permitted, snap) == Authorized
}
