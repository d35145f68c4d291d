// ABOUTME: Console route table and navigation resolution.
// ABOUTME: Combines the authorization gate with landing and password-change redirects.

package routes

import (
	"path"
	"strings"

	"github.com/markalston/clinic-console/internal/authz"
	"github.com/markalston/clinic-console/internal/session"
)

const (
	PathRoot                 = "/"
	PathLogin                = "/login"
	PathForbidden            = "/forbidden"
	PathChangePassword       = "/change-password"
	PathAdmin                = "/admin"
	PathAdminUsers           = "/admin/users"
	PathDoctor               = "/doctor"
	PathDoctorAppointments   = "/doctor/appointments"
	PathReception            = "/reception"
	PathReceptionAppointment = "/reception/appointments"
	PathPatients             = "/patients"
	PathPatient              = "/patients/:id"
	PathNewRecord            = "/patients/:id/records/new"
)

// Route is one navigable screen.
type Route struct {
	Pattern string
	// Public routes render without a session.
	Public bool
	// Roles permitted on a protected route.
	Roles []session.Role
}

var (
	anyStaff  = session.AllRoles
	admin     = []session.Role{session.RoleAdmin}
	doctor    = []session.Role{session.RoleDoctor}
	reception = []session.Role{session.RoleReception}
)

// Table is the full route table in match order.
var Table = []Route{
	{Pattern: PathLogin, Public: true},
	{Pattern: PathForbidden, Public: true},
	{Pattern: PathChangePassword, Roles: anyStaff},
	{Pattern: PathAdmin, Roles: admin},
	{Pattern: PathAdminUsers, Roles: admin},
	{Pattern: PathDoctor, Roles: doctor},
	{Pattern: PathDoctorAppointments, Roles: doctor},
	{Pattern: PathReception, Roles: reception},
	{Pattern: PathReceptionAppointment, Roles: reception},
	{Pattern: PathPatients, Roles: anyStaff},
	{Pattern: PathPatient, Roles: anyStaff},
	{Pattern: PathNewRecord, Roles: doctor},
}

// LandingPath returns the home screen for a role.
func LandingPath(role session.Role) string {
	switch role {
	case session.RoleAdmin:
		return PathAdmin
	case session.RoleDoctor:
		return PathDoctor
	case session.RoleReception:
		return PathReception
	default:
		return PathLogin
	}
}

// Match finds the route for a concrete path and extracts its parameters.
func Match(p string) (Route, map[string]string, bool) {
	p = normalize(p)
	for _, r := range Table {
		if params, ok := matchPattern(r.Pattern, p); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Build substitutes params into a pattern, e.g. Build(PathPatient, "id", "p1").
func Build(pattern string, kv ...string) string {
	out := pattern
	for i := 0; i+1 < len(kv); i += 2 {
		out = strings.Replace(out, ":"+kv[i], kv[i+1], 1)
	}
	return out
}

// Resolution is where a navigation request ends up.
type Resolution struct {
	Decision authz.Decision
	// Path is the concrete path to render.
	Path   string
	Route  Route
	Params map[string]string
}

// Redirected reports whether the resolution differs from what was requested.
func (r Resolution) Redirected(requested string) bool {
	return normalize(requested) != r.Path
}

// Resolve decides what to render for a requested path given the session.
// Pending resolutions keep the requested path and must render nothing.
func Resolve(requested string, snap session.Snapshot) Resolution {
	return resolve(normalize(requested), snap, 0)
}

func resolve(p string, snap session.Snapshot, depth int) Resolution {
	if !snap.Booted {
		return Resolution{Decision: authz.Pending, Path: p}
	}
	// Redirect chains are at most landing -> change-password.
	if depth > 3 {
		return Resolution{Decision: authz.RedirectLogin, Path: PathLogin, Route: Table[0]}
	}

	route, params, ok := Match(p)
	if !ok || p == PathRoot {
		return resolve(home(snap), snap, depth+1)
	}

	if route.Public {
		if route.Pattern == PathLogin && snap.Authenticated() {
			return resolve(home(snap), snap, depth+1)
		}
		return Resolution{Decision: authz.Authorized, Path: p, Route: route, Params: params}
	}

	switch d := authz.Evaluate(route.Roles, snap); d {
	case authz.RedirectLogin:
		login, _, _ := Match(PathLogin)
		return Resolution{Decision: d, Path: PathLogin, Route: login}
	case authz.Forbidden:
		forbidden, _, _ := Match(PathForbidden)
		return Resolution{Decision: d, Path: PathForbidden, Route: forbidden}
	}

	if snap.Identity.MustChangePassword && route.Pattern != PathChangePassword {
		return resolve(PathChangePassword, snap, depth+1)
	}
	return Resolution{Decision: authz.Authorized, Path: p, Route: route, Params: params}
}

func home(snap session.Snapshot) string {
	if !snap.Authenticated() {
		return PathLogin
	}
	return LandingPath(snap.Identity.Role)
}

func normalize(p string) string {
	if p == "" {
		return PathRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func matchPattern(pattern, p string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(p, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range ps {
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}
