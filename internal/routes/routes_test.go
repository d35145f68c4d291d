// ABOUTME: Tests for route matching and navigation resolution
// ABOUTME: Covers landing redirects, forced password change and forbidden routing

package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markalston/clinic-console/internal/authz"
	"github.com/markalston/clinic-console/internal/session"
)

func signedIn(role session.Role, mustChange bool) session.Snapshot {
	return session.Snapshot{
		Token:    "tok",
		Identity: &session.Identity{ID: "u1", Role: role, MustChangePassword: mustChange},
		Booted:   true,
	}
}

var anonymous = session.Snapshot{Booted: true}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/admin", LandingPath(session.RoleAdmin))
	assert.Equal(t, "/doctor", LandingPath(session.RoleDoctor))
	assert.Equal(t, "/reception", LandingPath(session.RoleReception))
	assert.Equal(t, "/login", LandingPath(session.Role("nurse")))
}

func TestMatch(t *testing.T) {
	r, params, ok := Match("/patients/p-42")
	require.True(t, ok)
	assert.Equal(t, PathPatient, r.Pattern)
	assert.Equal(t, "p-42", params["id"])

	r, params, ok = Match("/patients/p-42/records/new/")
	require.True(t, ok)
	assert.Equal(t, PathNewRecord, r.Pattern)
	assert.Equal(t, "p-42", params["id"])

	_, _, ok = Match("/nowhere")
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	assert.Equal(t, "/patients/abc", Build(PathPatient, "id", "abc"))
	assert.Equal(t, "/patients/abc/records/new", Build(PathNewRecord, "id", "abc"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		snap      session.Snapshot
		decision  authz.Decision
		path      string
	}{
		{"pending keeps requested path", "/admin", session.Snapshot{}, authz.Pending, "/admin"},
		{"anonymous on admin", "/admin", anonymous, authz.RedirectLogin, "/login"},
		{"anonymous on login", "/login", anonymous, authz.Authorized, "/login"},
		{"anonymous on root", "/", anonymous, authz.Authorized, "/login"},
		{"admin on admin", "/admin", signedIn(session.RoleAdmin, false), authz.Authorized, "/admin"},
		{"doctor on doctor", "/doctor", signedIn(session.RoleDoctor, false), authz.Authorized, "/doctor"},
		{"doctor on admin", "/admin", signedIn(session.RoleDoctor, false), authz.Forbidden, "/forbidden"},
		{"reception on users", "/admin/users", signedIn(session.RoleReception, false), authz.Forbidden, "/forbidden"},
		{"reception on new record", "/patients/p1/records/new", signedIn(session.RoleReception, false), authz.Forbidden, "/forbidden"},
		{"doctor on new record", "/patients/p1/records/new", signedIn(session.RoleDoctor, false), authz.Authorized, "/patients/p1/records/new"},
		{"signed in on login goes home", "/login", signedIn(session.RoleReception, false), authz.Authorized, "/reception"},
		{"signed in on root goes home", "", signedIn(session.RoleDoctor, false), authz.Authorized, "/doctor"},
		{"unknown path goes home", "/nowhere", signedIn(session.RoleAdmin, false), authz.Authorized, "/admin"},
		{"must change password", "/admin", signedIn(session.RoleAdmin, true), authz.Authorized, "/change-password"},
		{"must change password from login", "/login", signedIn(session.RoleDoctor, true), authz.Authorized, "/change-password"},
		{"change password screen itself", "/change-password", signedIn(session.RoleDoctor, true), authz.Authorized, "/change-password"},
		{"forbidden wins over password change", "/admin", signedIn(session.RoleDoctor, true), authz.Forbidden, "/forbidden"},
		{"forbidden screen is public", "/forbidden", anonymous, authz.Authorized, "/forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.requested, tt.snap)
			assert.Equal(t, tt.decision, got.Decision)
			assert.Equal(t, tt.path, got.Path)
		})
	}
}

func TestResolve_ParamsCarried(t *testing.T) {
	got := Resolve("/patients/p7", signedIn(session.RoleReception, false))
	assert.Equal(t, authz.Authorized, got.Decision)
	assert.Equal(t, "p7", got.Params["id"])
	assert.False(t, got.Redirected("/patients/p7"))
}

func TestResolve_Redirected(t *testing.T) {
	got := Resolve("/admin", anonymous)
	assert.True(t, got.Redirected("/admin"))
}

func TestResolve_ReevaluatesOnSessionChange(t *testing.T) {
	store := session.NewStore()
	assert.Equal(t, authz.Pending, Resolve("/admin", store.Snapshot()).Decision)

	store.SetBooted(true)
	assert.Equal(t, "/login", Resolve("/admin", store.Snapshot()).Path)

	store.Login("tok2", session.Identity{ID: "u2", Role: session.RoleAdmin})
	assert.Equal(t, "/admin", Resolve("/admin", store.Snapshot()).Path)

	store.Logout()
	assert.Equal(t, "/login", Resolve("/admin", store.Snapshot()).Path)
}
