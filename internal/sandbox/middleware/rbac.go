// ABOUTME: Role-based access control middleware for API endpoints
// ABOUTME: Gates endpoints by the set of staff roles allowed to call them

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/markalston/clinic-console/internal/session"
)

// RequireRole returns middleware that admits only callers whose role is in roles.
// Panics if roles is empty or names an unknown role (catches config errors at startup).
// Requests without claims are rejected (fail-closed).
func RequireRole(roles ...session.Role) func(http.HandlerFunc) http.HandlerFunc {
	if len(roles) == 0 {
		panic("RequireRole: no roles given")
	}
	for _, role := range roles {
		if !role.Valid() {
			panic(fmt.Sprintf("RequireRole: unknown role %q; valid roles: %v", role, session.AllRoles))
		}
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r)
			if claims == nil {
				reject(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, claims.Role) {
				slog.Warn("RBAC authorization denied",
					"path", sanitizePath(r.URL.Path),
					"method", r.Method,
					"required_roles", roles,
					"user_role", claims.Role,
					"user", claims.Email,
				)
				reject(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next(w, r)
		}
	}
}
