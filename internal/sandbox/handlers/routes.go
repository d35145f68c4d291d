// ABOUTME: Declarative route table for the sandbox API
// ABOUTME: Each route names its method, path, allowed roles and rate limit class

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markalston/clinic-console/internal/sandbox/middleware"
	"github.com/markalston/clinic-console/internal/session"
)

// LimitClass selects the rate limiter guarding a route.
type LimitClass int

const (
	LimitDefault LimitClass = iota
	LimitAuth
	LimitRefresh
	LimitWrite
)

// Route defines an API endpoint.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	// Public routes skip bearer authentication.
	Public bool
	// Roles limits the route to these roles. Nil admits any signed-in staff.
	Roles []session.Role
	Limit LimitClass
}

var (
	adminOnly  = []session.Role{session.RoleAdmin}
	doctorOnly = []session.Role{session.RoleDoctor}
	frontDesk  = []session.Role{session.RoleAdmin, session.RoleReception}
)

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & docs
		{Method: http.MethodGet, Path: "/health", Handler: h.Health, Public: true},
		{Method: http.MethodGet, Path: "/openapi.yaml", Handler: h.APIContract, Public: true},

		// Auth
		{Method: http.MethodPost, Path: "/auth/login", Handler: h.Login, Public: true, Limit: LimitAuth},
		{Method: http.MethodPost, Path: "/auth/refresh", Handler: h.Refresh, Public: true, Limit: LimitRefresh},
		{Method: http.MethodPost, Path: "/auth/logout", Handler: h.Logout, Public: true, Limit: LimitRefresh},
		{Method: http.MethodGet, Path: "/auth/me", Handler: h.Me},
		{Method: http.MethodPost, Path: "/auth/change-password", Handler: h.ChangePassword, Limit: LimitAuth},

		// Users
		{Method: http.MethodGet, Path: "/users", Handler: h.ListUsers, Roles: frontDesk},
		{Method: http.MethodPost, Path: "/users", Handler: h.CreateUser, Roles: adminOnly, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/users/{id}", Handler: h.UpdateUser, Roles: adminOnly, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/users/{id}/role", Handler: h.ChangeUserRole, Roles: adminOnly, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/users/{id}/status", Handler: h.SetUserStatus, Roles: adminOnly, Limit: LimitWrite},
		{Method: http.MethodDelete, Path: "/users/{id}", Handler: h.DeleteUser, Roles: adminOnly, Limit: LimitWrite},

		// Patients
		{Method: http.MethodGet, Path: "/patients", Handler: h.ListPatients},
		{Method: http.MethodGet, Path: "/patients/{id}", Handler: h.GetPatient},
		{Method: http.MethodPost, Path: "/patients", Handler: h.CreatePatient, Roles: frontDesk, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/patients/{id}", Handler: h.UpdatePatient, Roles: frontDesk, Limit: LimitWrite},
		{Method: http.MethodDelete, Path: "/patients/{id}", Handler: h.DeletePatient, Roles: frontDesk, Limit: LimitWrite},
		{Method: http.MethodGet, Path: "/patients/{id}/records", Handler: h.ListRecords},
		{Method: http.MethodPost, Path: "/patients/{id}/records", Handler: h.CreateRecord, Roles: doctorOnly, Limit: LimitWrite},

		// Appointments
		{Method: http.MethodGet, Path: "/appointments", Handler: h.ListAppointments},
		{Method: http.MethodGet, Path: "/appointments/{id}", Handler: h.GetAppointment},
		{Method: http.MethodPost, Path: "/appointments", Handler: h.CreateAppointment, Roles: frontDesk, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/appointments/{id}", Handler: h.UpdateAppointment, Roles: frontDesk, Limit: LimitWrite},
		{Method: http.MethodPatch, Path: "/appointments/{id}/status", Handler: h.UpdateAppointmentStatus, Limit: LimitWrite},
		{Method: http.MethodDelete, Path: "/appointments/{id}", Handler: h.DeleteAppointment, Roles: frontDesk, Limit: LimitWrite},
	}
}

// limiter pairs a rate limiter with the request key it counts.
type limiter struct {
	rl  *middleware.RateLimiter
	key func(*http.Request) string
}

func (h *Handler) limiters() map[LimitClass]limiter {
	if h.cfg == nil || !h.cfg.RateLimitEnabled {
		return nil
	}
	return map[LimitClass]limiter{
		LimitAuth:    {middleware.NewRateLimiter("auth", h.cfg.RateLimitAuth, time.Minute, h.metrics), middleware.ClientIP},
		LimitRefresh: {middleware.NewRateLimiter("refresh", h.cfg.RateLimitRefresh, time.Minute, h.metrics), middleware.RefreshKey},
		LimitWrite:   {middleware.NewRateLimiter("write", h.cfg.RateLimitWrite, time.Minute, h.metrics), middleware.UserOrIP},
		LimitDefault: {middleware.NewRateLimiter("default", h.cfg.RateLimitDefault, time.Minute, h.metrics), middleware.UserOrIP},
	}
}

// NewRouter registers every route on a chi router with its middleware:
// logging, CORS, metrics, then authentication, rate limiting and role checks.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	var origins []string
	if h.cfg != nil {
		origins = h.cfg.CORSAllowedOrigins
	}
	cors := middleware.CORS(origins)
	auth := middleware.Auth(middleware.AuthConfig{Tokens: h.tokens, Accounts: h.store})
	limiters := h.limiters()

	for _, rt := range h.Routes() {
		mws := []middleware.Middleware{middleware.LogRequest, cors, h.metrics.Instrument(rt.Path)}
		if !rt.Public {
			mws = append(mws, auth)
		}
		if l, ok := limiters[rt.Limit]; ok {
			mws = append(mws, middleware.RateLimit(l.rl, l.key))
		}
		if rt.Roles != nil {
			mws = append(mws, middleware.RequireRole(rt.Roles...))
		}
		r.Method(rt.Method, rt.Path, middleware.Chain(rt.Handler, mws...))
	}

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	r.Options("/*", middleware.Chain(func(w http.ResponseWriter, r *http.Request) {}, cors))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Cannot "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}
