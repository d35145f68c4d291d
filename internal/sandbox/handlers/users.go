// ABOUTME: Staff account handlers for the sandbox API
// ABOUTME: Admins manage users; reception can list the active doctors

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/session"
)

// ListUsers serves GET /users. Admins may filter by q and role. Other callers
// get the active doctors, which is all appointment booking needs.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if caller(r).Role != session.RoleAdmin {
		docs := h.store.ActiveDoctors()
		h.writeJSON(w, http.StatusOK, models.Page[models.User]{
			Total: len(docs),
			Limit: len(docs),
			Items: docs,
		})
		return
	}

	var role session.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := session.ParseRole(raw)
		if err != nil {
			writeError(w, "role must be one of admin, doctor, reception", http.StatusBadRequest)
			return
		}
		role = parsed
	}
	offset, limit := pageParams(r)
	h.writeJSON(w, http.StatusOK, h.store.ListUsers(r.URL.Query().Get("q"), role, offset, limit))
}

// CreateUser registers a staff account with a temporary password.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.CreateUser(req, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("User created", "user_id", user.ID, "role", user.Role, "by", caller(r).UserID)
	h.writeJSON(w, http.StatusCreated, user)
}

// UpdateUser edits a user's name or email.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.UpdateUser(id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// ChangeUserRole assigns a new role. Admins cannot change their own role.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !h.notSelf(w, r, id, "change your own role") {
		return
	}
	var req models.RoleRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.SetRole(id, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("User role changed", "user_id", id, "role", user.Role, "by", caller(r).UserID)
	h.writeJSON(w, http.StatusOK, user)
}

// SetUserStatus activates or deactivates a user. Deactivation ends the
// user's refresh sessions.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !h.notSelf(w, r, id, "deactivate yourself") {
		return
	}
	var req models.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.SetActive(id, *req.IsActive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !user.IsActive {
		n := h.sessions.RevokeUser(id)
		slog.Info("User deactivated", "user_id", id, "sessions_revoked", n, "by", caller(r).UserID)
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user and their refresh sessions.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !h.notSelf(w, r, id, "delete yourself") {
		return
	}
	if err := h.store.DeleteUser(id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.sessions.RevokeUser(id)
	slog.Info("User deleted", "user_id", id, "by", caller(r).UserID)
	w.WriteHeader(http.StatusNoContent)
}

// notSelf rejects an admin action aimed at the caller's own account.
func (h *Handler) notSelf(w http.ResponseWriter, r *http.Request, id, action string) bool {
	if caller(r).UserID == id {
		writeError(w, "You cannot "+action, http.StatusConflict)
		return false
	}
	return true
}
