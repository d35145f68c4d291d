// ABOUTME: Appointment handlers for the sandbox API
// ABOUTME: Doctors see and update only their own visits; front desk books them

package handlers

import (
	"net/http"
	"strings"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/session"
	"github.com/markalston/clinic-console/internal/validation"
)

// ListAppointments serves GET /appointments. A doctor's list is always
// limited to their own appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	params := r.URL.Query()
	q := client.AppointmentQuery{
		Offset:    offset,
		Limit:     limit,
		Sort:      params.Get("sort"),
		DoctorID:  params.Get("doctorId"),
		PatientID: params.Get("patientId"),
		Status:    params.Get("status"),
	}
	if err := validation.Struct(q); err != nil {
		writeError(w, strings.Split(validation.Message(err), "; "), http.StatusBadRequest)
		return
	}
	if c := caller(r); c.Role == session.RoleDoctor {
		q.DoctorID = c.UserID
	}
	h.writeJSON(w, http.StatusOK, h.store.ListAppointments(q))
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.visibleAppointment(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateApptRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.store.CreateAppointment(req, caller(r).UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateApptRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.store.UpdateAppointment(id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

// UpdateAppointmentStatus moves a visit through its workflow.
func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	current, ok := h.visibleAppointment(w, r)
	if !ok {
		return
	}
	var req models.ApptStatusRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.store.SetAppointmentStatus(current.ID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteAppointment(id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// visibleAppointment loads the {id} appointment. Doctors get 404 for
// appointments that are not theirs.
func (h *Handler) visibleAppointment(w http.ResponseWriter, r *http.Request) (models.Appointment, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return models.Appointment{}, false
	}
	a, err := h.store.Appointment(id)
	if err != nil {
		writeServiceError(w, err)
		return models.Appointment{}, false
	}
	if c := caller(r); c.Role == session.RoleDoctor && a.DoctorID != c.UserID {
		writeError(w, "appointment "+id, http.StatusNotFound)
		return models.Appointment{}, false
	}
	return a, true
}
