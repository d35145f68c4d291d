// ABOUTME: Patient and medical record handlers for the sandbox API
// ABOUTME: Any staff member reads; front desk edits; doctors write records

package handlers

import (
	"net/http"

	"github.com/markalston/clinic-console/internal/sandbox/models"
)

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	h.writeJSON(w, http.StatusOK, h.store.ListPatients(r.URL.Query().Get("q"), offset, limit))
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.store.Patient(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePatientRequest
	if !decode(w, r, &req) {
		return
	}
	h.writeJSON(w, http.StatusCreated, h.store.CreatePatient(req))
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdatePatientRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.store.UpdatePatient(id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// DeletePatient removes a patient along with their records and appointments.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeletePatient(id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	recs, err := h.store.Records(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recs)
}

// CreateRecord attaches a record signed by the calling doctor.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CreateRecordRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := h.store.CreateRecord(id, caller(r).UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}
