// ABOUTME: Health endpoint for the sandbox API
// ABOUTME: Reports status, uptime and the size of each data set

package handlers

import (
	"net/http"
	"time"

	"github.com/markalston/clinic-console/internal/client"
)

// Health returns API status with record counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, client.Health{
		Status:       "ok",
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Users:        h.store.ListUsers("", "", 0, 1).Total,
		Patients:     h.store.ListPatients("", 0, 1).Total,
		Appointments: h.store.ListAppointments(client.AppointmentQuery{Limit: 1}).Total,
	})
}
