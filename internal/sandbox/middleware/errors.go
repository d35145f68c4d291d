// ABOUTME: Rejection responses for the sandbox auth, role and rate gates
// ABOUTME: Writes the backend error body the console client decodes

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/markalston/clinic-console/internal/sandbox/models"
)

// reject stops a request at a gate. A 401 carries a Bearer challenge and
// no gate response is cached.
func reject(w http.ResponseWriter, message string, code int) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	if code == http.StatusUnauthorized {
		h.Set("WWW-Authenticate", `Bearer realm="clinic"`)
	}
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		StatusCode: code,
		Message:    message,
		Error:      http.StatusText(code),
	})
}
