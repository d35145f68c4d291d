// ABOUTME: HTTP handlers for the clinic sandbox API
// ABOUTME: Shared handler state plus JSON, validation and error helpers

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markalston/clinic-console/internal/sandbox/config"
	"github.com/markalston/clinic-console/internal/sandbox/middleware"
	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/sandbox/services"
	"github.com/markalston/clinic-console/internal/validation"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	cfg      *config.Config
	store    *services.Store
	tokens   *services.TokenService
	sessions *services.SessionService
	metrics  *middleware.Metrics
	started  time.Time
}

func NewHandler(cfg *config.Config, store *services.Store, tokens *services.TokenService, sessions *services.SessionService, metrics *middleware.Metrics) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		tokens:   tokens,
		sessions: sessions,
		metrics:  metrics,
		started:  time.Now(),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error body. message is a string or a list of
// validation messages.
func writeError(w http.ResponseWriter, message any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		StatusCode: code,
		Message:    message,
		Error:      http.StatusText(code),
	})
}

// writeServiceError maps a service error onto a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, services.ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInactive):
		code = http.StatusUnauthorized
	}
	if code == http.StatusInternalServerError {
		slog.Error("Unhandled service error", "error", err)
		writeError(w, "Internal server error", code)
		return
	}
	writeError(w, serviceMessage(err), code)
}

// serviceMessage drops the sentinel prefix ("not found: user x" -> "user x").
func serviceMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{services.ErrNotFound, services.ErrConflict, services.ErrInvalid} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func decode[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		writeError(w, strings.Split(validation.Message(err), "; "), http.StatusBadRequest)
		return false
	}
	return true
}

// pathID returns the validated {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := services.ValidateID(id); err != nil {
		writeError(w, serviceMessage(err), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// pageParams reads offset and limit query parameters. Missing or malformed
// values are zero.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return max(offset, 0), max(limit, 0)
}

// caller returns the authenticated user. Routes behind Auth always have one.
func caller(r *http.Request) *middleware.UserClaims {
	return middleware.GetUserClaims(r)
}
