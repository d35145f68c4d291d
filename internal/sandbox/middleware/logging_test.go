// ABOUTME: Tests for request logging middleware
// ABOUTME: Verifies request IDs and path sanitization against log injection

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline injection", "/patients\nAdmin access granted", "/patientsAdmin access granted"},
		{"carriage return", "/api/test\rmalicious", "/api/testmalicious"},
		{"CRLF", "/api/test\r\ninjected line", "/api/testinjected line"},
		{"DEL and tab", "/a\x7fb\tc", "/abc"},
		{"clean path unchanged", "/appointments/123/status", "/appointments/123/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizePath(tt.input); got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	return &buf
}

func TestLogRequest_GeneratesRequestID(t *testing.T) {
	buf := captureLogs(t)
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/patients", nil))

	id := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected a UUID request id, got %q", id)
	}
	if !strings.Contains(buf.String(), "status=201") {
		t.Errorf("Expected completion log with status, got %q", buf.String())
	}
}

func TestLogRequest_ReusesClientRequestID(t *testing.T) {
	captureLogs(t)
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {})

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != id {
		t.Errorf("X-Request-ID = %q, want %q", got, id)
	}
}

func TestLogRequest_ReplacesForgedRequestID(t *testing.T) {
	captureLogs(t)
	handler := LogRequest(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-Request-ID", "x\ninjected")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("X-Request-ID"); strings.Contains(got, "injected") {
		t.Errorf("Expected forged id to be replaced, got %q", got)
	}
}
