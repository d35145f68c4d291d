// ABOUTME: Serves the sandbox API contract the console is written against
// ABOUTME: The YAML document is compiled in and served with conditional GET support

package handlers

import (
	"bytes"
	_ "embed"
	"net/http"
	"time"
)

//go:embed openapi.yaml
var apiContract []byte

// contractModTime is fixed at startup; the document cannot change while running.
var contractModTime = time.Now().UTC().Truncate(time.Second)

// APIContract serves openapi.yaml. HEAD and If-Modified-Since are honoured.
func (h *Handler) APIContract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	http.ServeContent(w, r, "openapi.yaml", contractModTime, bytes.NewReader(apiContract))
}
