package logger

import (
	"net/http"
	"strings"
)

const maxLoggedBody = 1 << 16 // 64 KiB

// Only small JSON request bodies on allowlisted paths are logged.
func (m *Middleware) shouldLogBody(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if r.Body == nil || r.ContentLength > maxLoggedBody {
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	_, ok := m.bodyPaths[r.URL.Path]
	return ok
}
