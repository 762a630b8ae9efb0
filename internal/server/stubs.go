package server

import (
	"net/http"
	"strings"

	"github.com/raysh454/devconsole/internal/logging"
)

// StubRoute is a registered path whose feature has not been built. It always
// answers 501 with a fixed message.
type StubRoute struct {
	Method  string
	Pattern string
	Feature string
}

// Message is the fixed body text for the route.
func (s StubRoute) Message() string {
	return "TODO: implement " + s.Feature + "."
}

// StubRoutes lists every unimplemented endpoint. Patterns are absolute.
var StubRoutes = []StubRoute{
	// Secrets
	{http.MethodGet, "/api/admin/secrets", "secret listing"},
	{http.MethodPost, "/api/admin/secrets", "secret creation"},
	{http.MethodPut, "/api/admin/secrets/{name}", "secret update"},
	{http.MethodDelete, "/api/admin/secrets/{name}", "secret deletion"},
	{http.MethodPost, "/api/admin/secrets/{name}/reveal", "secret reveal"},

	// AI admin
	{http.MethodGet, "/api/ai-admin/keys", "AI key listing"},
	{http.MethodPost, "/api/ai-admin/keys/rotate", "AI key rotation"},
	{http.MethodGet, "/api/ai-admin/providers", "AI provider status"},
	{http.MethodGet, "/api/ai-admin/usage", "AI usage reporting"},
	{http.MethodPost, "/api/ai-admin/backup", "backup"},
	{http.MethodPost, "/api/ai-admin/restore", "restore"},

	// Safety switch
	{http.MethodGet, "/api/safety-switch/status", "safety switch status"},
	{http.MethodPost, "/api/safety-switch/request", "safety switch change request"},
	{http.MethodPost, "/api/safety-switch/confirm", "safety switch confirmation"},
	{http.MethodPost, "/api/safety-switch/reset", "safety switch reset"},

	// Auto-improve
	{http.MethodGet, "/api/auto-improve/status", "auto-improve status"},
	{http.MethodPost, "/api/auto-improve/start", "auto-improve start"},
	{http.MethodPost, "/api/auto-improve/stop", "auto-improve stop"},
	{http.MethodGet, "/api/auto-improve/history", "auto-improve history"},

	// Dev tests
	{http.MethodPost, "/api/dev/tests/run", "test run"},
	{http.MethodGet, "/api/dev/tests/results", "test results"},

	// Files
	{http.MethodGet, "/api/files", "file listing"},
	{http.MethodGet, "/api/files/content", "file reading"},
	{http.MethodPut, "/api/files/content", "file writing"},
	{http.MethodDelete, "/api/files", "file deletion"},
}

func (s *Server) stubHandler(st StubRoute) http.HandlerFunc {
	msg := st.Message()
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("stub route hit",
			logging.F("method", st.Method),
			logging.F("pattern", st.Pattern))
		writeJSON(w, http.StatusNotImplemented, MessageResponse{Message: msg})
	}
}

// apiRelative strips the /api mount prefix from an absolute pattern.
func apiRelative(pattern string) string {
	return strings.TrimPrefix(pattern, "/api")
}
