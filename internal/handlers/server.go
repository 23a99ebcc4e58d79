// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/bus"
	"github.com/codecollab/codecollab/internal/presence"
	"github.com/codecollab/codecollab/internal/protocol"
	"github.com/codecollab/codecollab/internal/room"
)

// Server bundles the in-memory collaboration state shared by the REST and
// websocket layers.
type Server struct {
	Log      *logrus.Logger
	Registry *room.Registry
	Presence *presence.Tracker
	Bus      *bus.Bus
	Protocol *protocol.Handler
}

func NewServer(log *logrus.Logger, reg *room.Registry, tracker *presence.Tracker, b *bus.Bus, proto *protocol.Handler) *Server {
	return &Server{
		Log:      log,
		Registry: reg,
		Presence: tracker,
		Bus:      b,
		Protocol: proto,
	}
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response. REST errors stay local:
// nothing is ever broadcast from this layer.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// extractCookieToken extracts a named cookie value from the Cookie header,
// or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
