// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/codecollab/codecollab/internal/auth"
	"github.com/codecollab/codecollab/internal/room"
)

// CreateRoomHandler allocates a room with the default template and language
// and returns its id. Requires a logged-in user.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		writeError(w, http.StatusUnauthorized, "missing auth_token")
		return
	}
	if _, err := auth.AuthenticateJWT(extractCookieToken(cookie, "auth_token")); err != nil {
		writeError(w, http.StatusForbidden, "invalid token")
		return
	}

	rm, err := s.Registry.Create("")
	if err != nil {
		s.Log.Warnf("create room: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	s.Log.Infof("created room %s", rm.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"room_id": rm.ID})
}

// RoomHandler routes GET/PUT/DELETE /api/rooms/{id}.
func (s *Server) RoomHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getRoom(w, r, id)
	case http.MethodPut:
		s.updateRoomCode(w, r, id)
	case http.MethodDelete:
		s.deleteRoom(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request, id string) {
	rm, err := s.Registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	snap := rm.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"room":  snap,
		"users": s.Presence.Members(id),
	})
}

// updateRoomCode is the request/response path for code updates. It shares
// last-writer-wins semantics with the realtime code_change event but does
// not broadcast; REST consumers poll the snapshot.
func (s *Server) updateRoomCode(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		CodeContent *string `json:"code_content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CodeContent == nil {
		writeError(w, http.StatusBadRequest, "no code_content provided")
		return
	}

	if err := s.Registry.SetCode(id, *req.CodeContent); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "code updated"})
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Registry.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	s.Log.Infof("deleted room %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "room deleted"})
}
