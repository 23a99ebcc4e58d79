// internal/handlers/room_test.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/auth"
	"github.com/codecollab/codecollab/internal/bus"
	"github.com/codecollab/codecollab/internal/presence"
	"github.com/codecollab/codecollab/internal/room"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(log, room.NewRegistry(), presence.NewTracker(), bus.New(), nil)
}

func authCookie(t *testing.T) string {
	t.Helper()
	if err := auth.Init(); err != nil {
		t.Fatalf("auth init: %v", err)
	}
	token, err := auth.CreateJWT(uuid.NewString())
	if err != nil {
		t.Fatalf("create jwt: %v", err)
	}
	return "auth_token=" + token
}

func TestCreateRoom(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	req.Header.Set("Cookie", authCookie(t))
	w := httptest.NewRecorder()
	s.CreateRoomHandler(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["room_id"]) != 12 {
		t.Fatalf("expected 12-char room id, got %q", resp["room_id"])
	}
	if _, err := s.Registry.Get(resp["room_id"]); err != nil {
		t.Fatalf("room not registered: %v", err)
	}
}

func TestCreateRoomRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	w := httptest.NewRecorder()
	s.CreateRoomHandler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	req.Header.Set("Cookie", "auth_token=not-a-jwt")
	w = httptest.NewRecorder()
	s.CreateRoomHandler(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCreateRoomMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	w := httptest.NewRecorder()
	s.CreateRoomHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestGetRoomSnapshot(t *testing.T) {
	s := newTestServer(t)
	rm, err := s.Registry.Create("")
	if err != nil {
		t.Fatal(err)
	}
	s.Presence.Join(rm.ID, presence.Member{ConnID: "c1", Username: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+rm.ID, nil)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Room  room.Snapshot     `json:"room"`
		Users []presence.Member `json:"users"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Room.ID != rm.ID {
		t.Fatalf("expected room %s, got %s", rm.ID, resp.Room.ID)
	}
	if resp.Room.CodeContent != room.DefaultCodeTemplate {
		t.Fatalf("unexpected code content %q", resp.Room.CodeContent)
	}
	if len(resp.Users) != 1 || resp.Users[0].Username != "alice" {
		t.Fatalf("unexpected users %+v", resp.Users)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateRoomCode(t *testing.T) {
	s := newTestServer(t)
	rm, err := s.Registry.Create("")
	if err != nil {
		t.Fatal(err)
	}

	body := strings.NewReader(`{"code_content":"x = 1"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+rm.ID, body)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rm.CodeContent() != "x = 1" {
		t.Fatalf("code not updated, got %q", rm.CodeContent())
	}
}

func TestUpdateRoomCodeEmptyStringIsLegal(t *testing.T) {
	s := newTestServer(t)
	rm, err := s.Registry.Create("")
	if err != nil {
		t.Fatal(err)
	}

	body := strings.NewReader(`{"code_content":""}`)
	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+rm.ID, body)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if rm.CodeContent() != "" {
		t.Fatalf("expected empty document, got %q", rm.CodeContent())
	}
}

func TestUpdateRoomCodeMissingField(t *testing.T) {
	s := newTestServer(t)
	rm, err := s.Registry.Create("")
	if err != nil {
		t.Fatal(err)
	}

	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+rm.ID, body)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteRoom(t *testing.T) {
	s := newTestServer(t)
	rm, err := s.Registry.Create("")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+rm.ID, nil)
	w := httptest.NewRecorder()
	s.RoomHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, err := s.Registry.Get(rm.ID); err == nil {
		t.Fatal("room still registered after delete")
	}

	// Deleting again reports not found.
	w = httptest.NewRecorder()
	s.RoomHandler(w, httptest.NewRequest(http.MethodDelete, "/api/rooms/"+rm.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRoomHandlerBadPath(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/rooms/", "/api/rooms/abc/extra"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.RoomHandler(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("path %s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestExtractCookieToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"auth_token=abc123", "abc123"},
		{"other=1; auth_token=abc123; more=2", "abc123"},
		{"other=1", ""},
	}
	for _, tc := range cases {
		if got := extractCookieToken(tc.header, "auth_token"); got != tc.want {
			t.Fatalf("header %q: expected %q, got %q", tc.header, tc.want, got)
		}
	}
}
