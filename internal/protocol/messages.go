// internal/protocol/messages.go
package protocol

import (
	"encoding/json"
	"fmt"
)

// Client-to-server event names.
const (
	EvJoinRoom       = "join_room"
	EvRequestUsers   = "request_existing_users"
	EvCodeChange     = "code_change"
	EvLanguageChange = "language_change"
	EvLoadProblem    = "load_problem"
	EvLeaveRoom      = "leave_room"
	EvExecuteCode    = "execute_code"
	EvSubmitCode     = "submit_code"
)

// Server-to-client event names.
const (
	EvUserJoined      = "user_joined"
	EvExistingUsers   = "existing_users"
	EvRoomState       = "room_state"
	EvCodeUpdate      = "code_update"
	EvLanguageUpdated = "language_updated"
	EvProblemLoaded   = "problem_loaded"
	EvUserLeft        = "user_left"
	EvLobbyActivated  = "lobby_activated"
	EvExecutionResult = "execution_result"
	EvSubmitResult    = "submit_result"
)

// ValidationError reports a malformed or incomplete payload. Malformed
// payloads are answered with a targeted error event and never reach the
// registry or presence tracker.
type ValidationError struct {
	Event string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Event, e.Msg)
}

func invalid(event, msg string) error {
	return &ValidationError{Event: event, Msg: msg}
}

// Envelope is the inbound wire format: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

func (p *JoinRoomPayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvJoinRoom, "missing room_id")
	}
	if p.Username == "" {
		return invalid(EvJoinRoom, "missing username")
	}
	return nil
}

type RequestUsersPayload struct {
	RoomID string `json:"room_id"`
}

func (p *RequestUsersPayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvRequestUsers, "missing room_id")
	}
	return nil
}

type CodeChangePayload struct {
	RoomID      string `json:"room_id"`
	CodeContent string `json:"code_content"`
}

func (p *CodeChangePayload) Validate() error {
	// An empty code_content is a legal whole-document replacement; only the
	// room reference is mandatory.
	if p.RoomID == "" {
		return invalid(EvCodeChange, "missing room_id")
	}
	return nil
}

type LanguageChangePayload struct {
	RoomID   string `json:"room_id"`
	Language string `json:"language"`
}

func (p *LanguageChangePayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvLanguageChange, "missing room_id")
	}
	if p.Language == "" {
		return invalid(EvLanguageChange, "missing language")
	}
	return nil
}

type LoadProblemPayload struct {
	RoomID    string `json:"room_id"`
	ProblemID int64  `json:"problem_id"`
}

func (p *LoadProblemPayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvLoadProblem, "missing room_id")
	}
	if p.ProblemID <= 0 {
		return invalid(EvLoadProblem, "missing problem_id")
	}
	return nil
}

type LeaveRoomPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

func (p *LeaveRoomPayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvLeaveRoom, "missing room_id")
	}
	return nil
}

type ExecuteCodePayload struct {
	RoomID   string `json:"room_id"`
	Language string `json:"language"`
	Code     string `json:"code"`
	Input    string `json:"input,omitempty"`
}

func (p *ExecuteCodePayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvExecuteCode, "missing room_id")
	}
	if p.Language == "" {
		return invalid(EvExecuteCode, "missing language")
	}
	return nil
}

type SubmitCodePayload struct {
	RoomID   string `json:"room_id"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (p *SubmitCodePayload) Validate() error {
	if p.RoomID == "" {
		return invalid(EvSubmitCode, "missing room_id")
	}
	if p.Language == "" {
		return invalid(EvSubmitCode, "missing language")
	}
	return nil
}

// decode unmarshals raw into payload and runs its validation.
func decode[T interface{ Validate() error }](event string, raw json.RawMessage, payload T) error {
	if len(raw) == 0 {
		return invalid(event, "missing payload")
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return invalid(event, err.Error())
	}
	return payload.Validate()
}
