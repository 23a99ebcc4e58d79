// internal/protocol/handler.go
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/bus"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/models"
	"github.com/codecollab/codecollab/internal/presence"
	"github.com/codecollab/codecollab/internal/room"
)

// ProblemStore supplies problems for load_problem events. The database
// package implements it; tests substitute a fake.
type ProblemStore interface {
	GetProblem(ctx context.Context, id int64) (*models.Problem, error)
}

// ProblemStoreFunc adapts a lookup function to the ProblemStore interface.
type ProblemStoreFunc func(ctx context.Context, id int64) (*models.Problem, error)

func (f ProblemStoreFunc) GetProblem(ctx context.Context, id int64) (*models.Problem, error) {
	return f(ctx, id)
}

// session records which room a connection has joined, and under which name.
type session struct {
	roomID   string
	username string
}

// Handler is the state machine translating inbound events into registry and
// presence mutations plus outbound broadcasts. Handling is serialized per
// room: one event at a time mutates a given room's state and publishes its
// broadcasts. Judging and execution run outside that serialization so a
// slow sandbox never stalls edits; their result broadcasts stay ordered
// because the bus delivers under its own lock. Each submission yields
// exactly one verdict event.
type Handler struct {
	log      *logrus.Logger
	registry *room.Registry
	presence *presence.Tracker
	bus      *bus.Bus
	judge    *judge.Engine
	problems ProblemStore

	// OnVerdict, when set, observes every completed submission (used to feed
	// the verdict history queue). Never blocks the broadcast.
	OnVerdict func(roomID string, res judge.Result)

	mu        sync.Mutex
	roomLocks map[string]*roomLock
	sessions  map[string]session
}

// roomLock serializes event handling for one room. Entries are reference
// counted so the lock map does not accumulate ids of deleted rooms or of
// unknown rooms named by rejected events.
type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewHandler(log *logrus.Logger, reg *room.Registry, tracker *presence.Tracker, b *bus.Bus, eng *judge.Engine, problems ProblemStore) *Handler {
	return &Handler{
		log:       log,
		registry:  reg,
		presence:  tracker,
		bus:       b,
		judge:     eng,
		problems:  problems,
		roomLocks: make(map[string]*roomLock),
		sessions:  make(map[string]session),
	}
}

// lockRoom acquires the room's serialization lock, creating it on first use.
func (h *Handler) lockRoom(roomID string) *roomLock {
	h.mu.Lock()
	l, ok := h.roomLocks[roomID]
	if !ok {
		l = &roomLock{}
		h.roomLocks[roomID] = l
	}
	l.refs++
	h.mu.Unlock()

	l.mu.Lock()
	return l
}

// unlockRoom releases the lock and drops the map entry once nobody holds or
// waits on it.
func (h *Handler) unlockRoom(roomID string, l *roomLock) {
	l.mu.Unlock()

	h.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(h.roomLocks, roomID)
	}
	h.mu.Unlock()
}

// HandleMessage dispatches one inbound frame. Malformed envelopes and
// payloads are answered with a targeted error event; they never mutate
// state.
func (h *Handler) HandleMessage(ctx context.Context, conn *bus.Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		conn.SendError("invalid message envelope")
		return
	}

	var err error
	switch env.Event {
	case EvJoinRoom:
		err = h.handleJoin(conn, env.Data)
	case EvRequestUsers:
		err = h.handleRequestUsers(conn, env.Data)
	case EvCodeChange:
		err = h.handleCodeChange(conn, env.Data)
	case EvLanguageChange:
		err = h.handleLanguageChange(conn, env.Data)
	case EvLoadProblem:
		err = h.handleLoadProblem(ctx, conn, env.Data)
	case EvLeaveRoom:
		err = h.handleLeave(conn, env.Data)
	case EvExecuteCode:
		err = h.handleExecute(conn, env.Data)
	case EvSubmitCode:
		err = h.handleSubmit(conn, env.Data)
	default:
		err = fmt.Errorf("unknown event %q", env.Event)
	}

	if err != nil {
		h.log.Warnf("protocol: conn %s event %s rejected: %v", conn.ID, env.Event, err)
		conn.SendError(err.Error())
	}
}

func (h *Handler) handleJoin(conn *bus.Conn, raw json.RawMessage) error {
	var p JoinRoomPayload
	if err := decode(EvJoinRoom, raw, &p); err != nil {
		return err
	}

	lock := h.lockRoom(p.RoomID)
	defer h.unlockRoom(p.RoomID, lock)

	// A name already held by a different live connection is rejected; only
	// the same connection may re-join idempotently.
	if existing := h.presence.Lookup(p.RoomID, p.Username); existing != nil && existing.ConnID != conn.ID {
		return fmt.Errorf("username %q is already taken in room %s", p.Username, p.RoomID)
	}

	// Membership and subscription move together: a member must receive the
	// room's broadcasts, and vice versa.
	joined := h.presence.Join(p.RoomID, presence.Member{ConnID: conn.ID, Username: p.Username})
	h.bus.Subscribe(p.RoomID, conn)

	h.mu.Lock()
	h.sessions[conn.ID] = session{roomID: p.RoomID, username: p.Username}
	h.mu.Unlock()

	if joined {
		h.bus.Publish(p.RoomID, EvUserJoined, map[string]string{"username": p.Username}, conn)
	}
	h.log.Infof("protocol: %s joined room %s as %q", conn.ID, p.RoomID, p.Username)

	// The bus retains no history, so the joiner gets an explicit snapshot as
	// a targeted message. A join may reference a room that was never created;
	// nothing is auto-created here and there is no state to snapshot.
	if rm, err := h.registry.Get(p.RoomID); err == nil {
		conn.Send(EvRoomState, h.roomStatePayload(rm))
	}
	return nil
}

func (h *Handler) handleRequestUsers(conn *bus.Conn, raw json.RawMessage) error {
	var p RequestUsersPayload
	if err := decode(EvRequestUsers, raw, &p); err != nil {
		return err
	}
	conn.Send(EvExistingUsers, map[string]any{"users": h.presence.Members(p.RoomID)})
	return nil
}

func (h *Handler) handleCodeChange(conn *bus.Conn, raw json.RawMessage) error {
	var p CodeChangePayload
	if err := decode(EvCodeChange, raw, &p); err != nil {
		return err
	}

	lock := h.lockRoom(p.RoomID)
	defer h.unlockRoom(p.RoomID, lock)

	// Edits to unknown rooms are rejected rather than lazily creating one:
	// rooms are only born through the create-room call.
	if err := h.registry.SetCode(p.RoomID, p.CodeContent); err != nil {
		return err
	}
	h.bus.Publish(p.RoomID, EvCodeUpdate, map[string]string{"code_content": p.CodeContent}, conn)
	return nil
}

func (h *Handler) handleLanguageChange(conn *bus.Conn, raw json.RawMessage) error {
	var p LanguageChangePayload
	if err := decode(EvLanguageChange, raw, &p); err != nil {
		return err
	}

	lock := h.lockRoom(p.RoomID)
	defer h.unlockRoom(p.RoomID, lock)

	if err := h.registry.SetLanguage(p.RoomID, p.Language); err != nil {
		return err
	}
	h.bus.Publish(p.RoomID, EvLanguageUpdated, map[string]string{"language": p.Language}, conn)
	return nil
}

func (h *Handler) handleLoadProblem(ctx context.Context, conn *bus.Conn, raw json.RawMessage) error {
	var p LoadProblemPayload
	if err := decode(EvLoadProblem, raw, &p); err != nil {
		return err
	}

	problem, err := h.problems.GetProblem(ctx, p.ProblemID)
	if err != nil {
		return fmt.Errorf("problem %d not found", p.ProblemID)
	}

	lock := h.lockRoom(p.RoomID)
	defer h.unlockRoom(p.RoomID, lock)

	if err := h.registry.LoadProblem(p.RoomID, problem); err != nil {
		return err
	}
	rm, err := h.registry.Get(p.RoomID)
	if err != nil {
		return err
	}
	h.log.Infof("protocol: room %s loaded problem %d (%s)", p.RoomID, problem.ID, problem.Title)
	h.bus.Publish(p.RoomID, EvProblemLoaded, h.roomStatePayload(rm), nil)
	return nil
}

func (h *Handler) handleLeave(conn *bus.Conn, raw json.RawMessage) error {
	var p LeaveRoomPayload
	if err := decode(EvLeaveRoom, raw, &p); err != nil {
		return err
	}
	h.leaveRoom(conn, p.RoomID)
	return nil
}

// HandleDisconnect runs the leave flow for a connection whose transport
// closed without an explicit leave_room. Both exits leave the room in the
// same state; if an explicit leave already ran, this is a no-op.
func (h *Handler) HandleDisconnect(conn *bus.Conn) {
	h.mu.Lock()
	sess, ok := h.sessions[conn.ID]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.leaveRoom(conn, sess.roomID)
}

// leaveRoom removes the connection from presence and the bus, returns the
// room to the lobby, and announces the departure. Anyone leaving resets the
// shared problem context: the room has a single problem context, not one per
// participant.
func (h *Handler) leaveRoom(conn *bus.Conn, roomID string) {
	lock := h.lockRoom(roomID)
	defer h.unlockRoom(roomID, lock)

	member := h.presence.Leave(roomID, conn.ID)
	h.bus.Unsubscribe(roomID, conn)

	h.mu.Lock()
	delete(h.sessions, conn.ID)
	h.mu.Unlock()

	if member == nil {
		// Disconnects race with explicit leaves; the second one is a no-op.
		return
	}

	if err := h.registry.ClearProblem(roomID); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		h.log.Warnf("protocol: clear problem for room %s: %v", roomID, err)
	}

	h.log.Infof("protocol: %q left room %s", member.Username, roomID)
	h.bus.Publish(roomID, EvUserLeft, map[string]string{"username": member.Username}, nil)
	h.bus.Publish(roomID, EvLobbyActivated, map[string]any{}, nil)
}

func (h *Handler) handleExecute(conn *bus.Conn, raw json.RawMessage) error {
	var p ExecuteCodePayload
	if err := decode(EvExecuteCode, raw, &p); err != nil {
		return err
	}
	if _, err := h.registry.Get(p.RoomID); err != nil {
		return err
	}

	// Gateway calls block for up to the runner timeout; they run outside the
	// room serialization so edits keep flowing. There is no way to cancel the
	// run once issued, and a disconnect does not abort it: the result is
	// still broadcast to remaining members.
	go func() {
		result := h.judge.Run(context.Background(), p.Language, p.Code, p.Input)
		h.bus.Publish(p.RoomID, EvExecutionResult, result, nil)
	}()
	return nil
}

func (h *Handler) handleSubmit(conn *bus.Conn, raw json.RawMessage) error {
	var p SubmitCodePayload
	if err := decode(EvSubmitCode, raw, &p); err != nil {
		return err
	}
	rm, err := h.registry.Get(p.RoomID)
	if err != nil {
		return err
	}
	problem := rm.Problem()

	go func() {
		// Submit validates the problem itself (missing problem or empty test
		// cases produce an immediate Error verdict without a gateway call).
		// Exactly one verdict event per submission, to the whole room.
		result := h.judge.Submit(context.Background(), p.Language, p.Code, problem)
		h.bus.Publish(p.RoomID, EvSubmitResult, result, nil)
		if h.OnVerdict != nil {
			h.OnVerdict(p.RoomID, result)
		}
	}()
	return nil
}

func (h *Handler) roomStatePayload(rm *room.Room) map[string]any {
	snap := rm.Snapshot()
	return map[string]any{
		"room":  snap,
		"users": h.presence.Members(rm.ID),
	}
}
