// internal/room/registry.go
package room

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/codecollab/codecollab/internal/models"
)

var (
	// ErrRoomNotFound is returned for any operation against an unknown room id.
	// Absence of a room is an expected state, not corruption.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned when creating a room with an id already in use.
	ErrRoomExists = errors.New("room already exists")
)

// Registry owns all live rooms. It is the only component that mutates room
// state; callers (the protocol handler, the REST layer) are responsible for
// broadcasting the results.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// NewRoomID generates a short room identifier: the first 12 hex chars of a
// random uuid, 48 bits of randomness. Create retries on the negligible
// chance of a collision with a live room.
func NewRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Create allocates a room with the default code template and language.
// An empty id asks the registry to generate one.
func (reg *Registry) Create(id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if id == "" {
		id = NewRoomID()
		for _, taken := reg.rooms[id]; taken; _, taken = reg.rooms[id] {
			id = NewRoomID()
		}
	} else if _, taken := reg.rooms[id]; taken {
		return nil, ErrRoomExists
	}

	r := newRoom(id)
	reg.rooms[id] = r
	return r, nil
}

// Get returns the room for id, or ErrRoomNotFound.
func (reg *Registry) Get(id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Delete removes a room. Rooms are never garbage-collected implicitly; this
// is the only way a room ends.
func (reg *Registry) Delete(id string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(reg.rooms, id)
	return nil
}

// SetCode replaces the room's shared document. Last writer wins; edits are
// whole-document replacements, never merged.
func (reg *Registry) SetCode(id, code string) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.codeContent = code
	r.mu.Unlock()
	return nil
}

// SetLanguage replaces the room's language tag.
func (reg *Registry) SetLanguage(id, lang string) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.language = lang
	r.mu.Unlock()
	return nil
}

// LoadProblem associates a problem with the room and overwrites the shared
// document with the problem's template. The overwrite is intentional
// "reset to template" semantics, not an accident: loading a problem starts
// everyone from the same starter code.
func (reg *Registry) LoadProblem(id string, p *models.Problem) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.problem = p
	r.codeContent = p.TemplateCode
	r.mu.Unlock()
	return nil
}

// ClearProblem detaches any loaded problem, returning the room to idle.
// The shared document is left untouched.
func (reg *Registry) ClearProblem(id string) error {
	r, err := reg.Get(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.problem = nil
	r.mu.Unlock()
	return nil
}
