// internal/room/room.go
package room

import (
	"sync"

	"github.com/codecollab/codecollab/internal/models"
)

// DefaultCodeTemplate is the starter content for a freshly created room.
const DefaultCodeTemplate = "# Welcome to your CodeCollab room\nprint('Hello, friend!')"

// DefaultLanguage is the language a room starts in.
const DefaultLanguage = "python"

// Room is one collaborative session. CodeContent is a whole-document value
// with last-writer-wins semantics; Problem is nil while the room is idle.
// All mutation goes through the Registry, which holds the room lock.
type Room struct {
	ID string

	mu          sync.Mutex
	codeContent string
	language    string
	problem     *models.Problem
}

// Snapshot is a copied, lock-free view of a room, safe to marshal and
// broadcast after the room lock has been released.
type Snapshot struct {
	ID          string          `json:"id"`
	CodeContent string          `json:"code_content"`
	Language    string          `json:"language"`
	ProblemID   *int64          `json:"problem_id,omitempty"`
	Problem     *models.Problem `json:"problem,omitempty"`
}

func newRoom(id string) *Room {
	return &Room{
		ID:          id,
		codeContent: DefaultCodeTemplate,
		language:    DefaultLanguage,
	}
}

// Snapshot returns the room's current state. The embedded problem is the
// client-facing view with hidden test cases stripped.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		ID:          r.ID,
		CodeContent: r.codeContent,
		Language:    r.language,
	}
	if r.problem != nil {
		id := r.problem.ID
		view := r.problem.PublicView()
		snap.ProblemID = &id
		snap.Problem = &view
	}
	return snap
}

// Problem returns the currently loaded problem, or nil while idle. The
// returned pointer is shared; problems are immutable once loaded.
func (r *Room) Problem() *models.Problem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.problem
}

// Language returns the room's current language tag.
func (r *Room) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language
}

// CodeContent returns the current shared document.
func (r *Room) CodeContent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codeContent
}
