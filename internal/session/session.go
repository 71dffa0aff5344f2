// Package session holds per-identity conversational state. A session
// belongs to exactly one identity for its whole life; turns append in
// order and are never rewritten.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/umbrellacorp/usiop/internal/model"
)

// IdentityMismatchError reports an attempt to append a turn issued by a
// different identity than the one the session is bound to. Recoverable
// by starting a new session; never silently ignored.
type IdentityMismatchError struct {
	SessionID string
	Bound     string
	Got       string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("session %s is bound to employee %s, got query from %s", e.SessionID, e.Bound, e.Got)
}

// Turn is one completed (query, verdict, response) triple.
type Turn struct {
	Query    model.Query   `json:"query"`
	Verdict  model.Verdict `json:"verdict"`
	Response string        `json:"response"`
	At       time.Time     `json:"at"`
}

// Session is the conversational context for one identity. A single
// session processes turns sequentially: Do holds the turn mutex from
// evaluation through append, so one query finishes before the next one
// for the same session starts. Independent sessions run concurrently
// without coordination.
type Session struct {
	id        string
	identity  model.Identity
	createdAt time.Time

	// turnMu serializes whole turns; mu guards the turn slice.
	turnMu sync.Mutex

	mu    sync.Mutex
	turns []Turn
	store *Store
}

// New creates a session bound to the given identity. A non-nil store
// persists each appended turn.
func New(id model.Identity, store *Store) *Session {
	return &Session{
		id:        "sess-" + uuid.NewString(),
		identity:  id,
		createdAt: time.Now().UTC(),
		store:     store,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Identity returns the identity the session is bound to.
func (s *Session) Identity() model.Identity { return s.identity }

// Do runs fn as one turn of the session. Turns of a single session run
// one at a time; a later query is not evaluated until the current turn
// has fully completed.
func (s *Session) Do(fn func()) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	fn()
}

// AppendTurn records a completed turn. The query's identity must match
// the session's; a mismatch leaves the session untouched.
func (s *Session) AppendTurn(q model.Query, v model.Verdict, response string) error {
	if q.Identity.EmployeeID != s.identity.EmployeeID {
		return &IdentityMismatchError{
			SessionID: s.id,
			Bound:     s.identity.EmployeeID,
			Got:       q.Identity.EmployeeID,
		}
	}

	turn := Turn{Query: q, Verdict: v, Response: response, At: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Persist first: a failed save records the turn nowhere, so memory
	// and sqlite never diverge.
	if s.store != nil {
		if err := s.store.SaveTurn(s.id, s.identity.EmployeeID, turn); err != nil {
			return fmt.Errorf("persist turn: %w", err)
		}
	}
	s.turns = append(s.turns, turn)
	return nil
}

// History returns a copy of the turns appended so far, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of completed turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Clear drops the in-memory history and any persisted turns.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	if s.store != nil {
		return s.store.Clear(s.id)
	}
	return nil
}
