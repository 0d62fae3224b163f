// Package session holds in-memory pitch sessions for the step-wise HTTP
// deployment mode. Sessions live for the process lifetime; restart loses
// them, which is acceptable because the archive keeps the durable record.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vardan201/pitchagent/internal/workflow"
)

// Session pairs a workflow state with its serialization lock. State (the
// pointer and everything it points at) is guarded by mu: all machine calls
// and all reads of State must hold it, giving the single-writer guarantee
// the state machine requires.
type Session struct {
	ID        string
	State     *workflow.State
	CreatedAt time.Time

	mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Summary is the listing view of a session.
type Summary struct {
	ID              string          `json:"session_id"`
	Status          workflow.Status `json:"status"`
	TotalIterations int             `json:"total_iterations"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NotFoundError reports a lookup for an unknown or deleted session.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// Store is a concurrency-safe in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session for the given MVP description and returns
// it. The session ID doubles as the workflow request ID.
func (s *Store) Create(mvpDescription string) *Session {
	id := uuid.New().String()
	sess := &Session{
		ID:        id,
		State:     workflow.NewState(id, mvpDescription),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.sessions, id)
	return nil
}

// Update replaces the state of an existing session. The caller must hold
// the session's lock; the store lock is never held while waiting on a
// session lock, so the two never deadlock.
func (s *Store) Update(id string, st *workflow.State) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return &NotFoundError{ID: id}
	}
	sess.State = st
	return nil
}

// List returns summaries of all live sessions, newest first. State fields
// are read under each session's lock so listing is safe against in-flight
// pipeline runs.
func (s *Store) List() []Summary {
	s.mu.RLock()
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(live))
	for _, sess := range live {
		sess.mu.Lock()
		out = append(out, Summary{
			ID:              sess.ID,
			Status:          sess.State.Status,
			TotalIterations: sess.State.TotalIterations,
			CreatedAt:       sess.CreatedAt,
		})
		sess.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
