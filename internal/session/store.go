package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"ad-image-studio/internal/adgen"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned when a seed or step is already running for the
	// session. The engine is non-reentrant; callers wait and retry.
	ErrBusy = errors.New("session has a step in progress")
)

type entry struct {
	mu           sync.Mutex // guards session
	session      *adgen.Session
	busy         *semaphore.Weighted
	lastActivity time.Time
}

// Store keys refinement sessions by an opaque id and funnels every mutation
// through Update, so the engine stays the single writer and at most one step
// runs per session at a time.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers a fresh empty session and returns its id.
func (s *Store) Create(maxIterations int) (string, *adgen.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	e := &entry{
		session:      adgen.NewSession(maxIterations),
		busy:         semaphore.NewWeighted(1),
		lastActivity: time.Now(),
	}
	s.entries[id] = e
	return id, e.session
}

// Ensure returns the session for a caller-chosen id, creating it when absent.
// The bot surface uses the chat id here; max iterations only applies to a
// newly created session.
func (s *Store) Ensure(id string, maxIterations int) *adgen.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.lastActivity = time.Now()
		return e.session
	}

	e := &entry{
		session:      adgen.NewSession(maxIterations),
		busy:         semaphore.NewWeighted(1),
		lastActivity: time.Now(),
	}
	s.entries[id] = e
	return e.session
}

// Snapshot returns a read-only copy for rendering. The copy is taken under the
// entry lock, so a render never observes a seed or step mid-append.
func (s *Store) Snapshot(id string) (*adgen.Session, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		e.lastActivity = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// Update runs fn against the live session. A second Update for the same id
// while one is outstanding fails fast with ErrBusy instead of queueing, which
// keeps long-running image calls from stacking up behind each other.
func (s *Store) Update(id string, fn func(*adgen.Session) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if !e.busy.TryAcquire(1) {
		return ErrBusy
	}
	defer e.busy.Release(1)

	s.mu.Lock()
	e.lastActivity = time.Now()
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete drops a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(buf)
}
