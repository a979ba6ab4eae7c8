package auth

import (
	"sync"
	"time"

	"github.com/diabetecam/diabetecam/gate"
	"github.com/google/uuid"
)

// User is the identity attached to a logged-in session.
type User struct {
	ID          uint
	Username    string
	FullName    string
	Role        gate.Role
	Permissions gate.PermissionSet
}

// Session is the per-client authentication state plus scratch values
// (trained models, last results) that live as long as the session.
type Session struct {
	ID        string
	ExpiresAt time.Time

	mu       sync.RWMutex
	loggedIn bool
	user     *User
	values   map[string]any

	task sync.Mutex
}

func newSession(ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
		values:    map[string]any{},
	}
}

// IsLoggedIn implements gate.Subject.
func (s *Session) IsLoggedIn() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Permissions implements gate.Subject.
func (s *Session) Permissions() gate.PermissionSet {
	if s == nil {
		return gate.PermissionSet{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.user.Permissions == nil {
		return gate.PermissionSet{}
	}
	return s.user.Permissions
}

// User returns the logged-in user or nil.
func (s *Session) User() *User {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Set(key string, v any) {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

func (s *Session) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// Value fetches a typed session value.
func Value[T any](s *Session, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// TryBegin claims the session for a long-running task such as model training.
// It returns false when another task of the same session is still running.
func (s *Session) TryBegin() (done func(), ok bool) {
	if !s.task.TryLock() {
		return nil, false
	}
	return s.task.Unlock, true
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DefaultMaxSessions bounds the store when no explicit limit is given.
const DefaultMaxSessions = 10000

// Store keeps logged-in sessions in memory, keyed by id. Anonymous sessions
// are never stored.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	ttl       time.Duration
	max       int
	lastSweep time.Time
}

// NewStore creates an empty store; sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: map[string]*Session{}, ttl: ttl, max: DefaultMaxSessions, lastSweep: time.Now()}
}

// SetMax changes the session limit. Values below 1 restore the default.
func (st *Store) SetMax(n int) {
	if n < 1 {
		n = DefaultMaxSessions
	}
	st.mu.Lock()
	st.max = n
	st.mu.Unlock()
}

// Anonymous returns a transient logged-out session. It is not registered,
// so requests without a cookie cost no memory after they complete.
func (st *Store) Anonymous() *Session {
	return newSession(st.ttl)
}

// Get returns a live session; expired ones are dropped.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(time.Now()) {
		st.Delete(id)
		return nil, false
	}
	return s, true
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// login replaces old (if any) with a fresh logged-in session.
func (st *Store) login(old *Session, u *User) *Session {
	s := newSession(st.ttl)
	s.loggedIn = true
	s.user = u
	now := time.Now()
	st.mu.Lock()
	if old != nil {
		delete(st.sessions, old.ID)
	}
	st.sweepLocked(now)
	if len(st.sessions) >= st.max {
		st.purgeLocked(now)
		st.evictOldestLocked()
	}
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *Store) sweepLocked(now time.Time) {
	if now.Sub(st.lastSweep) < time.Minute {
		return
	}
	st.purgeLocked(now)
}

func (st *Store) purgeLocked(now time.Time) {
	st.lastSweep = now
	for id, s := range st.sessions {
		if s.expired(now) {
			delete(st.sessions, id)
		}
	}
}

// evictOldestLocked drops the sessions closest to expiry until one slot is free.
func (st *Store) evictOldestLocked() {
	for len(st.sessions) >= st.max {
		var oldest *Session
		for _, s := range st.sessions {
			if oldest == nil || s.ExpiresAt.Before(oldest.ExpiresAt) {
				oldest = s
			}
		}
		delete(st.sessions, oldest.ID)
	}
}
