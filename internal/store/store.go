// Package store owns the mapping from room code to live session. Sessions
// are ephemeral collaboration artifacts: once the TTL elapses they are
// evicted with no persistence fallback.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/models"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/roomcode"
)

const codeRetries = 10

// Store is the in-memory session registry. The store mutex serializes only
// code-collision checks and registration; each session's internal mutation is
// serialized by its own lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	ttl time.Duration
	now func() time.Time
}

// New creates a store whose sessions live for ttl after creation.
func New(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session in the waiting phase under a fresh room
// code, retrying generation on collision against live codes.
func (s *Store) Create(ownerID string, input models.CreateSessionInput, settings models.Settings) (*models.Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for i := 0; i < codeRetries; i++ {
		c, err := roomcode.Generate()
		if err != nil {
			return nil, err
		}
		if existing, ok := s.sessions[c]; !ok || existing.Expired(now) {
			code = c
			break
		}
	}
	if code == "" {
		// Practically unreachable with a 32^6 code space.
		return nil, errors.New("room code space exhausted")
	}

	session := models.NewSession(uuid.New().String(), code, ownerID, input, settings, s.ttl, now)
	s.sessions[code] = session
	return session, nil
}

// Lookup resolves a room code case-insensitively. Expired sessions are
// treated as absent and dropped lazily.
func (s *Store) Lookup(code string) (*models.Session, error) {
	code = roomcode.Normalize(code)
	now := s.now()

	s.mu.RLock()
	session, ok := s.sessions[code]
	s.mu.RUnlock()

	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if session.Expired(now) {
		s.mu.Lock()
		if current, ok := s.sessions[code]; ok && current == session {
			delete(s.sessions, code)
		}
		s.mu.Unlock()
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// EvictExpired removes sessions past their expiry and returns them so the
// caller can notify any remaining connections before the room vanishes.
func (s *Store) EvictExpired() []*models.Session {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []*models.Session
	for code, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, code)
			evicted = append(evicted, session)
		}
	}
	return evicted
}

// Len returns the number of registered sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
