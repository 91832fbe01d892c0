// Package conversation implements the in-memory session history store.
//
// State is ephemeral: it lives only for the lifetime of the server process.
package conversation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/domain"
)

const (
	// DefaultMaxHistory caps a session at the 20 most recent turns (10 exchanges).
	DefaultMaxHistory = 20
	// DefaultActiveWindow is how recently a session must be used to count as active.
	DefaultActiveWindow = 300 * time.Second
	// ClearAll is the session id that clears every session.
	ClearAll = "all"
)

// Store maps session ids to conversation histories. Every public method is a
// single critical section, so an exchange is appended atomically.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*domain.Session
	maxHistory   int
	activeWindow time.Duration
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxHistory overrides the number of turns kept per session. Odd values
// are rounded down so that history stays made of whole exchanges.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n >= 2 {
			s.maxHistory = n - n%2
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty conversation store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:     make(map[string]*domain.Session),
		maxHistory:   DefaultMaxHistory,
		activeWindow: DefaultActiveWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getOrCreateLocked must be called with mu held for writing.
func (s *Store) getOrCreateLocked(id string) *domain.Session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	now := s.now()
	sess := &domain.Session{
		ID:         id,
		History:    []domain.Turn{},
		CreatedAt:  now,
		LastActive: now,
	}
	s.sessions[id] = sess
	return sess
}

// GetOrCreate returns a copy of the session, creating an empty one if needed.
func (s *Store) GetOrCreate(id string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id).Clone()
}

// Touch is GetOrCreate that also marks the session as active now.
func (s *Store) Touch(id string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(id)
	sess.LastActive = s.now()
	return sess.Clone()
}

// AppendExchange appends a user turn and a model turn, trims the history to
// the most recent maxHistory entries and refreshes LastActive. A session that
// was cleared while the exchange was being generated is recreated.
func (s *Store) AppendExchange(id, userText, modelText string) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(id)
	sess.History = append(sess.History,
		domain.Turn{Role: domain.RoleUser, Text: userText},
		domain.Turn{Role: domain.RoleModel, Text: modelText},
	)
	if over := len(sess.History) - s.maxHistory; over > 0 {
		sess.History = domain.CloneHistory(sess.History[over:])
	}
	sess.LastActive = s.now()
	return sess.Clone()
}

// Get returns a copy of an existing session.
func (s *Store) Get(id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	return sess.Clone(), nil
}

// List returns a summary of every session ordered by creation time.
func (s *Store) List() []domain.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, domain.SessionSummary{
			ID:           sess.ID,
			MessageCount: sess.MessageCount(),
			CreatedAt:    sess.CreatedAt,
			LastActive:   sess.LastActive,
			Active:       sess.IsActive(now, s.activeWindow),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Clear removes one session, or all sessions when id is "all", and returns
// the number removed.
func (s *Store) Clear(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == ClearAll {
		n := len(s.sessions)
		s.sessions = make(map[string]*domain.Session)
		return n, nil
	}
	if _, ok := s.sessions[id]; !ok {
		return 0, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	delete(s.sessions, id)
	return 1, nil
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ActiveCount returns the number of sessions used within the active window.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	n := 0
	for _, sess := range s.sessions {
		if sess.IsActive(now, s.activeWindow) {
			n++
		}
	}
	return n
}

// EvictIdle removes sessions whose last activity is before cutoff.
func (s *Store) EvictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
