// Package domain contains core domain types for the chat bot.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session or task does not exist.
var ErrNotFound = errors.New("not found")

// Role tags a conversation turn with its author.
type Role string

const (
	// RoleUser marks text written by the caller.
	RoleUser Role = "user"
	// RoleModel marks text produced by the response generator.
	RoleModel Role = "model"
)

// Turn is a single message in a conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session holds the bounded conversation history for one caller-supplied id.
type Session struct {
	ID         string
	History    []Turn
	CreatedAt  time.Time
	LastActive time.Time
}

// MessageCount returns the number of user/model exchanges in the history.
func (s *Session) MessageCount() int {
	return len(s.History) / 2
}

// IsActive reports whether the session saw activity within window of now.
func (s *Session) IsActive(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastActive) < window
}

// Clone returns a deep copy so callers can read it without holding a lock.
func (s *Session) Clone() Session {
	out := *s
	out.History = CloneHistory(s.History)
	return out
}

// CloneHistory copies a turn slice. A nil or empty input yields an empty slice.
func CloneHistory(history []Turn) []Turn {
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	Active       bool      `json:"active"`
}
