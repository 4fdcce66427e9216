// Package session holds the per-conversation message log.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"faqbot/internal/domain"
)

// Session is the ordered, append-only log of one interactive conversation.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.RWMutex
	messages []domain.ChatMessage
	busy     bool
}

// New starts an empty session with a fresh random ID.
func New() *Session {
	return &Session{id: uuid.NewString(), createdAt: time.Now().UTC()}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// BeginTurn claims the session for one user turn. It returns false while
// another turn is still in flight; callers must EndTurn after a true result.
func (s *Session) BeginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// EndTurn releases the claim taken by BeginTurn.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Append adds msg at the end of the log. It is the only mutation.
func (s *Session) Append(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// All returns a copy of every message in insertion order.
func (s *Session) All() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Recent returns a copy of the last n messages, fewer if the log is shorter.
func (s *Session) Recent(n int) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.ChatMessage, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
