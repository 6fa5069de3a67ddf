// Package history implements the in-memory conversation store. Each Discord
// channel (or thread) gets its own transcript, keyed by channel ID. Transcripts
// live only for the lifetime of the process; the /forget command removes them.
package history

import (
	"log/slog"
	"sync"
)

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a transcript. Turns are immutable once appended.
type Turn struct {
	Role    Role
	Content string
}

// Conversation holds the ordered transcript for one channel.
//
// The embedded mutex serializes the whole request cycle for a channel, not
// just map access: the dispatch pipeline holds it from the history read,
// across the backend round trip, until the new turns are appended. That way
// concurrent messages in the same channel cannot interleave their reads and
// appends, while unrelated channels proceed in parallel.
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Lock acquires the conversation's critical section.
func (c *Conversation) Lock() { c.mu.Lock() }

// Unlock releases the conversation's critical section.
func (c *Conversation) Unlock() { c.mu.Unlock() }

// Turns returns a copy of the transcript. The caller must hold the lock.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Append adds turns to the end of the transcript in order. The caller must
// hold the lock.
func (c *Conversation) Append(turns ...Turn) {
	c.turns = append(c.turns, turns...)
}

// Len returns the number of turns. The caller must hold the lock.
func (c *Conversation) Len() int { return len(c.turns) }

// Store maps conversation keys to transcripts. All methods are safe for
// concurrent use; the top-level map has its own lock, independent of the
// per-conversation locks.
//
// Transcripts have no size cap. Long-lived channels grow without bound until
// forgotten or the process restarts.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	logger        *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conversations: make(map[string]*Conversation),
		logger:        logger.With("component", "history"),
	}
}

// GetOrCreate returns the conversation for key, creating an empty one if
// absent. Safe when two events for a brand-new key race to create it.
func (s *Store) GetOrCreate(key string) *Conversation {
	s.mu.RLock()
	if conv, ok := s.conversations[key]; ok {
		s.mu.RUnlock()
		return conv
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if conv, ok := s.conversations[key]; ok {
		return conv
	}

	conv := &Conversation{}
	s.conversations[key] = conv
	s.logger.Debug("conversation created", "key", key)
	return conv
}

// Remove deletes the conversation for key. No-op if absent.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[key]; ok {
		delete(s.conversations, key)
		s.logger.Info("conversation forgotten", "key", key)
	}
}

// Clear deletes every conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.conversations)
	s.conversations = make(map[string]*Conversation)
	s.logger.Info("all conversations forgotten", "count", n)
}

// Count returns the number of active conversations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
