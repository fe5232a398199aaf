// Package session holds a bounded, in-memory window of prior question and
// answer pairs per conversation. Sessions are created lazily, live only for
// the process lifetime, and are never explicitly destroyed; old pairs are
// evicted by the history bound alone.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/koopa0/coursechat/internal/log"
)

// Exchange is one completed question/answer pair.
type Exchange struct {
	Query  string
	Answer string
}

// entry is one session's state. Each entry carries its own mutex so that
// appends to the same session serialize without blocking other sessions.
type entry struct {
	mu        sync.Mutex
	exchanges []Exchange
}

// Store is the process-wide session store. Safe for concurrent use across
// distinct session ids; appends to the same id are serialized per entry.
type Store struct {
	maxHistory int // bound in pairs; oldest evicted first
	logger     log.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewStore creates a Store that keeps at most maxHistory pairs per session.
// A non-positive bound keeps no history at all.
func NewStore(maxHistory int, logger log.Logger) *Store {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Store{
		maxHistory: maxHistory,
		logger:     logger,
		sessions:   make(map[string]*entry),
	}
}

// GetOrCreate returns the given session id, allocating a fresh opaque id
// when none is supplied. The entry itself is created lazily on first use.
func (s *Store) GetOrCreate(id string) string {
	if id == "" {
		id = uuid.NewString()
		s.logger.Debug("session created", "session_id", id)
	}
	return id
}

// get returns the entry for id, creating it when create is set.
func (s *Store) get(id string, create bool) *entry {
	s.mu.RLock()
	e := s.sessions[id]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.sessions[id]; e == nil {
		e = &entry{}
		s.sessions[id] = e
	}
	return e
}

// Append pushes a completed pair onto the session, evicting the oldest pair
// once the bound is exceeded (FIFO, bound counted in pairs).
func (s *Store) Append(id, query, answer string) {
	if s.maxHistory == 0 {
		return
	}
	e := s.get(id, true)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.exchanges = append(e.exchanges, Exchange{Query: query, Answer: answer})
	if over := len(e.exchanges) - s.maxHistory; over > 0 {
		e.exchanges = append([]Exchange(nil), e.exchanges[over:]...)
	}
}

// History returns the session's current window, oldest first. Unknown ids
// yield an empty sequence, never an error.
func (s *Store) History(id string) []Exchange {
	e := s.get(id, false)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Exchange(nil), e.exchanges...)
}
