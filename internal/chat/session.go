package chat

import (
	"sync"
	"time"

	"budgetbot/internal/cache"
	"budgetbot/internal/core"
	"budgetbot/internal/llm"
)

// Session is one conversation. Its fields are guarded by mu, which a turn
// holds for its whole duration.
type Session struct {
	ID string

	// refs counts turns holding or waiting on mu; guarded by SessionStore.mu.
	refs int

	mu      sync.Mutex
	pending *core.UpdateRequest
	history []llm.Message
}

// Pending returns a copy of the outstanding update, if any.
func (s *Session) Pending() (core.UpdateRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return core.UpdateRequest{}, false
	}
	return *s.pending, true
}

// History returns a copy of the conversation, system entry first.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}

// SessionStore maps session ids to sessions. Idle sessions expire and the
// least recently used one is evicted once max is reached. A session with a
// turn in flight stays pinned in inUse, so eviction never splits one id into
// two live sessions; it returns to the LRU when its last turn releases it.
type SessionStore struct {
	sessions *cache.LRUCache[*Session]

	mu    sync.Mutex
	inUse map[string]*Session
}

func NewSessionStore(max int, idle time.Duration) *SessionStore {
	return &SessionStore{
		sessions: cache.NewLRUCache[*Session](max, idle),
		inUse:    make(map[string]*Session),
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.sessions.WithClock(now)
	return s
}

// Acquire returns the session for id, creating it on first use, locked for
// the caller. The returned func releases it.
func (s *SessionStore) Acquire(id string) (*Session, func()) {
	s.mu.Lock()
	sess, ok := s.inUse[id]
	if ok {
		s.sessions.Set(id, sess)
	} else {
		sess = s.sessions.GetOrCreate(id, func() *Session {
			return &Session{ID: id}
		})
		s.inUse[id] = sess
	}
	sess.refs++
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, func() {
		sess.mu.Unlock()
		s.release(sess)
	}
}

func (s *SessionStore) release(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.refs--
	if sess.refs > 0 {
		return
	}
	delete(s.inUse, sess.ID)
	if cur, ok := s.sessions.Get(sess.ID); !ok || cur != sess {
		s.sessions.Set(sess.ID, sess)
	}
}

// Lookup returns an existing live session without creating one.
func (s *SessionStore) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.inUse[id]; ok {
		return sess, true
	}
	return s.sessions.Get(id)
}

func (s *SessionStore) CleanExpired() int { return s.sessions.CleanExpired() }

func (s *SessionStore) Size() int { return s.sessions.Size() }
