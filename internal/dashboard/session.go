package dashboard

import (
	"sync"
	"time"

	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/google/uuid"
)

// Upload is one scored file held by a session.
type Upload struct {
	FileName string
	Table    *dataset.Table
	Result   *ml.ScoreResult
	ScoredAt time.Time
}

type session struct {
	upload   *Upload
	lastSeen time.Time
}

// SessionStore keeps each browser session's upload apart from every other.
// Sessions idle for longer than the TTL are dropped.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*session
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Touch returns id when it names a live session, refreshing it, or a new
// session id otherwise.
func (s *SessionStore) Touch(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && now.Sub(sess.lastSeen) <= s.ttl {
		sess.lastSeen = now
		return id
	}
	delete(s.sessions, id)

	id = uuid.NewString()
	s.sessions[id] = &session{lastSeen: now}
	return id
}

// Get returns the session's upload, or nil.
func (s *SessionStore) Get(id string) *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.now().Sub(sess.lastSeen) > s.ttl {
		return nil
	}
	return sess.upload
}

// Put replaces the session's upload.
func (s *SessionStore) Put(id string, upload *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.upload = upload
	sess.lastSeen = now
}

// Expire drops idle sessions and returns how many were removed.
func (s *SessionStore) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Uploads returns the number of sessions holding a scored upload.
func (s *SessionStore) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.upload != nil {
			n++
		}
	}
	return n
}
