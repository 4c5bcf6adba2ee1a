package memory

import (
	"sync"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.AttemptKey]*app.AttemptSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.AttemptKey]*app.AttemptSession),
	}
}

func (s *SessionStore) Put(session *app.AttemptSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Key()] = session
}

func (s *SessionStore) Get(key domain.AttemptKey) (*app.AttemptSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) Delete(key domain.AttemptKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Len is the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
