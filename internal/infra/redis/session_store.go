package redis

import (
	"context"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own a live countdown, so they stay in a local map.
//   - Redis holds a liveness marker per open session that expires with the
//     quiz window, letting other instances see who is mid-attempt.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[domain.AttemptKey]*app.AttemptSession
}

// NewSessionStore uses ttl for markers of sessions whose quiz has no end time.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[domain.AttemptKey]*app.AttemptSession),
	}
}

func (s *SessionStore) Put(session *app.AttemptSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Key()] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.Key()), "1", s.markerTTL(session)).Err()
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
	_ = s.client.Del(context.Background(), s.key(key)).Err()
}

// IsOpen reports whether any instance holds an open session for key.
func (s *SessionStore) IsOpen(ctx context.Context, key domain.AttemptKey) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	return n > 0, err
}

func (s *SessionStore) markerTTL(session *app.AttemptSession) time.Duration {
	if end := session.Quiz().EndTime; end != nil {
		if d := end.Sub(s.now()); d > 0 {
			return d + time.Minute
		}
	}
	return s.ttl
}

func (s *SessionStore) key(key domain.AttemptKey) string {
	return "session:attempt:" + key.String()
}
