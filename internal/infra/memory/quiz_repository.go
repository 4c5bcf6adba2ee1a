package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizRepository caches quiz definitions with TTL in front of a backing store.
type QuizRepository struct {
	backing app.QuizStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.QuizDefinition
	expiresAt time.Time
}

func NewQuizRepository(backing app.QuizStore, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	if quiz, ok := r.cached(quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(quizID); ok {
			return quiz, nil
		}
		now := r.clock()
		quiz, err := r.backing.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

// SaveQuiz writes through to the backing store and drops the cached copy.
func (r *QuizRepository) SaveQuiz(ctx context.Context, quiz domain.QuizDefinition) error {
	if err := r.backing.SaveQuiz(ctx, quiz); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.cache, quiz.ID)
	r.mu.Unlock()
	return nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, classroomID string) ([]domain.QuizDefinition, error) {
	return r.backing.ListQuizzes(ctx, classroomID)
}

func (r *QuizRepository) cached(quizID string) (domain.QuizDefinition, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		return entry.quiz, true
	}
	return domain.QuizDefinition{}, false
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// QuizStore is a map-backed quiz store (useful for tests/demos).
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.QuizDefinition
}

func NewQuizStore(quizzes map[string]domain.QuizDefinition) *QuizStore {
	copied := make(map[string]domain.QuizDefinition, len(quizzes))
	for id, q := range quizzes {
		copied[id] = q
	}
	return &QuizStore{quizzes: copied}
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.QuizDefinition{}, domain.ErrQuizNotFound
}

func (s *QuizStore) SaveQuiz(_ context.Context, quiz domain.QuizDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

// ListQuizzes returns the classroom's quizzes, newest first.
func (s *QuizStore) ListQuizzes(_ context.Context, classroomID string) ([]domain.QuizDefinition, error) {
	s.mu.RLock()
	out := make([]domain.QuizDefinition, 0)
	for _, q := range s.quizzes {
		if q.ClassroomID == classroomID {
			out = append(out, q)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
