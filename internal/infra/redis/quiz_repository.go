package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizRepository caches quiz definitions in Redis and falls back to the
// backing store on a miss. Definitions are stored as JSON under
// quiz:{quizID}:definition.
type QuizRepository struct {
	client  *redis.Client
	backing app.QuizStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex
}

func NewQuizRepository(client *redis.Client, backing app.QuizStore, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.backing.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		if data, err := json.Marshal(quiz); err == nil {
			_ = r.client.Set(ctx, r.key(quizID), data, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return result.(domain.QuizDefinition), nil
}

// SaveQuiz writes through to the backing store and evicts the cached copy.
func (r *QuizRepository) SaveQuiz(ctx context.Context, quiz domain.QuizDefinition) error {
	if err := r.backing.SaveQuiz(ctx, quiz); err != nil {
		return err
	}
	return r.client.Del(ctx, r.key(quiz.ID)).Err()
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, classroomID string) ([]domain.QuizDefinition, error) {
	return r.backing.ListQuizzes(ctx, classroomID)
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.QuizDefinition, bool) {
	data, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		return domain.QuizDefinition{}, false
	}
	var quiz domain.QuizDefinition
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.QuizDefinition{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID + ":definition"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
