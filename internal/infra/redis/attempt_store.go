package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"classroom-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps graded attempts in Redis:
//
//	attempt:{quizID}:{studentID}        JSON attempt
//	quiz:{quizID}:attempts              SET of student ids
//	classroom:{classroomID}:attempts    SET of {quizID}:{studentID}
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) GetAttempt(ctx context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error) {
	return s.load(ctx, attemptKey(quizID, studentID))
}

func (s *AttemptStore) PutAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, attemptKey(attempt.QuizID, attempt.StudentID), data, 0)
		s.index(ctx, pipe, attempt)
		return nil
	})
	return err
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	created, err := s.client.SetNX(ctx, attemptKey(attempt.QuizID, attempt.StudentID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return domain.ErrAttemptExists
	}
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		s.index(ctx, pipe, attempt)
		return nil
	})
	return err
}

func (s *AttemptStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.StudentQuizAttempt, error) {
	students, err := s.client.SMembers(ctx, quizIndexKey(quizID)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(students))
	for _, studentID := range students {
		keys = append(keys, attemptKey(quizID, studentID))
	}
	return s.loadMany(ctx, keys)
}

func (s *AttemptStore) ListAttemptsByClassroom(ctx context.Context, classroomID string) ([]domain.StudentQuizAttempt, error) {
	members, err := s.client.SMembers(ctx, classroomIndexKey(classroomID)).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, "attempt:"+m)
	}
	return s.loadMany(ctx, keys)
}

func (s *AttemptStore) index(ctx context.Context, pipe redis.Pipeliner, attempt domain.StudentQuizAttempt) {
	pipe.SAdd(ctx, quizIndexKey(attempt.QuizID), attempt.StudentID)
	pipe.SAdd(ctx, classroomIndexKey(attempt.ClassroomID), attempt.Key().String())
}

func (s *AttemptStore) load(ctx context.Context, key string) (domain.StudentQuizAttempt, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if isNil(err) {
		return domain.StudentQuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.StudentQuizAttempt{}, err
	}
	var attempt domain.StudentQuizAttempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return domain.StudentQuizAttempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) loadMany(ctx context.Context, keys []string) ([]domain.StudentQuizAttempt, error) {
	if len(keys) == 0 {
		return []domain.StudentQuizAttempt{}, nil
	}
	sort.Strings(keys)
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.StudentQuizAttempt, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var attempt domain.StudentQuizAttempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, nil
}

func attemptKey(quizID, studentID string) string {
	return "attempt:" + quizID + ":" + studentID
}

func quizIndexKey(quizID string) string {
	return "quiz:" + quizID + ":attempts"
}

func classroomIndexKey(classroomID string) string {
	return "classroom:" + classroomID + ":attempts"
}
