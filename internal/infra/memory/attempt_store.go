package memory

import (
	"context"
	"sort"
	"sync"

	"classroom-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[domain.AttemptKey]domain.StudentQuizAttempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[domain.AttemptKey]domain.StudentQuizAttempt)}
}

func (s *AttemptStore) GetAttempt(_ context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[domain.AttemptKey{QuizID: quizID, StudentID: studentID}]
	if !ok {
		return domain.StudentQuizAttempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptStore) PutAttempt(_ context.Context, attempt domain.StudentQuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.Key()] = attempt
	return nil
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.StudentQuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.Key()]; ok {
		return domain.ErrAttemptExists
	}
	s.attempts[attempt.Key()] = attempt
	return nil
}

func (s *AttemptStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]domain.StudentQuizAttempt, error) {
	return s.list(func(a domain.StudentQuizAttempt) bool { return a.QuizID == quizID }), nil
}

func (s *AttemptStore) ListAttemptsByClassroom(_ context.Context, classroomID string) ([]domain.StudentQuizAttempt, error) {
	return s.list(func(a domain.StudentQuizAttempt) bool { return a.ClassroomID == classroomID }), nil
}

func (s *AttemptStore) list(keep func(domain.StudentQuizAttempt) bool) []domain.StudentQuizAttempt {
	s.mu.RLock()
	out := make([]domain.StudentQuizAttempt, 0)
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuizID != out[j].QuizID {
			return out[i].QuizID < out[j].QuizID
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}
