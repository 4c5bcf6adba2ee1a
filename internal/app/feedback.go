package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

// FeedbackStore reads graded attempts and layers teacher feedback on top.
// Updates to one attempt are serialized in-process; the AttemptStore is
// expected to serialize across processes.
type FeedbackStore struct {
	attempts AttemptStore
	now      func() time.Time

	mu    sync.Mutex
	locks map[domain.AttemptKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewFeedbackStore(attempts AttemptStore) *FeedbackStore {
	return &FeedbackStore{
		attempts: attempts,
		now:      time.Now,
		locks:    make(map[domain.AttemptKey]*keyLock),
	}
}

// Get returns the attempt or domain.ErrAttemptNotFound.
func (f *FeedbackStore) Get(ctx context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error) {
	return f.attempts.GetAttempt(ctx, quizID, studentID)
}

// ApplyTeacherFeedback overwrites the teacher feedback fields of an attempt.
func (f *FeedbackStore) ApplyTeacherFeedback(ctx context.Context, fb domain.TeacherFeedback) (domain.StudentQuizAttempt, error) {
	key := domain.AttemptKey{QuizID: fb.QuizID, StudentID: fb.StudentID}
	unlock := f.lock(key)
	defer unlock()

	attempt, err := f.attempts.GetAttempt(ctx, fb.QuizID, fb.StudentID)
	if err != nil {
		return domain.StudentQuizAttempt{}, err
	}
	updated := ApplyTeacherFeedback(attempt, fb)
	updated.UpdatedAt = f.now()
	if err := f.attempts.PutAttempt(ctx, updated); err != nil {
		return domain.StudentQuizAttempt{}, err
	}
	return updated, nil
}

func (f *FeedbackStore) lock(key domain.AttemptKey) func() {
	f.mu.Lock()
	l, ok := f.locks[key]
	if !ok {
		l = &keyLock{}
		f.locks[key] = l
	}
	l.refs++
	f.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		f.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(f.locks, key)
		}
		f.mu.Unlock()
	}
}

// ApplyTeacherFeedback returns a copy of attempt with teacher feedback
// applied. Scores and automated feedback are never touched. A nil general
// feedback leaves the overall comment as is; a nil or blank question entry
// clears that question's comment. Unknown question ids are ignored.
func ApplyTeacherFeedback(attempt domain.StudentQuizAttempt, fb domain.TeacherFeedback) domain.StudentQuizAttempt {
	out := attempt
	out.Questions = make([]domain.QuestionAttempt, len(attempt.Questions))
	copy(out.Questions, attempt.Questions)

	if fb.GeneralFeedback != nil {
		out.FeedbackTeacher = normalizeFeedback(fb.GeneralFeedback)
	}
	index := make(map[string]int, len(out.Questions))
	for i, q := range out.Questions {
		index[q.ID] = i
	}
	for _, qf := range fb.QuestionFeedbacks {
		i, ok := index[qf.QuestionID]
		if !ok {
			continue
		}
		out.Questions[i].FeedbackTeacher = normalizeFeedback(qf.FeedbackText)
	}
	return out
}

func normalizeFeedback(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
