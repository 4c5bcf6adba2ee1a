package app_test

import (
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

func sampleQuiz(now time.Time) domain.QuizDefinition {
	start := now.Add(-time.Minute)
	end := now.Add(time.Hour)
	questions := []domain.Question{
		{
			ID:            "q1",
			Statement:     "What is the capital of France?",
			Points:        5,
			AnswerBase:    domain.FreeTextBase(),
			AnswerCorrect: "Paris",
			CompetencesID: []string{"comp-geo"},
		},
		{
			ID:            "q2",
			Statement:     "Pick B",
			Points:        5,
			AnswerBase:    domain.MultipleChoiceBase("A", "B", "C"),
			AnswerCorrect: "B",
			CompetencesID: []string{"comp-read"},
		},
	}
	return domain.QuizDefinition{
		ID:          "quiz-1",
		ClassroomID: "classroom-1",
		Title:       "Welcome quiz",
		StartTime:   &start,
		EndTime:     &end,
		Questions:   questions,
		TotalPoints: domain.SumPoints(questions),
		CreatedAt:   now.Add(-time.Hour),
	}
}

func answers(pairs ...any) []domain.SubmissionAnswer {
	out := make([]domain.SubmissionAnswer, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.SubmissionAnswer{
			QuestionID:      pairs[i].(string),
			AnswerSubmitted: pairs[i+1].(domain.SubmittedAnswer),
		})
	}
	return out
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
