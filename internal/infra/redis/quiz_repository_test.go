package redis

import (
	"context"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := &countingStore{QuizStore: memory.NewQuizStore(map[string]domain.QuizDefinition{
		"quiz-1": sampleQuiz(),
	})}
	repo := NewQuizRepository(client, store, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected backing store called once, got %d", store.calls)
	}
	if !mr.Exists("quiz:quiz-1:definition") {
		t.Fatalf("expected cached definition in redis")
	}

	// Second call should hit cache, backing store not incremented.
	cached, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if store.calls != 1 {
		t.Fatalf("expected cache hit, backing calls=%d", store.calls)
	}
	if _, ok := cached.Questions[0].AnswerBase.Format.(domain.FreeText); !ok || cached.Questions[0].AnswerCorrect != quiz.Questions[0].AnswerCorrect {
		t.Fatalf("cached quiz lost its answer data: %+v", cached.Questions[0])
	}
}

func TestQuizRepositorySaveEvicts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{QuizStore: memory.NewQuizStore(nil)}
	repo := NewQuizRepository(newClient(mr), store, time.Minute)
	if err := repo.SaveQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")

	updated := sampleQuiz()
	updated.Title = "Renamed"
	if err := repo.SaveQuiz(context.Background(), updated); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists("quiz:quiz-1:definition") {
		t.Fatalf("expected cache eviction on save")
	}
	got, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if got.Title != "Renamed" {
		t.Fatalf("expected fresh quiz, got %q", got.Title)
	}
}

type countingStore struct {
	app.QuizStore
	calls int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	s.calls++
	return s.QuizStore.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.QuizDefinition {
	start := time.Now().Add(-time.Minute)
	end := start.Add(time.Hour)
	return domain.QuizDefinition{
		ID:          "quiz-1",
		ClassroomID: "classroom-1",
		Title:       "Capitals",
		StartTime:   &start,
		EndTime:     &end,
		Questions: []domain.Question{
			{
				ID:            "q1",
				Statement:     "What is the capital of France?",
				Points:        5,
				AnswerBase:    domain.FreeTextBase(),
				AnswerCorrect: "Paris",
			},
		},
		TotalPoints: 5,
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
