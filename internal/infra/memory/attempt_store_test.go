package memory

import (
	"context"
	"errors"
	"testing"

	"classroom-quiz-service/internal/domain"
)

func TestAttemptStoreCreateAndPut(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	attempt := domain.StudentQuizAttempt{QuizID: "quiz-1", StudentID: "s1", ClassroomID: "classroom-1", PointsObtained: 3}

	if err := store.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateAttempt(ctx, attempt); !errors.Is(err, domain.ErrAttemptExists) {
		t.Fatalf("expected attempt exists, got %v", err)
	}

	attempt.PointsObtained = 7
	if err := store.PutAttempt(ctx, attempt); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetAttempt(ctx, "quiz-1", "s1")
	if err != nil || got.PointsObtained != 7 {
		t.Fatalf("expected overwritten attempt, got %+v err=%v", got, err)
	}
	if _, err := store.GetAttempt(ctx, "quiz-1", "s2"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt not found, got %v", err)
	}
}

func TestAttemptStoreLists(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	_ = store.PutAttempt(ctx, domain.StudentQuizAttempt{QuizID: "quiz-2", StudentID: "s1", ClassroomID: "classroom-1"})
	_ = store.PutAttempt(ctx, domain.StudentQuizAttempt{QuizID: "quiz-1", StudentID: "s2", ClassroomID: "classroom-1"})
	_ = store.PutAttempt(ctx, domain.StudentQuizAttempt{QuizID: "quiz-1", StudentID: "s1", ClassroomID: "classroom-1"})
	_ = store.PutAttempt(ctx, domain.StudentQuizAttempt{QuizID: "quiz-9", StudentID: "s1", ClassroomID: "classroom-2"})

	byQuiz, _ := store.ListAttemptsByQuiz(ctx, "quiz-1")
	if len(byQuiz) != 2 || byQuiz[0].StudentID != "s1" || byQuiz[1].StudentID != "s2" {
		t.Fatalf("unexpected quiz attempts %+v", byQuiz)
	}
	byClass, _ := store.ListAttemptsByClassroom(ctx, "classroom-1")
	if len(byClass) != 3 || byClass[2].QuizID != "quiz-2" {
		t.Fatalf("unexpected classroom attempts %+v", byClass)
	}
}
