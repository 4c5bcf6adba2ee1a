package app_test

import (
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

func TestGradeAllCorrect(t *testing.T) {
	quiz := sampleQuiz(time.Now())
	report := app.Grade(quiz, answers("q1", domain.Text("Paris"), "q2", domain.Choice("B")))

	if report.Total != 10 {
		t.Fatalf("expected 10 points, got %d", report.Total)
	}
	if len(report.Questions) != 2 || report.Questions[0].ID != "q1" || report.Questions[1].ID != "q2" {
		t.Fatalf("expected quiz order, got %+v", report.Questions)
	}
	if !strings.HasPrefix(report.Feedback, "2 of 2 questions correct, 10/10 points.") {
		t.Fatalf("unexpected feedback %q", report.Feedback)
	}
}

func TestGradeWrongAnswersCiteCorrectOnes(t *testing.T) {
	quiz := sampleQuiz(time.Now())
	report := app.Grade(quiz, answers("q1", domain.Text("London"), "q2", domain.Choice("A")))

	if report.Total != 0 {
		t.Fatalf("expected 0 points, got %d", report.Total)
	}
	if fb := *report.Questions[0].FeedbackAutomated; !strings.Contains(fb, "Paris") {
		t.Fatalf("free-text feedback should cite Paris, got %q", fb)
	}
	if fb := *report.Questions[1].FeedbackAutomated; !strings.Contains(fb, `"B"`) {
		t.Fatalf("choice feedback should cite B, got %q", fb)
	}
}

func TestGradeFreeTextIgnoresCaseAndSpace(t *testing.T) {
	quiz := sampleQuiz(time.Now())
	report := app.Grade(quiz, answers("q1", domain.Text("  pARIS ")))
	if report.Questions[0].PointsObtained != 5 {
		t.Fatalf("expected 5 points, got %d", report.Questions[0].PointsObtained)
	}
}

func TestGradeMissingAndInvalidAnswers(t *testing.T) {
	quiz := sampleQuiz(time.Now())
	report := app.Grade(quiz, answers("q2", domain.Choice("Z")))

	if report.Total != 0 {
		t.Fatalf("expected 0 points, got %d", report.Total)
	}
	if _, ok := report.Questions[0].AnswerSubmitted.Value.(domain.TextAnswer); !ok {
		t.Fatalf("missing answer should be an empty text answer, got %T", report.Questions[0].AnswerSubmitted.Value)
	}
	if fb := *report.Questions[1].FeedbackAutomated; !strings.Contains(fb, "not one of the options") {
		t.Fatalf("unexpected feedback %q", fb)
	}

	mismatched := app.Grade(quiz, answers("q1", domain.Choice("Paris")))
	if mismatched.Questions[0].PointsObtained != 0 {
		t.Fatalf("type mismatch must score 0")
	}
}

func TestGradeUnknownQuestionIsReported(t *testing.T) {
	quiz := sampleQuiz(time.Now())
	report := app.Grade(quiz, answers("q1", domain.Text("Paris"), "q9", domain.Text("?")))

	if report.Total != 5 {
		t.Fatalf("expected 5 points, got %d", report.Total)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0].QuestionID != "q9" {
		t.Fatalf("expected q9 unmatched, got %+v", report.Unmatched)
	}
	if !strings.Contains(report.Feedback, "1 answer(s) referenced questions outside this quiz") {
		t.Fatalf("overall feedback should mention unmatched answers, got %q", report.Feedback)
	}
}
