package app

import (
	"fmt"
	"strings"

	"classroom-quiz-service/internal/domain"
)

// GradeReport is the outcome of grading one submission.
type GradeReport struct {
	// Questions follows the quiz's question order and length.
	Questions []domain.QuestionAttempt
	// Unmatched holds answers whose question id is not part of the quiz.
	Unmatched []UnmatchedAnswer
	Total     int
	Feedback  string
}

// UnmatchedAnswer is a submitted answer that could not be graded.
type UnmatchedAnswer struct {
	QuestionID string
	Feedback   string
}

// Grade scores a submission against the quiz definition. Grading is binary
// per question and never aborts: unknown question ids and mismatched answer
// types score zero with an explanatory feedback line.
func Grade(quiz domain.QuizDefinition, submission []domain.SubmissionAnswer) GradeReport {
	submitted := make(map[string]domain.SubmittedAnswer, len(submission))
	report := GradeReport{Questions: make([]domain.QuestionAttempt, 0, len(quiz.Questions))}
	for _, answer := range submission {
		if _, ok := quiz.Question(answer.QuestionID); !ok {
			report.Unmatched = append(report.Unmatched, UnmatchedAnswer{
				QuestionID: answer.QuestionID,
				Feedback:   fmt.Sprintf("Question %q is not part of this quiz; no points awarded.", answer.QuestionID),
			})
			continue
		}
		submitted[answer.QuestionID] = answer.AnswerSubmitted
	}

	correct := 0
	for _, question := range quiz.Questions {
		answer, ok := submitted[question.ID]
		if !ok || answer.Value == nil {
			answer = domain.Unanswered(question.AnswerBase.Format)
		}
		points, ok, feedback := gradeQuestion(question, answer)
		if ok {
			correct++
		}
		report.Total += points
		report.Questions = append(report.Questions, domain.QuestionAttempt{
			Question:          question,
			AnswerSubmitted:   answer,
			PointsObtained:    points,
			FeedbackAutomated: &feedback,
		})
	}
	report.Feedback = overallFeedback(correct, len(quiz.Questions), report.Total, quiz.TotalPoints, len(report.Unmatched))
	return report
}

const feedbackCorrect = "Correct answer."

func gradeQuestion(q domain.Question, answer domain.SubmittedAnswer) (int, bool, string) {
	switch format := q.AnswerBase.Format.(type) {
	case domain.FreeText:
		text, ok := answer.Value.(domain.TextAnswer)
		if !ok {
			return 0, false, fmt.Sprintf("Expected a written answer. The correct answer is %q.", q.AnswerCorrect)
		}
		if text.Text == nil || strings.TrimSpace(*text.Text) == "" {
			return 0, false, fmt.Sprintf("No answer was given. The correct answer is %q.", q.AnswerCorrect)
		}
		if strings.EqualFold(strings.TrimSpace(*text.Text), strings.TrimSpace(q.AnswerCorrect)) {
			return q.Points, true, feedbackCorrect
		}
		return 0, false, fmt.Sprintf("Incorrect. The expected answer is %q.", q.AnswerCorrect)
	case domain.MultipleChoice:
		choice, ok := answer.Value.(domain.ChoiceAnswer)
		if !ok {
			return 0, false, fmt.Sprintf("Expected a selected option. The correct option is %q.", q.AnswerCorrect)
		}
		if choice.Selected == nil {
			return 0, false, fmt.Sprintf("No option was selected. The correct option is %q.", q.AnswerCorrect)
		}
		if !containsOption(format.Options, *choice.Selected) {
			return 0, false, fmt.Sprintf("%q is not one of the options. The correct option is %q.", *choice.Selected, q.AnswerCorrect)
		}
		if *choice.Selected == q.AnswerCorrect {
			return q.Points, true, feedbackCorrect
		}
		return 0, false, fmt.Sprintf("Incorrect. The correct option is %q.", q.AnswerCorrect)
	default:
		return 0, false, "This question has no answer format and cannot be graded."
	}
}

func containsOption(options []string, s string) bool {
	for _, opt := range options {
		if opt == s {
			return true
		}
	}
	return false
}

func overallFeedback(correct, questions, obtained, total, unmatched int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d questions correct, %d/%d points.", correct, questions, obtained, total)
	if unmatched > 0 {
		fmt.Fprintf(&b, " %d answer(s) referenced questions outside this quiz and were ignored.", unmatched)
	}
	return b.String()
}
