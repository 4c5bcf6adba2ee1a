package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewQuiz is the teacher's authoring payload.
type NewQuiz struct {
	ClassroomID string        `json:"classroomId" validate:"required"`
	Title       string        `json:"title" validate:"required,max=200"`
	Instruction string        `json:"instruction"`
	StartTime   *time.Time    `json:"startTime" validate:"required"`
	EndTime     *time.Time    `json:"endTime" validate:"required"`
	Questions   []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

// NewQuestion is a question inside NewQuiz.
type NewQuestion struct {
	ID            string     `json:"id"`
	Statement     string     `json:"statement" validate:"required"`
	Points        int        `json:"points" validate:"gte=0"`
	AnswerBase    AnswerBase `json:"answerBase"`
	AnswerCorrect string     `json:"answerCorrect" validate:"required"`
	CompetencesID []string   `json:"competencesId"`
}

// Struct runs the struct-tag rules and flattens failures into a ValidationError.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Problems: problems}
}

// ValidateQuiz checks the authoring payload, including the rules the
// struct tags cannot express.
func ValidateQuiz(q NewQuiz) error {
	if err := Struct(q); err != nil {
		return err
	}
	var problems []string
	if !q.EndTime.After(*q.StartTime) {
		problems = append(problems, "endTime must be after startTime")
	}
	for i, question := range q.Questions {
		problems = append(problems, questionProblems(i, question.AnswerBase, question.AnswerCorrect)...)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func questionProblems(i int, base AnswerBase, correct string) []string {
	switch f := base.Format.(type) {
	case FreeText:
		return nil
	case MultipleChoice:
		var problems []string
		if len(f.Options) < 2 {
			problems = append(problems, fmt.Sprintf("questions[%d]: multiple choice needs at least 2 options", i))
		}
		member := false
		for _, opt := range f.Options {
			if strings.TrimSpace(opt) == "" {
				problems = append(problems, fmt.Sprintf("questions[%d]: options must not be empty", i))
			}
			if opt == correct {
				member = true
			}
		}
		if !member {
			problems = append(problems, fmt.Sprintf("questions[%d]: answerCorrect must be one of the options", i))
		}
		return problems
	default:
		return []string{fmt.Sprintf("questions[%d]: answerBase is required", i)}
	}
}
