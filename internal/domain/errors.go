package domain

import (
	"errors"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when a student has no stored attempt for a quiz.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrCompetencyNotFound is returned when a results filter names an unknown competency.
	ErrCompetencyNotFound = errors.New("competency not found")
	// ErrAttemptExists is returned when a stored attempt blocks a new submission or session.
	ErrAttemptExists = errors.New("attempt already submitted")
	// ErrWindowViolation is returned for submissions outside the quiz window.
	ErrWindowViolation = errors.New("submission outside quiz window")
	// ErrQuizNotActive blocks a student from starting a quiz that is not active.
	ErrQuizNotActive = errors.New("quiz is not active")
	// ErrAlreadySubmitted is returned when a session already sent its submission.
	ErrAlreadySubmitted = errors.New("attempt already being submitted")
	// ErrSessionClosed is returned for operations on a closed attempt session.
	ErrSessionClosed = errors.New("attempt session closed")
)

// ValidationError lists every problem found in a payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// IsNotFound reports whether err resolves to one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrCompetencyNotFound)
}
