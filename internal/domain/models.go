package domain

import "time"

// Competency is a skill a question can be tagged with.
type Competency struct {
	ID          string `json:"id"`
	ClassroomID string `json:"classroomId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Student is the roster view of a classroom member.
type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}

// Question is a single graded item of a quiz. AnswerCorrect never leaves the
// server before grading; see QuizForTaking.
type Question struct {
	ID            string     `json:"id"`
	Statement     string     `json:"statement"`
	Points        int        `json:"points"`
	AnswerBase    AnswerBase `json:"answerBase"`
	AnswerCorrect string     `json:"answerCorrect"`
	CompetencesID []string   `json:"competencesId"`
}

// QuizDefinition is created once by a teacher and never edited field by field.
type QuizDefinition struct {
	ID          string     `json:"id"`
	ClassroomID string     `json:"classroomId"`
	Title       string     `json:"title"`
	Instruction string     `json:"instruction"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Questions   []Question `json:"questions"`
	TotalPoints int        `json:"totalPoints"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Question looks up a question by id.
func (q QuizDefinition) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// SumPoints adds up the points of every question.
func SumPoints(questions []Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// QuestionForTaking is a Question without its correct answer.
type QuestionForTaking struct {
	ID            string     `json:"id"`
	Statement     string     `json:"statement"`
	Points        int        `json:"points"`
	AnswerBase    AnswerBase `json:"answerBase"`
	CompetencesID []string   `json:"competencesId"`
}

// QuizForTaking is the only shape of a quiz sent to a student before grading.
type QuizForTaking struct {
	ID          string              `json:"id"`
	ClassroomID string              `json:"classroomId"`
	Title       string              `json:"title"`
	Instruction string              `json:"instruction"`
	StartTime   *time.Time          `json:"startTime,omitempty"`
	EndTime     *time.Time          `json:"endTime,omitempty"`
	Questions   []QuestionForTaking `json:"questions"`
	TotalPoints int                 `json:"totalPoints"`
}

// ForTaking strips every correct answer from the quiz.
func ForTaking(quiz QuizDefinition) QuizForTaking {
	questions := make([]QuestionForTaking, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, QuestionForTaking{
			ID:            q.ID,
			Statement:     q.Statement,
			Points:        q.Points,
			AnswerBase:    q.AnswerBase.clone(),
			CompetencesID: append([]string(nil), q.CompetencesID...),
		})
	}
	return QuizForTaking{
		ID:          quiz.ID,
		ClassroomID: quiz.ClassroomID,
		Title:       quiz.Title,
		Instruction: quiz.Instruction,
		StartTime:   quiz.StartTime,
		EndTime:     quiz.EndTime,
		Questions:   questions,
		TotalPoints: quiz.TotalPoints,
	}
}

// SubmissionAnswer pairs a question id with what the student sent for it.
type SubmissionAnswer struct {
	QuestionID      string          `json:"questionId" validate:"required"`
	AnswerSubmitted SubmittedAnswer `json:"answerSubmitted"`
}

// SubmissionPayload is the raw attempt sent by a student.
type SubmissionPayload struct {
	QuizID    string             `json:"quizId" validate:"required"`
	StudentID string             `json:"studentId" validate:"required"`
	IsPresent bool               `json:"isPresent"`
	Questions []SubmissionAnswer `json:"questions" validate:"dive"`
}

// SubmitResult is returned to the student after a submission.
type SubmitResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	PointsObtained *int   `json:"pointsObtained,omitempty"`
}

// QuestionAttempt is a graded question.
type QuestionAttempt struct {
	Question
	AnswerSubmitted   SubmittedAnswer `json:"answerSubmitted"`
	PointsObtained    int             `json:"pointsObtained"`
	FeedbackAutomated *string         `json:"feedbackAutomated"`
	FeedbackTeacher   *string         `json:"feedbackTeacher"`
}

// StudentQuizAttempt is the single stored attempt of a student for a quiz.
// PointsObtained always equals the sum over Questions.
type StudentQuizAttempt struct {
	ID                string            `json:"id"`
	QuizID            string            `json:"quizId"`
	StudentID         string            `json:"studentId"`
	ClassroomID       string            `json:"classroomId"`
	Title             string            `json:"title"`
	Instruction       string            `json:"instruction"`
	StartTime         *time.Time        `json:"startTime,omitempty"`
	EndTime           *time.Time        `json:"endTime,omitempty"`
	IsPresent         bool              `json:"isPresent"`
	TotalPoints       int               `json:"totalPoints"`
	PointsObtained    int               `json:"pointsObtained"`
	FeedbackAutomated *string           `json:"feedbackAutomated"`
	FeedbackTeacher   *string           `json:"feedbackTeacher"`
	Questions         []QuestionAttempt `json:"questions"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Key identifies an attempt.
func (a StudentQuizAttempt) Key() AttemptKey {
	return AttemptKey{QuizID: a.QuizID, StudentID: a.StudentID}
}

// AttemptKey is the (quiz, student) pair an attempt is unique on.
type AttemptKey struct {
	QuizID    string
	StudentID string
}

func (k AttemptKey) String() string {
	return k.QuizID + ":" + k.StudentID
}

// TeacherFeedback is the teacher's commentary for one attempt.
type TeacherFeedback struct {
	QuizID            string             `json:"quizId" validate:"required"`
	StudentID         string             `json:"studentId" validate:"required"`
	GeneralFeedback   *string            `json:"generalFeedback"`
	QuestionFeedbacks []QuestionFeedback `json:"questionFeedbacks" validate:"dive"`
}

// QuestionFeedback targets a single question. A nil FeedbackText clears it.
type QuestionFeedback struct {
	QuestionID   string  `json:"questionId" validate:"required"`
	FeedbackText *string `json:"feedbackText"`
}

// Standing is a pre-aggregated point total for one student.
type Standing struct {
	Student        Student
	ObtainedPoints int
}

// StudentResult is a ranked standing. It is computed per request and never stored.
type StudentResult struct {
	Ranking        int     `json:"ranking"`
	ObtainedPoints int     `json:"obtainedPoints"`
	Student        Student `json:"student"`
}

// SubmissionSummary is a row of the teacher's submissions list.
type SubmissionSummary struct {
	StudentID      string    `json:"studentId"`
	StudentName    string    `json:"studentName"`
	StudentLast    string    `json:"studentLastName"`
	PointsObtained int       `json:"pointsObtained"`
	TotalPoints    int       `json:"totalPoints"`
	SubmittedAt    time.Time `json:"submissionDate"`
}

// QuizStatus is a quiz with its window state at read time.
type QuizStatus struct {
	Quiz  QuizForTaking `json:"quiz"`
	State WindowState   `json:"state"`
}

// StudentQuizStatus adds the student's own attempt to a QuizStatus.
type StudentQuizStatus struct {
	QuizStatus
	Attempted      bool `json:"attempted"`
	PointsObtained *int `json:"pointsObtained,omitempty"`
	CanStart       bool `json:"canStart"`
}
