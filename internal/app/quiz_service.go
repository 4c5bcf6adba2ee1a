package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizStore loads and saves quiz definitions (in-memory, Postgres, cached, etc).
type QuizStore interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	SaveQuiz(ctx context.Context, quiz domain.QuizDefinition) error
	ListQuizzes(ctx context.Context, classroomID string) ([]domain.QuizDefinition, error)
}

// AttemptStore persists graded attempts, unique on (quiz, student).
type AttemptStore interface {
	GetAttempt(ctx context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error)
	// PutAttempt inserts or replaces the attempt.
	PutAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error
	// CreateAttempt inserts the attempt or fails with domain.ErrAttemptExists.
	CreateAttempt(ctx context.Context, attempt domain.StudentQuizAttempt) error
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.StudentQuizAttempt, error)
	ListAttemptsByClassroom(ctx context.Context, classroomID string) ([]domain.StudentQuizAttempt, error)
}

// Directory exposes the classroom roster and competencies.
type Directory interface {
	ListStudents(ctx context.Context, classroomID string) ([]domain.Student, error)
	GetCompetency(ctx context.Context, competencyID string) (domain.Competency, error)
}

// SessionRepository tracks open attempt sessions by attempt key.
type SessionRepository interface {
	Put(session *AttemptSession)
	Get(key domain.AttemptKey) (*AttemptSession, bool)
	Delete(key domain.AttemptKey)
}

// AttemptPolicy decides what a repeated submission does.
type AttemptPolicy string

const (
	// PolicyOverwrite replaces the earlier attempt (last write wins).
	PolicyOverwrite AttemptPolicy = "overwrite"
	// PolicySingle rejects every submission after the first.
	PolicySingle AttemptPolicy = "single"
)

// ParsePolicy falls back to PolicyOverwrite for unknown values.
func ParsePolicy(raw string) AttemptPolicy {
	if AttemptPolicy(raw) == PolicySingle {
		return PolicySingle
	}
	return PolicyOverwrite
}

// DefaultLateGrace covers the gap between end_time and the countdown's
// forced submission reaching the server.
const DefaultLateGrace = 5 * time.Second

// Options configures QuizService. Zero values fall back to defaults.
type Options struct {
	Policy       AttemptPolicy
	LateGrace    time.Duration
	TickInterval time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// QuizService contains the quiz use cases.
type QuizService struct {
	quizzes   QuizStore
	attempts  AttemptStore
	directory Directory
	sessions  SessionRepository
	feedback  *FeedbackStore

	policy    AttemptPolicy
	lateGrace time.Duration
	tick      time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewQuizService(quizzes QuizStore, attempts AttemptStore, directory Directory, sessions SessionRepository, opts Options) *QuizService {
	if opts.Policy == "" {
		opts.Policy = PolicyOverwrite
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.LateGrace <= 0 {
		opts.LateGrace = DefaultLateGrace
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	feedback := NewFeedbackStore(attempts)
	feedback.now = opts.Now
	return &QuizService{
		quizzes:   quizzes,
		attempts:  attempts,
		directory: directory,
		sessions:  sessions,
		feedback:  feedback,
		policy:    opts.Policy,
		lateGrace: opts.LateGrace,
		tick:      opts.TickInterval,
		log:       opts.Logger,
		now:       opts.Now,
	}
}

// CreateQuiz validates the payload, assigns ids and stores the definition.
func (s *QuizService) CreateQuiz(ctx context.Context, payload domain.NewQuiz) (domain.QuizDefinition, error) {
	if err := domain.ValidateQuiz(payload); err != nil {
		return domain.QuizDefinition{}, err
	}
	quiz := domain.QuizDefinition{
		ID:          uuid.NewString(),
		ClassroomID: payload.ClassroomID,
		Title:       payload.Title,
		Instruction: payload.Instruction,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
		Questions:   make([]domain.Question, 0, len(payload.Questions)),
		CreatedAt:   s.now(),
	}
	seen := make(map[string]bool, len(payload.Questions))
	for _, q := range payload.Questions {
		id := q.ID
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            id,
			Statement:     q.Statement,
			Points:        q.Points,
			AnswerBase:    q.AnswerBase,
			AnswerCorrect: q.AnswerCorrect,
			CompetencesID: q.CompetencesID,
		})
	}
	quiz.TotalPoints = domain.SumPoints(quiz.Questions)

	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("save quiz: %w", err)
	}
	s.log.InfoContext(ctx, "quiz created", "quiz_id", quiz.ID, "classroom_id", quiz.ClassroomID, "total_points", quiz.TotalPoints)
	return quiz, nil
}

// ListClassroomQuizzes returns every quiz of a classroom with its window state.
func (s *QuizService) ListClassroomQuizzes(ctx context.Context, classroomID string) ([]domain.QuizStatus, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]domain.QuizStatus, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, domain.QuizStatus{Quiz: domain.ForTaking(q), State: q.State(now)})
	}
	return out, nil
}

// ListStudentQuizzes adds the student's own attempt to each quiz of a classroom.
func (s *QuizService) ListStudentQuizzes(ctx context.Context, classroomID, studentID string) ([]domain.StudentQuizStatus, error) {
	statuses, err := s.ListClassroomQuizzes(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StudentQuizStatus, 0, len(statuses))
	for _, st := range statuses {
		view := domain.StudentQuizStatus{QuizStatus: st}
		attempt, err := s.attempts.GetAttempt(ctx, st.Quiz.ID, studentID)
		switch {
		case err == nil:
			points := attempt.PointsObtained
			view.Attempted = true
			view.PointsObtained = &points
		case !errors.Is(err, domain.ErrAttemptNotFound):
			return nil, err
		}
		view.CanStart = st.State == domain.Active && s.mayAttempt(view.PointsObtained)
		out = append(out, view)
	}
	return out, nil
}

// mayAttempt: under overwrite a zero-point attempt may be retaken.
func (s *QuizService) mayAttempt(points *int) bool {
	if points == nil {
		return true
	}
	return s.policy == PolicyOverwrite && *points == 0
}

// FetchQuizForTaking returns the quiz without any correct answer.
func (s *QuizService) FetchQuizForTaking(ctx context.Context, quizID string) (domain.QuizForTaking, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizForTaking{}, err
	}
	return domain.ForTaking(quiz), nil
}

// StartAttempt opens a countdown session for a student. An earlier open
// session for the same attempt key is closed first.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, studentID string, opts SessionOptions) (*AttemptSession, error) {
	quiz, err := s.FetchQuizForTaking(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.attempts.GetAttempt(ctx, quizID, studentID)
	switch {
	case err == nil:
		points := attempt.PointsObtained
		if !s.mayAttempt(&points) {
			return nil, domain.ErrAttemptExists
		}
	case !errors.Is(err, domain.ErrAttemptNotFound):
		return nil, err
	}

	key := domain.AttemptKey{QuizID: quizID, StudentID: studentID}
	if prev, ok := s.sessions.Get(key); ok {
		prev.Close()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = s.tick
	}
	if opts.Now == nil {
		opts.Now = s.now
	}
	onClose := opts.OnClose
	var session *AttemptSession
	opts.OnClose = func() {
		s.release(key, session)
		if onClose != nil {
			onClose()
		}
	}
	session = NewAttemptSession(quiz, studentID, s.SubmitAttempt, opts)
	// Registered before Start so a session that closes immediately is
	// still removed by its own OnClose.
	s.sessions.Put(session)
	if err := session.Start(ctx); err != nil {
		s.release(key, session)
		return nil, err
	}
	s.log.DebugContext(ctx, "attempt session started", "quiz_id", quizID, "student_id", studentID, "remaining", session.Remaining())
	return session, nil
}

// release drops key from the registry if it still points at session.
func (s *QuizService) release(key domain.AttemptKey, session *AttemptSession) {
	if cur, ok := s.sessions.Get(key); ok && cur == session {
		s.sessions.Delete(key)
	}
}

// CloseAttempt cancels an open session. Unknown keys are ignored.
func (s *QuizService) CloseAttempt(quizID, studentID string) {
	key := domain.AttemptKey{QuizID: quizID, StudentID: studentID}
	if session, ok := s.sessions.Get(key); ok {
		session.Close()
		s.sessions.Delete(key)
	}
}

// SubmitAttempt grades a submission and stores it as the student's attempt.
func (s *QuizService) SubmitAttempt(ctx context.Context, payload domain.SubmissionPayload) (domain.SubmitResult, error) {
	if err := domain.Struct(payload); err != nil {
		return domain.SubmitResult{Message: err.Error()}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, payload.QuizID)
	if err != nil {
		return domain.SubmitResult{Message: err.Error()}, err
	}
	now := s.now()
	if err := s.checkWindow(quiz, now); err != nil {
		s.log.WarnContext(ctx, "submission rejected", "quiz_id", quiz.ID, "student_id", payload.StudentID, "error", err)
		return domain.SubmitResult{Message: err.Error()}, err
	}

	report := Grade(quiz, payload.Questions)
	for _, u := range report.Unmatched {
		s.log.WarnContext(ctx, "submitted answer for unknown question", "quiz_id", quiz.ID, "student_id", payload.StudentID, "question_id", u.QuestionID)
	}
	feedback := report.Feedback
	attempt := domain.StudentQuizAttempt{
		ID:                uuid.NewString(),
		QuizID:            quiz.ID,
		StudentID:         payload.StudentID,
		ClassroomID:       quiz.ClassroomID,
		Title:             quiz.Title,
		Instruction:       quiz.Instruction,
		StartTime:         quiz.StartTime,
		EndTime:           quiz.EndTime,
		IsPresent:         payload.IsPresent,
		TotalPoints:       quiz.TotalPoints,
		PointsObtained:    report.Total,
		FeedbackAutomated: &feedback,
		Questions:         report.Questions,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if s.policy == PolicySingle {
		err = s.attempts.CreateAttempt(ctx, attempt)
	} else {
		err = s.attempts.PutAttempt(ctx, attempt)
	}
	if err != nil {
		if errors.Is(err, domain.ErrAttemptExists) {
			return domain.SubmitResult{Message: err.Error()}, err
		}
		return domain.SubmitResult{Message: "could not store attempt"}, fmt.Errorf("store attempt: %w", err)
	}

	s.log.InfoContext(ctx, "attempt graded", "quiz_id", quiz.ID, "student_id", payload.StudentID, "points", report.Total, "total_points", quiz.TotalPoints)
	points := report.Total
	return domain.SubmitResult{
		Success:        true,
		Message:        fmt.Sprintf("Quiz submitted: %d/%d points.", points, quiz.TotalPoints),
		PointsObtained: &points,
	}, nil
}

// checkWindow rejects submissions before the window opens or after
// end_time plus the configured grace.
func (s *QuizService) checkWindow(quiz domain.QuizDefinition, now time.Time) error {
	switch quiz.State(now) {
	case domain.Active:
		return nil
	case domain.Scheduled:
		return fmt.Errorf("%w: quiz has not started", domain.ErrWindowViolation)
	default:
		if quiz.EndTime != nil && !now.After(quiz.EndTime.Add(s.lateGrace)) {
			return nil
		}
		return fmt.Errorf("%w: quiz ended", domain.ErrWindowViolation)
	}
}

// SaveTeacherFeedback applies the teacher's comments to a stored attempt.
func (s *QuizService) SaveTeacherFeedback(ctx context.Context, fb domain.TeacherFeedback) (domain.StudentQuizAttempt, error) {
	if err := domain.Struct(fb); err != nil {
		return domain.StudentQuizAttempt{}, err
	}
	attempt, err := s.feedback.ApplyTeacherFeedback(ctx, fb)
	if err != nil {
		return domain.StudentQuizAttempt{}, err
	}
	s.log.InfoContext(ctx, "teacher feedback saved", "quiz_id", fb.QuizID, "student_id", fb.StudentID, "questions", len(fb.QuestionFeedbacks))
	return attempt, nil
}

// FetchAttempt returns the full graded attempt with both feedback layers.
func (s *QuizService) FetchAttempt(ctx context.Context, quizID, studentID string) (domain.StudentQuizAttempt, error) {
	return s.feedback.Get(ctx, quizID, studentID)
}

// ListSubmissions summarizes the attempts of a quiz, earliest first.
func (s *QuizService) ListSubmissions(ctx context.Context, quizID string) ([]domain.SubmissionSummary, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	roster, err := s.directory.ListStudents(ctx, quiz.ClassroomID)
	if err != nil {
		return nil, err
	}
	students := make(map[string]domain.Student, len(roster))
	for _, st := range roster {
		students[st.ID] = st
	}

	out := make([]domain.SubmissionSummary, 0, len(attempts))
	for _, a := range attempts {
		st := students[a.StudentID]
		out = append(out, domain.SubmissionSummary{
			StudentID:      a.StudentID,
			StudentName:    st.Name,
			StudentLast:    st.LastName,
			PointsObtained: a.PointsObtained,
			TotalPoints:    a.TotalPoints,
			SubmittedAt:    a.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// FetchResults ranks the classroom roster by points. filter is "general" (or
// empty) for every question, otherwise a competency id.
func (s *QuizService) FetchResults(ctx context.Context, classroomID, filter string) ([]domain.StudentResult, error) {
	if filter != "" && filter != GeneralFilter {
		if _, err := s.directory.GetCompetency(ctx, filter); err != nil {
			return nil, err
		}
	}
	roster, err := s.directory.ListStudents(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListAttemptsByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return Rank(Aggregate(roster, attempts, filter)), nil
}
