package app

import (
	"context"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

// SessionState is the lifecycle of an open attempt.
type SessionState string

const (
	SessionLoading    SessionState = "loading"
	SessionInProgress SessionState = "in_progress"
	SessionSubmitting SessionState = "submitting"
	SessionClosed     SessionState = "closed"
)

// Submitter hands a packaged attempt to grading.
type Submitter func(ctx context.Context, payload domain.SubmissionPayload) (domain.SubmitResult, error)

// SubmitOutcome is reported once per submission try.
type SubmitOutcome struct {
	Result domain.SubmitResult
	Err    error
	// Auto is true when the countdown forced the submission.
	Auto bool
	// Terminal is true when the session closed with this outcome.
	Terminal bool
}

// SessionOptions tunes an AttemptSession. Zero values fall back to defaults.
type SessionOptions struct {
	TickInterval time.Duration
	Now          func() time.Time
	OnTick       func(remaining time.Duration)
	OnSubmit     func(SubmitOutcome)
	OnClose      func()
}

// AttemptSession is one student's open attempt at a quiz. It holds the
// in-progress answers and a countdown that forces a single submission at the
// end of the quiz window. At most one submission is in flight at any time,
// whichever of Submit or the countdown gets there first.
type AttemptSession struct {
	key      domain.AttemptKey
	quiz     domain.QuizForTaking
	submit   Submitter
	now      func() time.Time
	interval time.Duration
	onTick   func(time.Duration)
	onSubmit func(SubmitOutcome)
	onClose  func()

	mu        sync.Mutex
	state     SessionState
	submitted bool
	closed    bool
	answers   map[string]domain.SubmittedAnswer
	result    *domain.SubmitResult
	lastErr   error
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewAttemptSession(quiz domain.QuizForTaking, studentID string, submit Submitter, opts SessionOptions) *AttemptSession {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttemptSession{
		key:      domain.AttemptKey{QuizID: quiz.ID, StudentID: studentID},
		quiz:     quiz,
		submit:   submit,
		now:      opts.Now,
		interval: opts.TickInterval,
		onTick:   opts.OnTick,
		onSubmit: opts.OnSubmit,
		onClose:  opts.OnClose,
		state:    SessionLoading,
		answers:  make(map[string]domain.SubmittedAnswer),
		done:     make(chan struct{}),
	}
}

func (s *AttemptSession) Key() domain.AttemptKey { return s.key }

func (s *AttemptSession) Quiz() domain.QuizForTaking { return s.quiz }

func (s *AttemptSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result is the successful submission result, if any.
func (s *AttemptSession) Result() (domain.SubmitResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.SubmitResult{}, false
	}
	return *s.result, true
}

// Err is the terminal error of a session that closed without a result.
func (s *AttemptSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Done is closed once the countdown has stopped.
func (s *AttemptSession) Done() <-chan struct{} { return s.done }

// Remaining is the countdown value at the session clock.
func (s *AttemptSession) Remaining() time.Duration {
	return domain.Remaining(s.now(), s.quiz.EndTime)
}

// Start moves the session to InProgress and starts the countdown. It refuses
// to start unless the quiz window is active.
func (s *AttemptSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SessionLoading {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if domain.WindowAt(s.now(), s.quiz.StartTime, s.quiz.EndTime) != domain.Active {
		s.mu.Unlock()
		s.Close()
		return domain.ErrQuizNotActive
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.state = SessionInProgress
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

func (s *AttemptSession) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick is the countdown callback. It reports the remaining time and forces
// the submission once the countdown reaches zero. Calling it again after the
// submission was sent has no effect.
func (s *AttemptSession) Tick(ctx context.Context) time.Duration {
	remaining := s.Remaining()
	s.mu.Lock()
	inProgress := s.state == SessionInProgress
	s.mu.Unlock()
	if !inProgress {
		return remaining
	}
	if s.onTick != nil {
		s.onTick(remaining)
	}
	if remaining <= 0 {
		_, _ = s.fire(ctx, true)
	}
	return remaining
}

// Answer records or replaces the answer to one question.
func (s *AttemptSession) Answer(questionID string, answer domain.SubmittedAnswer) error {
	if !s.hasQuestion(questionID) {
		return domain.ErrQuestionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionInProgress {
		return domain.ErrSessionClosed
	}
	s.answers[questionID] = answer
	return nil
}

// Submit sends the answers collected so far.
func (s *AttemptSession) Submit(ctx context.Context) (domain.SubmitResult, error) {
	return s.fire(ctx, false)
}

func (s *AttemptSession) fire(ctx context.Context, auto bool) (domain.SubmitResult, error) {
	s.mu.Lock()
	if s.state == SessionClosed {
		s.mu.Unlock()
		return domain.SubmitResult{}, domain.ErrSessionClosed
	}
	if s.submitted || s.state != SessionInProgress {
		s.mu.Unlock()
		return domain.SubmitResult{}, domain.ErrAlreadySubmitted
	}
	s.submitted = true
	s.state = SessionSubmitting
	payload := s.payloadLocked()
	s.mu.Unlock()

	// Close stops the countdown but must not abort a submission in flight.
	result, err := s.submit(context.WithoutCancel(ctx), payload)

	s.mu.Lock()
	outcome := SubmitOutcome{Result: result, Err: err, Auto: auto}
	switch {
	case err == nil:
		s.result = &result
		s.state = SessionClosed
		outcome.Terminal = true
	case domain.WindowAt(s.now(), s.quiz.StartTime, s.quiz.EndTime) == domain.Expired:
		s.lastErr = err
		s.state = SessionClosed
		outcome.Terminal = true
	case s.closed:
		s.lastErr = err
		s.state = SessionClosed
		outcome.Terminal = true
	default:
		s.submitted = false
		s.state = SessionInProgress
	}
	s.mu.Unlock()

	if s.onSubmit != nil {
		s.onSubmit(outcome)
	}
	if outcome.Terminal {
		s.Close()
	}
	return result, err
}

func (s *AttemptSession) payloadLocked() domain.SubmissionPayload {
	questions := make([]domain.SubmissionAnswer, 0, len(s.quiz.Questions))
	for _, q := range s.quiz.Questions {
		answer, ok := s.answers[q.ID]
		if !ok || answer.Value == nil {
			answer = domain.Unanswered(q.AnswerBase.Format)
		}
		questions = append(questions, domain.SubmissionAnswer{QuestionID: q.ID, AnswerSubmitted: answer})
	}
	return domain.SubmissionPayload{
		QuizID:    s.key.QuizID,
		StudentID: s.key.StudentID,
		IsPresent: true,
		Questions: questions,
	}
}

func (s *AttemptSession) hasQuestion(id string) bool {
	for _, q := range s.quiz.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Close stops the countdown and discards unsent answers. It is safe to call
// any number of times and from any state.
func (s *AttemptSession) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.state != SessionSubmitting {
			s.state = SessionClosed
		}
		s.answers = make(map[string]domain.SubmittedAnswer)
		cancel := s.cancel
		started := cancel != nil
		s.mu.Unlock()

		if started {
			cancel()
		} else {
			close(s.done)
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
}
