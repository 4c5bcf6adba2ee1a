package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	calls    int
	payloads []domain.SubmissionPayload
	err      error
}

func (r *recordingSubmitter) submit(_ context.Context, p domain.SubmissionPayload) (domain.SubmitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.payloads = append(r.payloads, p)
	if r.err != nil {
		return domain.SubmitResult{Message: r.err.Error()}, r.err
	}
	points := 5
	return domain.SubmitResult{Success: true, PointsObtained: &points}, nil
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitDone(t *testing.T, s *app.AttemptSession) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not stop")
	}
}

func TestSessionAutoSubmitsOnceAtExpiry(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	sub := &recordingSubmitter{}
	var outcomes []app.SubmitOutcome
	session := app.NewAttemptSession(quiz, "s1", sub.submit, app.SessionOptions{
		TickInterval: time.Hour,
		Now:          clock.Now,
		OnSubmit:     func(o app.SubmitOutcome) { outcomes = append(outcomes, o) },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Answer("q1", domain.Text("Paris")); err != nil {
		t.Fatalf("answer: %v", err)
	}

	if remaining := session.Tick(context.Background()); remaining <= 0 {
		t.Fatalf("expected time left, got %v", remaining)
	}
	clock.Advance(2 * time.Hour)
	session.Tick(context.Background())
	session.Tick(context.Background())

	if sub.count() != 1 {
		t.Fatalf("expected exactly one submission, got %d", sub.count())
	}
	if len(outcomes) != 1 || !outcomes[0].Auto || !outcomes[0].Terminal {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	if session.State() != app.SessionClosed {
		t.Fatalf("expected closed, got %s", session.State())
	}
	if _, ok := session.Result(); !ok {
		t.Fatalf("expected stored result")
	}
	waitDone(t, session)

	payload := sub.payloads[0]
	if len(payload.Questions) != 2 || !payload.IsPresent {
		t.Fatalf("payload should include every question, got %+v", payload)
	}
	if _, ok := payload.Questions[1].AnswerSubmitted.Value.(domain.ChoiceAnswer); !ok {
		t.Fatalf("unanswered choice question should carry an empty choice")
	}
}

func TestSessionRealTickerSubmitsOnce(t *testing.T) {
	now := time.Now()
	start := now.Add(-time.Second)
	end := now.Add(150 * time.Millisecond)
	quiz := domain.QuizForTaking{
		ID:        "quiz-1",
		StartTime: &start,
		EndTime:   &end,
		Questions: []domain.QuestionForTaking{{ID: "q1", AnswerBase: domain.FreeTextBase()}},
	}
	sub := &recordingSubmitter{}
	var ticks atomic.Int32
	session := app.NewAttemptSession(quiz, "s1", sub.submit, app.SessionOptions{
		TickInterval: 20 * time.Millisecond,
		OnTick:       func(time.Duration) { ticks.Add(1) },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, session)

	if sub.count() != 1 {
		t.Fatalf("expected exactly one submission, got %d", sub.count())
	}
	if ticks.Load() == 0 {
		t.Fatalf("expected countdown ticks")
	}
	if _, err := session.Submit(context.Background()); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session error, got %v", err)
	}
}

func TestSessionManualSubmitRacesCountdown(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	release := make(chan struct{})
	var calls atomic.Int32
	submit := func(ctx context.Context, p domain.SubmissionPayload) (domain.SubmitResult, error) {
		calls.Add(1)
		<-release
		return domain.SubmitResult{Success: true}, nil
	}
	session := app.NewAttemptSession(quiz, "s1", submit, app.SessionOptions{TickInterval: time.Hour, Now: clock.Now})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background())
		errCh <- err
	}()
	for session.State() != app.SessionSubmitting {
		time.Sleep(time.Millisecond)
	}
	clock.Advance(2 * time.Hour)
	session.Tick(context.Background())
	if _, err := session.Submit(context.Background()); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
	close(release)

	if err := <-errCh; err != nil {
		t.Fatalf("manual submit: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one submission, got %d", calls.Load())
	}
	waitDone(t, session)
}

func TestSessionCloseDoesNotAbortPendingSubmit(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	entered := make(chan struct{})
	release := make(chan struct{})
	ctxErr := make(chan error, 1)
	submit := func(ctx context.Context, p domain.SubmissionPayload) (domain.SubmitResult, error) {
		close(entered)
		<-release
		ctxErr <- ctx.Err()
		if err := ctx.Err(); err != nil {
			return domain.SubmitResult{Message: err.Error()}, err
		}
		return domain.SubmitResult{Success: true}, nil
	}
	var outcome app.SubmitOutcome
	session := app.NewAttemptSession(quiz, "s1", submit, app.SessionOptions{
		TickInterval: time.Hour,
		Now:          clock.Now,
		OnSubmit:     func(o app.SubmitOutcome) { outcome = o },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	clock.Advance(2 * time.Hour)
	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		session.Tick(tickCtx)
	}()
	<-entered

	cancel()
	session.Close()
	close(release)
	<-ticked

	if err := <-ctxErr; err != nil {
		t.Fatalf("submission context canceled by close: %v", err)
	}
	if outcome.Err != nil || !outcome.Result.Success || !outcome.Auto {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if session.State() != app.SessionClosed {
		t.Fatalf("expected closed, got %s", session.State())
	}
	waitDone(t, session)
}

func TestSessionFailedSubmitCanRetryWhileActive(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	sub := &recordingSubmitter{err: errors.New("store down")}
	var last app.SubmitOutcome
	session := app.NewAttemptSession(quiz, "s1", sub.submit, app.SessionOptions{
		TickInterval: time.Hour,
		Now:          clock.Now,
		OnSubmit:     func(o app.SubmitOutcome) { last = o },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := session.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit error")
	}
	if last.Terminal || session.State() != app.SessionInProgress {
		t.Fatalf("failure inside the window must allow a retry, state=%s outcome=%+v", session.State(), last)
	}

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if session.State() != app.SessionClosed || sub.count() != 2 {
		t.Fatalf("expected closed after retry, state=%s calls=%d", session.State(), sub.count())
	}
}

func TestSessionFailedAutoSubmitIsTerminal(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	sub := &recordingSubmitter{err: domain.ErrWindowViolation}
	var last app.SubmitOutcome
	session := app.NewAttemptSession(quiz, "s1", sub.submit, app.SessionOptions{
		TickInterval: time.Hour,
		Now:          clock.Now,
		OnSubmit:     func(o app.SubmitOutcome) { last = o },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(2 * time.Hour)
	session.Tick(context.Background())

	if !last.Terminal || !last.Auto {
		t.Fatalf("expected terminal auto outcome, got %+v", last)
	}
	if !errors.Is(session.Err(), domain.ErrWindowViolation) {
		t.Fatalf("expected window violation, got %v", session.Err())
	}
	session.Tick(context.Background())
	if sub.count() != 1 {
		t.Fatalf("expected one submission, got %d", sub.count())
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	clock := newFakeClock(time.Now())
	quiz := domain.ForTaking(sampleQuiz(clock.Now()))
	var closes atomic.Int32
	session := app.NewAttemptSession(quiz, "s1", (&recordingSubmitter{}).submit, app.SessionOptions{
		TickInterval: time.Hour,
		Now:          clock.Now,
		OnClose:      func() { closes.Add(1) },
	})
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	session.Close()
	session.Close()
	waitDone(t, session)

	if closes.Load() != 1 {
		t.Fatalf("expected one close callback, got %d", closes.Load())
	}
	if err := session.Answer("q1", domain.Text("Paris")); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if err := session.Answer("q9", domain.Text("?")); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected unknown question, got %v", err)
	}
}

func TestSessionRefusesInactiveQuiz(t *testing.T) {
	clock := newFakeClock(time.Now())
	def := sampleQuiz(clock.Now())
	start := clock.Now().Add(time.Hour)
	def.StartTime = &start
	session := app.NewAttemptSession(domain.ForTaking(def), "s1", (&recordingSubmitter{}).submit, app.SessionOptions{Now: clock.Now})

	if err := session.Start(context.Background()); !errors.Is(err, domain.ErrQuizNotActive) {
		t.Fatalf("expected quiz not active, got %v", err)
	}
	waitDone(t, session)
}
