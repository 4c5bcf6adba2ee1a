package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs a student's timed attempt over a websocket.
type WSHandler struct {
	service  *app.QuizService
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string                 `json:"questionId"`
	Answer     domain.SubmittedAnswer `json:"answer"`
}

type quizPayload struct {
	Quiz             domain.QuizForTaking `json:"quiz"`
	RemainingSeconds int                  `json:"remainingSeconds"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type submittedPayload struct {
	domain.SubmitResult
	Auto bool `json:"auto"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Retry   bool   `json:"retry,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and drives an AttemptSession.
// Closing the socket before submitting discards the attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	studentID := r.URL.Query().Get("studentId")
	if quizID == "" || studentID == "" {
		http.Error(w, "missing quizId or studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	session, err := h.service.StartAttempt(r.Context(), quizID, studentID, app.SessionOptions{
		OnTick: func(remaining time.Duration) {
			emit(outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingSeconds: seconds(remaining)}})
		},
		OnSubmit: func(o app.SubmitOutcome) {
			if o.Err != nil {
				h.log.Warn("attempt submission failed", "quiz_id", quizID, "student_id", studentID, "auto", o.Auto, "error", o.Err)
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: o.Err.Error(), Retry: !o.Terminal}})
				return
			}
			if o.Auto {
				h.log.Info("attempt auto-submitted at expiry", "quiz_id", quizID, "student_id", studentID)
			}
			emit(outboundMessage[any]{Type: "submitted", Payload: submittedPayload{SubmitResult: o.Result, Auto: o.Auto}})
		},
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	emit(outboundMessage[any]{Type: "quiz", Payload: quizPayload{
		Quiz:             session.Quiz(),
		RemainingSeconds: seconds(session.Remaining()),
	}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := session.Answer(payload.QuestionID, payload.Answer); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "submit":
			// The outcome is reported through OnSubmit.
			if _, err := session.Submit(r.Context()); errors.Is(err, domain.ErrAlreadySubmitted) || errors.Is(err, domain.ErrSessionClosed) {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	session.Close()
	<-session.Done()
	close(send)
	<-writerDone
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
