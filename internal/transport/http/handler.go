package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/mux"
)

// Handler serves the REST surface of the quiz service.
type Handler struct {
	service *app.QuizService
	log     *slog.Logger
}

func NewHandler(service *app.QuizService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, log: logger}
}

// NewRouter wires REST and websocket routes.
func NewRouter(service *app.QuizService, logger *slog.Logger) *mux.Router {
	h := NewHandler(service, logger)
	ws := NewWSHandler(service, logger)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/attempt", ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{quizId}/take", h.quizForTaking).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizId}/attempts", h.submitAttempt).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{quizId}/attempts", h.listSubmissions).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizId}/attempts/{studentId}", h.attemptDetails).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizId}/attempts/{studentId}/feedback", h.saveFeedback).Methods(http.MethodPut)
	api.HandleFunc("/classrooms/{classroomId}/quizzes", h.classroomQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/classrooms/{classroomId}/students/{studentId}/quizzes", h.studentQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/classrooms/{classroomId}/results", h.results).Methods(http.MethodGet)
	return r
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type resultsResponse struct {
	Filter  string                   `json:"filter"`
	Results []domain.StudentResult   `json:"results"`
	Podium  [3]*domain.StudentResult `json:"podium"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var payload domain.NewQuiz
	if !h.decode(w, r, &payload) {
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) quizForTaking(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.FetchQuizForTaking(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var payload domain.SubmissionPayload
	if !h.decode(w, r, &payload) {
		return
	}
	payload.QuizID = mux.Vars(r)["quizId"]
	result, err := h.service.SubmitAttempt(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListSubmissions(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) attemptDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	attempt, err := h.service.FetchAttempt(r.Context(), vars["quizId"], vars["studentId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) saveFeedback(w http.ResponseWriter, r *http.Request) {
	var payload domain.TeacherFeedback
	if !h.decode(w, r, &payload) {
		return
	}
	vars := mux.Vars(r)
	payload.QuizID = vars["quizId"]
	payload.StudentID = vars["studentId"]
	if _, err := h.service.SaveTeacherFeedback(r.Context(), payload); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "feedback saved"})
}

func (h *Handler) classroomQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListClassroomQuizzes(r.Context(), mux.Vars(r)["classroomId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) studentQuizzes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	quizzes, err := h.service.ListStudentQuizzes(r.Context(), vars["classroomId"], vars["studentId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("competency")
	if filter == "" {
		filter = app.GeneralFilter
	}
	results, err := h.service.FetchResults(r.Context(), mux.Vars(r)["classroomId"], filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Filter: filter, Results: results, Podium: app.Podium(results)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, messageResponse{Message: "internal error"})
		return
	}
	writeJSON(w, status, messageResponse{Message: err.Error()})
}

func statusFor(err error) int {
	var validation *domain.ValidationError
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWindowViolation),
		errors.Is(err, domain.ErrAttemptExists),
		errors.Is(err, domain.ErrQuizNotActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
