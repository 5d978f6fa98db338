package http

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-attempt-service/internal/app"
)

// Handlers binds the application services to REST endpoints.
type Handlers struct {
	attempts *app.AttemptService
	catalog  *app.CatalogService
	stats    *app.StatisticsService
	validate *validator.Validate
}

func NewHandlers(attempts *app.AttemptService, catalog *app.CatalogService, stats *app.StatisticsService) *Handlers {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handlers{attempts: attempts, catalog: catalog, stats: stats, validate: validate}
}

type submitRequest struct {
	QuizID  int64            `json:"quizId" validate:"required,gt=0"`
	Answers map[int64]string `json:"answers"`
}

func (h *Handlers) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.attempts.StartAttempt(r.Context(), quizID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.attempts.SubmitAttempt(r.Context(), req.QuizID, req.Answers, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	attemptID, err := idParam(r, "attemptID")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.attempts.GetResult(r.Context(), attemptID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListMyAttempts(w http.ResponseWriter, r *http.Request) {
	list, err := h.attempts.ListMyAttempts(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ListAttemptsForQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.attempts.ListAttemptsForQuiz(r.Context(), quizID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ListAttemptsForMyQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := h.attempts.ListAttemptsForMyQuizzes(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, err := idParam(r, "attemptID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.attempts.DeleteAttempt(r.Context(), attemptID, PrincipalFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) QuizStatistics(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.stats.QuizStatistics(r.Context(), quizID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) MyStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.MyStatistics(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
