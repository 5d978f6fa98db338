package http

import (
	"net/http"

	"quiz-attempt-service/internal/app"
)

type quizRequest struct {
	Code              string `json:"code" validate:"omitempty,max=32"`
	Title             string `json:"title" validate:"required,max=255"`
	Description       string `json:"description" validate:"max=2000"`
	MaxMarks          int    `json:"maxMarks" validate:"gt=0"`
	NumberOfQuestions int    `json:"numberOfQuestions" validate:"gt=0"`
	Active            bool   `json:"active"`
}

func (q quizRequest) input() app.QuizInput {
	return app.QuizInput{
		Code:              q.Code,
		Title:             q.Title,
		Description:       q.Description,
		MaxMarks:          q.MaxMarks,
		NumberOfQuestions: q.NumberOfQuestions,
		Active:            q.Active,
	}
}

type questionRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
	Image   string `json:"image" validate:"omitempty,max=1024"`
	Option1 string `json:"option1" validate:"max=1000"`
	Option2 string `json:"option2" validate:"max=1000"`
	Option3 string `json:"option3" validate:"max=1000"`
	Option4 string `json:"option4" validate:"max=1000"`
	Answer  string `json:"answer" validate:"required,max=1000"`
}

func (q questionRequest) input() app.QuestionInput {
	return app.QuestionInput{
		Content: q.Content,
		Image:   q.Image,
		Option1: q.Option1,
		Option2: q.Option2,
		Option3: q.Option3,
		Option4: q.Option4,
		Answer:  q.Answer,
	}
}

// ListQuizzes returns active quizzes; admins may pass ?all=true to include inactive ones.
func (h *Handlers) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Query().Get("all") == "true" {
		list, err := h.catalog.ListAllQuizzes(ctx, PrincipalFromContext(ctx))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	list, err := h.catalog.ListActiveQuizzes(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ListMyQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListMyQuizzes(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), req.input(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handlers) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.catalog.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handlers) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req quizRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.catalog.UpdateQuiz(r.Context(), quizID, req.input(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handlers) ToggleQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.catalog.ToggleActive(r.Context(), quizID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handlers) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.DeleteQuiz(r.Context(), quizID, PrincipalFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.catalog.ListQuestions(r.Context(), quizID, PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) AddQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, err := idParam(r, "quizID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req questionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	question, err := h.catalog.AddQuestion(r.Context(), quizID, req.input(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handlers) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := idParam(r, "questionID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req questionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	question, err := h.catalog.UpdateQuestion(r.Context(), questionID, req.input(), PrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := idParam(r, "questionID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.DeleteQuestion(r.Context(), questionID, PrincipalFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
