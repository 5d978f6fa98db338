package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter mounts the REST API, the websocket endpoint and the health probe.
func NewRouter(h *Handlers, ws *WSHandler, auth *Authenticator, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// websocket connections outlive the request timeout
	r.With(auth.Middleware).Get("/ws", ws.ServeWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(opts.RequestTimeout))
		api.Use(auth.Middleware)

		api.Route("/attempts", func(ar chi.Router) {
			ar.Post("/start/{quizID}", h.StartAttempt)
			ar.Post("/submit", h.SubmitAttempt)
			ar.Get("/mine", h.ListMyAttempts)
			ar.Get("/my-quizzes", h.ListAttemptsForMyQuizzes)
			ar.Get("/quiz/{quizID}", h.ListAttemptsForQuiz)
			ar.Get("/{attemptID}/result", h.GetResult)
			ar.Delete("/{attemptID}", h.DeleteAttempt)
		})

		api.Route("/quizzes", func(qr chi.Router) {
			qr.Get("/", h.ListQuizzes)
			qr.Post("/", h.CreateQuiz)
			qr.Get("/mine", h.ListMyQuizzes)
			qr.Get("/{quizID}", h.GetQuiz)
			qr.Put("/{quizID}", h.UpdateQuiz)
			qr.Delete("/{quizID}", h.DeleteQuiz)
			qr.Post("/{quizID}/toggle", h.ToggleQuiz)
			qr.Get("/{quizID}/questions", h.ListQuestions)
			qr.Post("/{quizID}/questions", h.AddQuestion)
		})

		api.Put("/questions/{questionID}", h.UpdateQuestion)
		api.Delete("/questions/{questionID}", h.DeleteQuestion)

		api.Get("/statistics/quiz/{quizID}", h.QuizStatistics)
		api.Get("/statistics/me", h.MyStatistics)
	})
	return r
}
